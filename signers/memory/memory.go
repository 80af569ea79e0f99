package memory

import (
	"context"
	"strings"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/log"
)

// TypeName is the value of the "type" attribute that selects this backend.
const TypeName = "memory"

// Signer signs with an in-process ed25519 key. It is intended for local
// development and tests, not for production use.
type Signer struct {
	privKey ed25519.PrivKey
}

var _ core.Signer = Signer{}

func (s Signer) Sign(ctx context.Context, message []byte) ([]byte, error) {
	return s.privKey.Sign(message)
}

func (s Signer) GetPublicKey(ctx context.Context) ([]byte, error) {
	return s.privKey.PubKey().Bytes(), nil
}

// SignerConfig is the configuration of the in-memory signer backend.
type SignerConfig struct {
	Type string `json:"type" yaml:"type"`

	// Secret deterministically derives the signing key. An empty secret
	// generates a fresh key on every startup.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
}

var _ core.SignerConfig = (*SignerConfig)(nil)

func (c SignerConfig) Build(ctx context.Context) (core.Signer, error) {
	logger := log.GetLogger().WithModule("signers.memory")
	if strings.TrimSpace(c.Secret) == "" {
		logger.WarnContext(ctx, "generated an ephemeral signing key; signatures will not be reproducible across restarts")
		return Signer{privKey: ed25519.GenPrivKey()}, nil
	}
	return Signer{privKey: ed25519.GenPrivKeyFromSecret([]byte(c.Secret))}, nil
}

func (c SignerConfig) Validate() error {
	return nil
}
