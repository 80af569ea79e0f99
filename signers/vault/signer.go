package vault

import (
	"context"

	"github.com/hyperledger-labs/yui-remote-signer/core"
)

// Signer adapts a SigningClient to the core.Signer interface.
type Signer struct {
	Client *SigningClient
}

var _ core.Signer = Signer{}

func (s Signer) Sign(ctx context.Context, message []byte) ([]byte, error) {
	signature, err := s.Client.Sign(ctx, message)
	if err != nil {
		return nil, err
	}
	return signature[:], nil
}

func (s Signer) GetPublicKey(ctx context.Context) ([]byte, error) {
	pubKey, err := s.Client.PublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return pubKey[:], nil
}
