package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-remote-signer/internal/telemetry"
	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/hyperledger-labs/yui-remote-signer/otelcore/semconv"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TypeName is the signer type under which this backend is registered.
	TypeName = "vault"

	// backendName is the mount path of the transit secrets engine.
	backendName = "transit"

	// PublicKeySize is the size in bytes of an Ed25519 public key.
	PublicKeySize = 32
	// SignatureSize is the size in bytes of an Ed25519 signature.
	SignatureSize = 64

	// ConsensusKeyType is the only key type accepted for consensus signing.
	ConsensusKeyType = "ed25519"
)

// SigningClient talks to the transit secrets engine of a Vault server and
// exposes the operations needed to run a validator with a remote consensus key.
//
// The client is safe for concurrent use.
type SigningClient struct {
	session *session
	keyName string

	mu     sync.Mutex
	pubKey *[PublicKeySize]byte

	maxMessageSize int
}

// Connect verifies the token with a self lookup and returns a client bound to
// the signing key named in the config.
func Connect(ctx context.Context, config SignerConfig) (*SigningClient, error) {
	logger := log.GetLogger().WithSigner(TypeName, config.KeyName)

	session := newSession(config)
	token, err := session.connect(ctx)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "initialized the vault session",
		"addr", session.addr,
		"display_name", token.DisplayName,
		"ttl", token.TTL,
	)

	return &SigningClient{
		session:        session,
		keyName:        config.KeyName,
		maxMessageSize: config.MaxMessageSize,
	}, nil
}

// PublicKey returns the raw public key of the signing key. The first
// successful fetch is cached for the lifetime of the client.
func (c *SigningClient) PublicKey(ctx context.Context) ([PublicKeySize]byte, error) {
	logger := log.GetLogger().WithSigner(TypeName, c.keyName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pubKey != nil {
		logger.DebugContext(ctx, "using the cached public key")
		return *c.pubKey, nil
	}

	logger.DebugContext(ctx, "fetching the public key")

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(semconv.KeyNameKey.String(c.keyName))

	env, err := call[readKeyData](ctx, c.session, http.MethodGet, fmt.Sprintf("%s/keys/%s", backendName, c.keyName), nil)
	if err != nil {
		return [PublicKeySize]byte{}, err
	}
	if env.Data == nil {
		return [PublicKeySize]byte{}, errors.Wrap(ErrInvalidPubKey, "vault response unavailable")
	}

	version, entry, ok := latestVersion(env.Data.Keys)
	if !ok {
		return [PublicKeySize]byte{}, errors.Wrap(ErrInvalidPubKey, "unable to retrieve the last key version")
	}

	encoded, ok := entry["public_key"]
	if !ok {
		return [PublicKeySize]byte{}, errors.Wrapf(ErrInvalidPubKey, "key %q: attribute \"public_key\" is not found", c.keyName)
	}
	keyType, ok := entry["name"]
	if !ok {
		return [PublicKeySize]byte{}, errors.Wrapf(ErrInvalidPubKey, "key %q: expected key type:%s, unable to determine type", c.keyName, ConsensusKeyType)
	}
	if keyType != ConsensusKeyType {
		return [PublicKeySize]byte{}, errors.Wrapf(ErrInvalidPubKey, "key %q: expected key type:%s, received:%s", c.keyName, ConsensusKeyType, keyType)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return [PublicKeySize]byte{}, errors.Mark(errors.Wrap(err, "failed to decode the public key"), ErrDecode)
	}
	logger.DebugContext(ctx, "decoded the public key", "key_version", version, "size", len(raw))
	if len(raw) < PublicKeySize {
		return [PublicKeySize]byte{}, errors.Wrapf(ErrInvalidRawKey, "unexpected public key length: expected=%d actual=%d", PublicKeySize, len(raw))
	}

	var pubKey [PublicKeySize]byte
	copy(pubKey[:], raw[:PublicKeySize])

	c.pubKey = &pubKey
	logger.DebugContext(ctx, "cached the public key", "key_version", version)

	span.SetAttributes(semconv.KeyVersionKey.Int(version))
	telemetry.KeyVersionGauge.Set(int64(version),
		semconv.SignerBackendKey.String(TypeName),
		semconv.KeyNameKey.String(c.keyName),
	)

	return pubKey, nil
}

// Sign signs the given message with the signing key and returns the raw
// signature.
func (c *SigningClient) Sign(ctx context.Context, message []byte) ([SignatureSize]byte, error) {
	logger := log.GetLogger().WithSigner(TypeName, c.keyName)
	logger.DebugContext(ctx, "signing request received", "message_size", len(message))

	if len(message) == 0 {
		return [SignatureSize]byte{}, ErrEmptyMessage
	}
	if c.maxMessageSize > 0 && len(message) > c.maxMessageSize {
		return [SignatureSize]byte{}, errors.Wrapf(ErrOversizedMessage, "message size %d exceeds the limit %d", len(message), c.maxMessageSize)
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(semconv.KeyNameKey.String(c.keyName))

	req := signRequest{Input: base64.StdEncoding.EncodeToString(message)}
	env, err := call[signData](ctx, c.session, http.MethodPost, fmt.Sprintf("%s/sign/%s", backendName, c.keyName), req)
	if err != nil {
		return [SignatureSize]byte{}, err
	}
	if env.Data == nil {
		return [SignatureSize]byte{}, ErrNoSignature
	}

	parts := strings.Split(env.Data.Signature, ":")
	if len(parts) != 3 {
		return [SignatureSize]byte{}, errors.Wrapf(ErrInvalidSignature, "expected 3 parts, received:%d full:%s", len(parts), env.Data.Signature)
	}

	raw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return [SignatureSize]byte{}, errors.Mark(errors.Wrap(err, "failed to decode the signature"), ErrDecode)
	}
	if len(raw) != SignatureSize {
		return [SignatureSize]byte{}, errors.Wrapf(ErrInvalidSignature, "invalid signature length: expected=%d actual=%d", SignatureSize, len(raw))
	}

	if version := env.Data.KeyVersion; version > 0 {
		span.SetAttributes(semconv.KeyVersionKey.Int(version))
		telemetry.KeyVersionGauge.Set(int64(version),
			semconv.SignerBackendKey.String(TypeName),
			semconv.KeyNameKey.String(c.keyName),
		)
	}

	var signature [SignatureSize]byte
	copy(signature[:], raw)
	return signature, nil
}

// WrappingKey returns the second line of the PEM-encoded RSA wrapping key of
// the transit engine. That line carries the base64 key material expected by
// the key import tooling.
func (c *SigningClient) WrappingKey(ctx context.Context) (string, error) {
	logger := log.GetLogger().WithSigner(TypeName, c.keyName)

	env, err := call[wrappingKeyData](ctx, c.session, http.MethodGet, fmt.Sprintf("%s/wrapping_key", backendName), nil)
	if err != nil {
		return "", err
	}
	if env.Data == nil {
		return "", errors.Wrap(ErrInvalidPubKey, "failed to get the wrapping key")
	}
	logger.DebugContext(ctx, "fetched the wrapping key", "size", len(env.Data.PublicKey))

	lines := pemLines(env.Data.PublicKey)
	if len(lines) < 2 {
		return "", errors.Wrap(ErrInvalidPubKey, "failed to get the wrapping key")
	}
	return lines[1], nil
}

// ExportKey returns the latest version of the named key from the export
// endpoint. The key material is returned as-is.
func (c *SigningClient) ExportKey(ctx context.Context, keyType, keyName string) (string, error) {
	env, err := call[exportKeyData](ctx, c.session, http.MethodGet, fmt.Sprintf("%s/export/%s/%s", backendName, keyType, keyName), nil)
	if err != nil {
		return "", err
	}
	if env.Data == nil {
		return "", errors.Wrap(ErrInvalidPubKey, "failed to export the key")
	}
	_, key, ok := latestVersion(env.Data.Keys)
	if !ok {
		return "", errors.Wrap(ErrInvalidPubKey, "failed to export the key")
	}
	return key, nil
}
