package core

import (
	"context"
)

// Signer abstracts a custody backend that holds an Ed25519 consensus key
// and produces signatures on its behalf.
type Signer interface {
	// Sign signs the given message with the consensus key and returns the
	// raw 64-byte signature.
	Sign(ctx context.Context, message []byte) (signature []byte, err error)
	// GetPublicKey returns the raw 32-byte public key of the consensus key.
	GetPublicKey(ctx context.Context) ([]byte, error)
}

// SignerConfig is a configuration that can build a Signer.
type SignerConfig interface {
	// Build connects to the backend and returns a ready-to-use Signer.
	// Implementations may perform network I/O, so callers must pass a
	// context with an appropriate deadline.
	Build(ctx context.Context) (Signer, error)
	Validate() error
}
