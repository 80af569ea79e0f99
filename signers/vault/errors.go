package vault

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the signing client. Callers match them with
// errors.Is; the returned errors usually carry additional detail.
var (
	// reserved for future version negotiation
	ErrUnsupportedVersion = errors.New("this version is not supported")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrOversizedMessage   = errors.New("message size is invalid (too big)")
	ErrInvalidPubKey      = errors.New("public key error")
	ErrInvalidRawKey      = errors.New("received an invalid raw key")
	ErrNoSignature        = errors.New("received no signature back")
	ErrInvalidSignature   = errors.New("received an invalid signature")
	ErrTransport          = errors.New("api client error")
	ErrDecode             = errors.New("base64 decode error")
	ErrSerialization      = errors.New("serialization error")
)
