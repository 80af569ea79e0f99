package coreutil

import (
	"fmt"

	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/otelcore"
)

// UnwrapSigner finds the first signer value in the wrapping chain that matches
// the specified type argument.
//
// In the following example, UnwrapSigner returns the vault.Signer value behind
// the tracing wrapper:
//
//	signer, err := coreutil.UnwrapSigner[vault.Signer](signer)
func UnwrapSigner[S core.Signer](s core.Signer) (S, error) {
	signer := s
	for {
		switch unwrapped := signer.(type) {
		case *otelcore.Signer:
			signer = unwrapped.Signer
		case S:
			return unwrapped, nil
		default:
			var zero S
			return zero, fmt.Errorf("failed to unwrap signer: expected=%T, actual=%T", zero, unwrapped)
		}
	}
}
