package core

import (
	"context"
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"go.opentelemetry.io/otel/codes"
)

// ConsensusPubKey fetches the signer's public key and returns it as a
// CometBFT Ed25519 key so that callers can derive the validator address.
func ConsensusPubKey(ctx context.Context, signer Signer) (ed25519.PubKey, error) {
	ctx, span := tracer.Start(ctx, "Core.ConsensusPubKey",
		withPackage(signer),
	)
	defer span.End()

	raw, err := signer.GetPublicKey(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(raw) != ed25519.PubKeySize {
		err := fmt.Errorf("unexpected public key length: expected=%d actual=%d", ed25519.PubKeySize, len(raw))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ed25519.PubKey(raw), nil
}
