package otelcore

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/otelcore/semconv"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Signer struct {
	core.Signer
	backend string
	tracer  trace.Tracer
}

func NewSigner(signer core.Signer, backend string, tracer trace.Tracer) core.Signer {
	return &Signer{
		Signer:  signer,
		backend: backend,
		tracer:  tracer,
	}
}

func UnwrapSigner(signer core.Signer) (core.Signer, error) {
	s, ok := signer.(*Signer)
	if !ok {
		return nil, fmt.Errorf("signer type is not %T, but %T", &Signer{}, signer)
	}
	return s.Signer, nil
}

func (s *Signer) Sign(ctx context.Context, message []byte) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "Signer.Sign",
		core.WithSignerAttributes(s.backend),
		trace.WithAttributes(semconv.MessageSizeKey.Int(len(message))),
	)
	defer span.End()

	signature, err := s.Signer.Sign(ctx, message)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return signature, err
}

func (s *Signer) GetPublicKey(ctx context.Context) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "Signer.GetPublicKey",
		core.WithSignerAttributes(s.backend),
	)
	defer span.End()

	pubKey, err := s.Signer.GetPublicKey(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return pubKey, err
}
