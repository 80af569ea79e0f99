package core

import (
	"reflect"

	"github.com/hyperledger-labs/yui-remote-signer/otelcore/semconv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("github.com/hyperledger-labs/yui-remote-signer/core")
)

// WithSignerAttributes adds the common signer attributes to a span.
func WithSignerAttributes(backend string) trace.SpanStartOption {
	return trace.WithAttributes(semconv.SignerBackendKey.String(backend))
}

// withPackage adds the package name of the function/method `v`
func withPackage(v any) trace.SpanStartOption {
	return trace.WithAttributes(semconv.PackageKey.String(getPackageName(v)))
}

func getPackageName(v any) string {
	if v == nil {
		return ""
	}

	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt.PkgPath()
}
