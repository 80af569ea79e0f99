package telemetry

import (
	"fmt"
	"net/http"

	"github.com/hyperledger-labs/yui-remote-signer/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	namespaceRoot = "signer"
)

var (
	SignRequestsCounter   api.Int64Counter
	SignErrorsCounter     api.Int64Counter
	SignDurationHistogram api.Float64Histogram
	KeyVersionGauge       *Int64SyncGauge

	meter = otel.Meter(name)
)

func InitializeMetrics() error {
	var err error

	// create the instrument "signer.sign_requests"
	name := fmt.Sprintf("%s.sign_requests", namespaceRoot)
	if SignRequestsCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of signing requests received"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "signer.sign_errors"
	name = fmt.Sprintf("%s.sign_errors", namespaceRoot)
	if SignErrorsCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of signing requests that failed"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "signer.sign_duration"
	name = fmt.Sprintf("%s.sign_duration", namespaceRoot)
	if SignDurationHistogram, err = meter.Float64Histogram(
		name,
		api.WithUnit("ms"),
		api.WithDescription("duration of a signing round trip to the backend"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "signer.key_version"
	name = fmt.Sprintf("%s.key_version", namespaceRoot)
	if KeyVersionGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("latest version of the signing key reported by the backend"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	return nil
}

// SetupPrometheusMetrics replaces the global meter provider with one that
// publishes the instruments on a Prometheus endpoint at addr.
func SetupPrometheusMetrics(addr string) error {
	exporter, err := NewPrometheusExporter(addr)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))
	return nil
}

func NewPrometheusExporter(addr string) (*prometheus.Exporter, error) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger := log.GetLogger().WithModule("telemetry")
			logger.Fatal("Prometheus exporter server failed", err)
		}
	}()

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create the Prometheus Exporter: %v", err)
	}

	return exporter, nil
}
