package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where telemetry goes
type Config struct {
	ServiceName string
	// TraceOutput receives stdout-exported spans; nil disables tracing
	TraceOutput io.Writer
	// Registry collects metrics; nil uses a fresh registry
	Registry *promclient.Registry
}

// Telemetry owns the otel providers and the prometheus registry they export to
type Telemetry struct {
	Registry       *promclient.Registry
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Setup installs global tracer and meter providers. Tracing uses the stdout
// exporter; metrics are exported through prometheus.
func Setup(cfg Config) (*Telemetry, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)

	registry := cfg.Registry
	if registry == nil {
		registry = promclient.NewRegistry()
	}

	exp, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	t := &Telemetry{Registry: registry, MeterProvider: mp}

	if cfg.TraceOutput != nil {
		traceExp, err := stdouttrace.New(stdouttrace.WithWriter(cfg.TraceOutput))
		if err != nil {
			_ = mp.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
		}
		t.TracerProvider = trace.NewTracerProvider(
			trace.WithBatcher(traceExp),
			trace.WithResource(res),
		)
		otel.SetTracerProvider(t.TracerProvider)
	}

	return t, nil
}

// Handler serves the prometheus registry
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{Registry: t.Registry})
}

// Shutdown flushes and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
