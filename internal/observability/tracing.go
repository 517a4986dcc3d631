package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceNamespace groups every pizza-tracker binary in trace backends.
const ServiceNamespace = "pizza-tracker"

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// GetTracingConfig reads OTEL_ENABLED ("true" enables) and
// OTEL_EXPORTER_OTLP_ENDPOINT (default "localhost:4317").
func GetTracingConfig(serviceName string) TracingConfig {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	return TracingConfig{
		Enabled:     strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		Endpoint:    endpoint,
		ServiceName: serviceName,
	}
}

// Tracing is the tracer used by the workflow plus the propagator the HTTP
// entry point extracts incoming trace context with.
type Tracing struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator
	shutdown   func(context.Context) error
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// InitTracing exports spans over OTLP gRPC when cfg.Enabled, otherwise it
// returns a no-op tracer. The propagator is set either way so upstream
// trace ids still reach the logs.
func InitTracing(ctx context.Context, cfg TracingConfig, logger *slog.Logger) (*Tracing, error) {
	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	if !cfg.Enabled {
		logger.Info("tracing disabled, using no-op tracer")
		return &Tracing{
			Tracer:     noop.NewTracerProvider().Tracer(cfg.ServiceName),
			Propagator: prop,
		}, nil
	}

	logger.Info("initializing tracing", "endpoint", cfg.Endpoint, "service", cfg.ServiceName)

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(prop)

	return &Tracing{
		Tracer:     tp.Tracer(cfg.ServiceName),
		Propagator: prop,
		shutdown: func(ctx context.Context) error {
			logger.Info("shutting down tracer provider")
			return tp.Shutdown(ctx)
		},
	}, nil
}

// serviceResource adds the service attributes to the SDK default resource.
// The service attributes carry no schema URL, so the merge cannot conflict
// with the schema the SDK version stamps on its default.
func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			attribute.String("service.namespace", ServiceNamespace),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return res, nil
}
