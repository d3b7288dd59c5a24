package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "timscompare"

// Tracer resolves against the global provider on every Start, so spans go to
// the exporter once InitTracing has run and are no-ops before.
var Tracer trace.Tracer = otel.Tracer(instrumentationName)

// TracingOptions selects the OTLP collector.
type TracingOptions struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

// InitTracing installs a batching OTLP/gRPC tracer provider as the global
// provider. The returned function flushes and shuts it down.
func InitTracing(ctx context.Context, opts TracingOptions) (func(context.Context) error, error) {
	clientOpts := []otlptracegrpc.Option{}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, otlptracegrpc.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	name := opts.ServiceName
	if name == "" {
		name = instrumentationName
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
