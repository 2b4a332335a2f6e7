// Package observability wires OpenTelemetry tracing for mission runs.
package observability

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "wintermute"

// InitTracing builds a tracer provider that writes completed spans to w and
// installs it as the global provider. The returned shutdown function flushes
// pending spans; call it before process exit.
//
// When enabled is false the provider records nothing and shutdown is a no-op.
func InitTracing(ctx context.Context, w io.Writer, enabled bool) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	if !enabled {
		tp := sdktrace.NewTracerProvider()
		return tp, func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		))
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}
