package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracer installs a global OTel trace provider exporting OTLP over HTTP.
// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_*
// environment variables. The returned shutdown flushes pending spans and
// should be deferred.
func InitTracer(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: build resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otel: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(rsrc),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing initialized", "service", serviceName)

	return tp.Shutdown, nil
}
