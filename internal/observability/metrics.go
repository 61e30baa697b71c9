package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for the billing notifier.
type Metrics struct {
	Runs            metric.Int64Counter
	FXFallbacks     metric.Int64Counter
	DeliveryLatency metric.Float64Histogram
}

// NewMetrics creates the notifier metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("billing-notify")

	runs, err := meter.Int64Counter("notify.run.count",
		metric.WithDescription("Number of notification runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	fxFallbacks, err := meter.Int64Counter("notify.fx.fallbacks",
		metric.WithDescription("Runs that proceeded without currency conversion"),
	)
	if err != nil {
		return nil, err
	}

	deliveryLatency, err := meter.Float64Histogram("notify.delivery.latency_seconds",
		metric.WithDescription("Webhook delivery latency including retries"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Runs:            runs,
		FXFallbacks:     fxFallbacks,
		DeliveryLatency: deliveryLatency,
	}, nil
}

// RecordRun records a completed run with its outcome.
func (m *Metrics) RecordRun(ctx context.Context, outcome string) {
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordFXFallback records a run that skipped currency conversion.
func (m *Metrics) RecordFXFallback(ctx context.Context) {
	m.FXFallbacks.Add(ctx, 1)
}

// RecordDelivery records the webhook delivery latency.
func (m *Metrics) RecordDelivery(ctx context.Context, d time.Duration) {
	m.DeliveryLatency.Record(ctx, d.Seconds())
}
