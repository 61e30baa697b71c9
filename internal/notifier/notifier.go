// Package notifier orchestrates a single cost-notification run:
// fetch the previous month's costs, optionally fetch an exchange rate,
// compose the summary, deliver it to the webhook.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finops-claw-gang/billing-notify/internal/domain"
	"github.com/finops-claw-gang/billing-notify/internal/observability"
	"github.com/finops-claw-gang/billing-notify/internal/report"
)

// CostSource provides the aggregated cost report for a period. It is
// read-only on purpose: the notifier must never need more than this.
type CostSource interface {
	MonthlyReport(ctx context.Context, period domain.Period) (domain.CostReport, error)
}

// RateSource provides a fresh currency conversion rate.
type RateSource interface {
	Rate(ctx context.Context) (domain.ExchangeRate, error)
}

// MessageSink delivers a composed message.
type MessageSink interface {
	Post(ctx context.Context, msg report.Message) error
}

// Params wires a Notifier. Costs and Sink are required; Rates may be nil to
// disable conversion; Now defaults to time.Now and Location to UTC.
type Params struct {
	Costs       CostSource
	Rates       RateSource
	Sink        MessageSink
	Report      report.Options
	Location    *time.Location
	StepTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// Notifier runs the fetch-compose-deliver pipeline once per invocation.
// It holds no state across runs.
type Notifier struct {
	costs       CostSource
	rates       RateSource
	sink        MessageSink
	opts        report.Options
	loc         *time.Location
	stepTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Notifier from Params, filling in defaults.
func New(p Params) *Notifier {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.StepTimeout <= 0 {
		p.StepTimeout = 20 * time.Second
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Notifier{
		costs:       p.Costs,
		rates:       p.Rates,
		sink:        p.Sink,
		opts:        p.Report,
		loc:         p.Location,
		stepTimeout: p.StepTimeout,
		now:         p.Now,
		logger:      p.Logger,
		metrics:     p.Metrics,
	}
}

// Run executes one notification cycle. A cost-source failure aborts before
// any delivery; a rate-source failure only drops the converted figures; a
// delivery failure is returned so the platform's retry semantics own the
// re-attempt. Nothing is deduplicated across runs.
func (n *Notifier) Run(ctx context.Context) error {
	period := domain.PreviousMonth(n.now(), n.loc)
	n.logger.Info("computed reporting period",
		"start", period.StartDate(), "end", period.EndDate())

	var (
		costs domain.CostReport
		rate  domain.ExchangeRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stepCtx, cancel := context.WithTimeout(gctx, n.stepTimeout)
		defer cancel()
		r, err := n.costs.MonthlyReport(stepCtx, period)
		if err != nil {
			return fmt.Errorf("notifier: fetch cost report: %w", err)
		}
		costs = r
		return nil
	})
	g.Go(func() error {
		if n.rates == nil {
			return nil
		}
		stepCtx, cancel := context.WithTimeout(gctx, n.stepTimeout)
		defer cancel()
		r, err := n.rates.Rate(stepCtx)
		if err != nil {
			// Conversion is best-effort: the message falls back to the
			// billing currency instead of failing the run.
			n.logger.Warn("exchange rate unavailable, skipping conversion", "error", err)
			if n.metrics != nil {
				n.metrics.RecordFXFallback(gctx)
			}
			return nil
		}
		rate = r
		return nil
	})
	if err := g.Wait(); err != nil {
		if n.metrics != nil {
			n.metrics.RecordRun(ctx, "cost_error")
		}
		return err
	}

	msg := report.Build(costs, rate, n.opts)

	deliverCtx, cancel := context.WithTimeout(ctx, n.stepTimeout)
	defer cancel()
	started := time.Now()
	if err := n.sink.Post(deliverCtx, msg); err != nil {
		if n.metrics != nil {
			n.metrics.RecordRun(ctx, "delivery_error")
		}
		return fmt.Errorf("notifier: deliver message: %w", err)
	}

	if n.metrics != nil {
		n.metrics.RecordDelivery(ctx, time.Since(started))
		n.metrics.RecordRun(ctx, "ok")
	}
	n.logger.Info("notification delivered",
		"total", costs.Total, "currency", costs.Currency, "converted", rate.Valid())
	return nil
}
