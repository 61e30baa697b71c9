package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops-claw-gang/billing-notify/internal/domain"
	"github.com/finops-claw-gang/billing-notify/internal/report"
)

type mockCosts struct {
	report domain.CostReport
	err    error
	calls  int
}

func (m *mockCosts) MonthlyReport(_ context.Context, period domain.Period) (domain.CostReport, error) {
	m.calls++
	if m.err != nil {
		return domain.CostReport{}, m.err
	}
	r := m.report
	r.Period = period
	return r, nil
}

type mockRates struct {
	rate  domain.ExchangeRate
	err   error
	calls int
}

func (m *mockRates) Rate(_ context.Context) (domain.ExchangeRate, error) {
	m.calls++
	return m.rate, m.err
}

type mockSink struct {
	err   error
	calls int
	last  report.Message
}

func (m *mockSink) Post(_ context.Context, msg report.Message) error {
	m.calls++
	m.last = msg
	return m.err
}

func fixedNow() time.Time {
	return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
}

func usdReport(total float64) domain.CostReport {
	return domain.CostReport{
		Currency: "USD",
		Total:    total,
		Services: []domain.ServiceCost{{Service: "Amazon EC2", Amount: total}},
	}
}

func newTestNotifier(costs CostSource, rates RateSource, sink MessageSink) *Notifier {
	return New(Params{
		Costs:    costs,
		Rates:    rates,
		Sink:     sink,
		Report:   report.Options{TargetCurrency: "JPY"},
		Location: time.UTC,
		Now:      fixedNow,
	})
}

func TestRun_NoFXConfigured(t *testing.T) {
	costs := &mockCosts{report: usdReport(12345.67)}
	sink := &mockSink{}

	err := newTestNotifier(costs, nil, sink).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sink.calls)
	assert.Contains(t, sink.last.Title, "12345.67")
	assert.NotContains(t, sink.last.Title, "JPY")
	assert.Empty(t, sink.last.Footer)
}

func TestRun_WithFX(t *testing.T) {
	costs := &mockCosts{report: usdReport(12345.67)}
	rates := &mockRates{rate: domain.ExchangeRate{Rate: 150.0, AsOf: fixedNow()}}
	sink := &mockSink{}

	err := newTestNotifier(costs, rates, sink).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sink.calls)
	assert.Equal(t, 1, rates.calls)
	assert.Contains(t, sink.last.Title, "1,851,850.50 JPY")
	assert.Contains(t, sink.last.Title, "12345.67 USD")
}

func TestRun_FXFailureDegrades(t *testing.T) {
	costs := &mockCosts{report: usdReport(12345.67)}
	rates := &mockRates{err: errors.New("endpoint down")}
	sink := &mockSink{}

	err := newTestNotifier(costs, rates, sink).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sink.calls) // still delivered
	assert.Contains(t, sink.last.Title, "12345.67")
	assert.NotContains(t, sink.last.Title, "JPY")
}

func TestRun_CostFailureAborts(t *testing.T) {
	costs := &mockCosts{err: errors.New("throttled")}
	rates := &mockRates{rate: domain.ExchangeRate{Rate: 150.0}}
	sink := &mockSink{}

	err := newTestNotifier(costs, rates, sink).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch cost report")

	assert.Equal(t, 0, sink.calls) // no partial message
}

func TestRun_DeliveryFailureSurfaces(t *testing.T) {
	costs := &mockCosts{report: usdReport(10)}
	sink := &mockSink{err: errors.New("webhook 502")}

	err := newTestNotifier(costs, nil, sink).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliver message")
	assert.Equal(t, 1, sink.calls)
}

func TestRun_ReportingPeriod(t *testing.T) {
	costs := &mockCosts{report: usdReport(10)}
	sink := &mockSink{}

	err := newTestNotifier(costs, nil, sink).Run(context.Background())
	require.NoError(t, err)

	// Invoked 2024-02-01 09:00 UTC, so the report covers January.
	assert.Contains(t, sink.last.Title, "01/01 - 01/31")
}

type blockingCosts struct{}

func (blockingCosts) MonthlyReport(ctx context.Context, _ domain.Period) (domain.CostReport, error) {
	<-ctx.Done()
	return domain.CostReport{}, ctx.Err()
}

type blockingSink struct {
	calls int
}

func (s *blockingSink) Post(ctx context.Context, _ report.Message) error {
	s.calls++
	<-ctx.Done()
	return ctx.Err()
}

func TestRun_StepTimeoutBoundsCostFetch(t *testing.T) {
	sink := &mockSink{}
	n := New(Params{
		Costs:       blockingCosts{},
		Sink:        sink,
		Location:    time.UTC,
		Now:         fixedNow,
		StepTimeout: 50 * time.Millisecond,
	})

	started := time.Now()
	err := n.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// A hung cost source must not eat the invocation budget.
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, 0, sink.calls)
}

func TestRun_StepTimeoutBoundsDelivery(t *testing.T) {
	costs := &mockCosts{report: usdReport(10)}
	sink := &blockingSink{}
	n := New(Params{
		Costs:       costs,
		Sink:        sink,
		Location:    time.UTC,
		Now:         fixedNow,
		StepTimeout: 50 * time.Millisecond,
	})

	started := time.Now()
	err := n.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, 1, sink.calls)
}

func TestRun_NoDedupAcrossRuns(t *testing.T) {
	costs := &mockCosts{report: usdReport(10)}
	sink := &mockSink{}
	n := newTestNotifier(costs, nil, sink)

	require.NoError(t, n.Run(context.Background()))
	require.NoError(t, n.Run(context.Background()))

	// Two runs in the same period mean two independent deliveries.
	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, 2, costs.calls)
}
