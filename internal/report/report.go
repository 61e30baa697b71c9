// Package report composes the notification message from a cost report and
// an optional exchange rate.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/finops-claw-gang/billing-notify/internal/domain"
)

// Message is a composed notification, ready for a sink to deliver.
type Message struct {
	Title  string
	Body   string
	Footer string
}

// Options tune message composition.
type Options struct {
	// TargetCurrency labels converted figures, e.g. "JPY".
	TargetCurrency string
	// TopServices caps the breakdown lines; 0 means no cap.
	TopServices int
}

// Build renders a message. With a valid rate the title and each breakdown
// line lead with the converted figure and the footer records the rate used;
// otherwise everything stays in the report's own currency.
func Build(r domain.CostReport, rate domain.ExchangeRate, opts Options) Message {
	total := domain.RoundUp2(r.Total)
	label := r.Period.Label()

	var msg Message
	if rate.Valid() {
		converted := domain.RoundUp2(total * rate.Rate)
		msg.Title = fmt.Sprintf("AWS costs for %s: %s %s (%.2f %s)",
			label, money(converted), opts.TargetCurrency, total, r.Currency)
		msg.Footer = fmt.Sprintf("FX rate: %.2f %s/%s (as of %s)",
			rate.Rate, opts.TargetCurrency, r.Currency, rate.AsOf.Format("2006-01-02"))
	} else {
		msg.Title = fmt.Sprintf("AWS costs for %s: %.2f %s", label, total, r.Currency)
	}

	var lines []string
	for _, s := range r.TopServices(opts.TopServices) {
		amount := domain.RoundUp2(s.Amount)
		if rate.Valid() {
			converted := domain.RoundUp2(amount * rate.Rate)
			lines = append(lines, fmt.Sprintf("- %s: %s %s (%.2f %s)",
				s.Service, money(converted), opts.TargetCurrency, amount, r.Currency))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %.2f %s", s.Service, amount, r.Currency))
		}
	}
	msg.Body = strings.Join(lines, "\n")

	return msg
}

// money renders an amount with thousands separators and fixed cents.
func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
