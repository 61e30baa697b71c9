package domain

import (
	"math"
	"sort"
	"time"
)

// ServiceCost is one service's share of a cost report.
type ServiceCost struct {
	Service string
	Amount  float64
}

// CostReport aggregates billing for one period in a single currency.
type CostReport struct {
	Period   Period
	Currency string
	Total    float64
	Services []ServiceCost
}

// TopServices returns the services whose amount is non-zero after rounding
// to cents, in descending amount order, capped at n when n > 0.
func (r CostReport) TopServices(n int) []ServiceCost {
	out := make([]ServiceCost, 0, len(r.Services))
	for _, s := range r.Services {
		if RoundUp2(s.Amount) == 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ExchangeRate is a conversion factor from the billing currency to a
// target currency, fetched fresh per invocation and never cached.
type ExchangeRate struct {
	Rate float64
	AsOf time.Time
}

// Valid reports whether the rate can be used for conversion.
func (e ExchangeRate) Valid() bool { return e.Rate > 0 }

// RoundUp2 rounds v up to two decimal places. Values already within float
// noise of an exact cent are snapped instead of bumped a cent up.
func RoundUp2(v float64) float64 {
	cents := v * 100
	if nearest := math.Round(cents); math.Abs(cents-nearest) < 1e-6 {
		return nearest / 100
	}
	return math.Ceil(cents) / 100
}
