// Package domain defines the data model shared across the notifier:
// reporting periods, cost reports, and exchange rates. Nothing here
// persists beyond a single invocation.
package domain

import "time"

const dateLayout = "2006-01-02"

// Period is a half-open date range [Start, End) in the billing calendar.
type Period struct {
	Start time.Time
	End   time.Time
}

// PreviousMonth returns the reporting period for an invocation at t:
// the first day of the previous calendar month through the first day of
// the invocation's own month, evaluated in loc.
func PreviousMonth(t time.Time, loc *time.Location) Period {
	local := t.In(loc)
	end := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Period{Start: end.AddDate(0, -1, 0), End: end}
}

// StartDate renders the period start in the YYYY-MM-DD form the Cost
// Explorer API expects.
func (p Period) StartDate() string { return p.Start.Format(dateLayout) }

// EndDate renders the exclusive period end in YYYY-MM-DD form.
func (p Period) EndDate() string { return p.End.Format(dateLayout) }

// Label renders the period as "MM/DD - MM/DD" for message titles. The end
// shown is the last day inside the period, not the exclusive boundary.
func (p Period) Label() string {
	last := p.End.AddDate(0, 0, -1)
	return p.Start.Format("01/02") + " - " + last.Format("01/02")
}
