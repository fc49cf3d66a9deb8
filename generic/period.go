package generic

import "time"

// =============================================================================
// PERIOD - Inclusive day range used for billing windows
// =============================================================================

// Period is an inclusive [Start, End] range of days.
//
// Examples:
//   - A month:   Jan 1 - Jan 31
//   - A quarter: Apr 1 - Jun 30 (three months from the anchor month)
//   - A year:    Jan 1 - Dec 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod is the calendar month containing (year, month).
func MonthPeriod(year int, month time.Month) Period {
	return MonthSpan(StartOfMonth(year, month), 1)
}

// MonthSpan covers n calendar months starting at the month of anchor.
// MonthSpan(Apr 1, 3) is Apr 1 - Jun 30.
func MonthSpan(anchor TimePoint, n int) Period {
	start := StartOfMonth(anchor.Year(), anchor.Month())
	last := start.AddMonths(n - 1)
	return Period{Start: start, End: EndOfMonth(last.Year(), last.Month())}
}

// YearPeriod is the calendar year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Months returns the first day of every month touched by the period, oldest
// first. An invalid period yields nothing.
func (p Period) Months() []TimePoint {
	if !p.Valid() {
		return nil
	}
	var months []TimePoint
	current := StartOfMonth(p.Start.Year(), p.Start.Month())
	last := StartOfMonth(p.End.Year(), p.End.Month())
	for current.BeforeOrEqual(last) {
		months = append(months, current)
		current = current.AddMonths(1)
	}
	return months
}
