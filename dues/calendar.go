package dues

import (
	"time"

	"github.com/warp/dues-engine/generic"
)

// CalculateDueDate returns the last calendar day of (month, year) plus
// graceDays. Month is 1-12; out-of-range values roll over the calendar
// (month 13 is January of year+1). Negative grace days are not rejected and
// move the due date before month end.
func CalculateDueDate(month, year, graceDays int) generic.TimePoint {
	return generic.EndOfMonth(year, time.Month(month)).AddDays(graceDays)
}

// CalculateEffectiveDate is the first day a late fee may accrue: the due
// date plus one day.
func CalculateEffectiveDate(month, year, graceDays int) generic.TimePoint {
	return CalculateDueDate(month, year, graceDays).AddDays(1)
}
