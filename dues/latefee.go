/*
latefee.go - Late-fee rule evaluation and accrual

PURPOSE:
  Decides whether a fee due for (month, year) is late as of a given day,
  and how much late fee has accrued.

TIMELINE (grace = 5, January fee):
  Jan 31        period end
  Feb 5         due date (period end + grace)
  Feb 6         effective date: first day a late fee applies

ACCRUAL:
  Elapsed units are counted from the effective date. Once the effective date
  is reached at least one unit is charged, so a fee that is one day late is
  charged a full day/week/month. There is no proration inside a unit.

  DAILY, 10/day, grace 0, January fee:
    Feb 1 -> 10  (0 days elapsed, minimum one)
    Feb 5 -> 40  (4 days elapsed)

PURITY:
  Every function takes the evaluation date explicitly. Nothing reads the
  wall clock.

SEE ALSO:
  - calendar.go: Due/effective date arithmetic
  - generic/accrual.go: AccrualRate
*/
package dues

import (
	"github.com/warp/dues-engine/generic"
)

// ShouldApplyLateFee reports whether the fee is late on currentDate.
func ShouldApplyLateFee(fee FeeItem, dueMonth, dueYear int, currentDate generic.TimePoint) bool {
	if !fee.LateFeeEnabled {
		return false
	}
	effective := CalculateEffectiveDate(dueMonth, dueYear, fee.LateFeeGraceDays)
	return currentDate.AfterOrEqual(effective)
}

// CalculateLateFeeAmount returns the late fee accrued by currentDate, or
// zero when the fee is not late, late fees are disabled, or no late-fee
// amount is configured.
func CalculateLateFeeAmount(fee FeeItem, dueMonth, dueYear int, currentDate generic.TimePoint) generic.Money {
	rate, ok := fee.LateFeeRate()
	if !ok || !ShouldApplyLateFee(fee, dueMonth, dueYear, currentDate) {
		return generic.Zero()
	}
	effective := CalculateEffectiveDate(dueMonth, dueYear, fee.LateFeeGraceDays)
	return rate.Accrue(effective, currentDate)
}

// GetLateFeeCalculation bundles the evaluation for display.
func GetLateFeeCalculation(fee FeeItem, dueMonth, dueYear int, currentDate generic.TimePoint) LateFeeCalculation {
	dueDate := CalculateDueDate(dueMonth, dueYear, fee.LateFeeGraceDays)
	effective := dueDate.AddDays(1)

	daysOverdue := generic.DaysBetween(effective, currentDate)
	if daysOverdue < 0 {
		daysOverdue = 0
	}

	return LateFeeCalculation{
		ShouldApply:   ShouldApplyLateFee(fee, dueMonth, dueYear, currentDate),
		Amount:        CalculateLateFeeAmount(fee, dueMonth, dueYear, currentDate),
		DaysOverdue:   daysOverdue,
		DueDate:       dueDate,
		EffectiveDate: effective,
	}
}
