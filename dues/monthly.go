/*
monthly.go - Monthly dues aggregation

PURPOSE:
  Walks every calendar month from a student's admission to "now" and emits
  one MonthlyDue per month that has anything to show: an amount due, a
  payment, or a late fee.

WINDOW:
  Admission month through the later of {now, latest payment date}. A
  payment dated in the future extends the window so it is never hidden.
  Late fees are still evaluated against now, never the extended end.

BILLING WINDOWS PER FREQUENCY (i = months since admission):
  ONE_TIME    i == 0            payments in that month
  MONTHLY     every month       payments in that month
  QUARTERLY   i % 3 == 0        payments in the 3 months from that month
  ANNUALLY    month == January  payments in that calendar year

ORDER OF OPERATIONS PER FEE LINE:
  1. Waiver applied to the nominal amount -> DueAmount
  2. Payments in the billing window summed -> PaidAmount
  3. Late fee evaluated from the fee's configuration when the line is
     still short (PaidAmount < DueAmount); the waiver never scales it.

SEE ALSO:
  - latefee.go: Late-fee evaluation
  - generic/period.go: Month, quarter and year periods
*/
package dues

import (
	"time"

	"github.com/warp/dues-engine/generic"
)

// CalculateMonthlyDues returns the student's dues oldest month first. It is
// a pure function of its arguments.
func CalculateMonthlyDues(student Student, structure FeeStructure, now generic.TimePoint) []MonthlyDue {
	if student.AdmissionDate.IsZero() {
		return nil
	}

	end := generic.Max(now, generic.LatestPayment(student.PaidFees))
	span := generic.Period{Start: student.AdmissionDate, End: end}

	var result []MonthlyDue
	for i, month := range span.Months() {
		md := MonthlyDue{
			Month:        month,
			TotalDue:     generic.Zero(),
			TotalPaid:    generic.Zero(),
			TotalLateFee: generic.Zero(),
		}

		for _, fee := range structure.Fees {
			window, billed := BillingWindow(fee.Frequency, month, i)
			if !billed {
				continue
			}

			line := FeeDue{
				FeeItemID:     fee.ID,
				FeeName:       fee.Name,
				Frequency:     fee.Frequency,
				Amount:        fee.Amount,
				Waiver:        fee.WaiverAmount(),
				DueAmount:     fee.DueAmount(),
				PaidAmount:    generic.SumPayments(student.PaidFees, fee.ID, window),
				LateFeeAmount: generic.Zero(),
			}
			if line.PaidAmount.LessThan(line.DueAmount) {
				line.LateFeeAmount = CalculateLateFeeAmount(fee, int(month.Month()), month.Year(), now)
			}
			if line.isEmpty() {
				continue
			}

			md.Dues = append(md.Dues, line)
			md.TotalDue = md.TotalDue.Add(line.DueAmount)
			md.TotalPaid = md.TotalPaid.Add(line.PaidAmount)
			md.TotalLateFee = md.TotalLateFee.Add(line.LateFeeAmount)
		}

		if len(md.Dues) == 0 {
			continue
		}
		result = append(result, md)
	}
	return result
}

// BillingWindow reports whether a fee of the given frequency is billed in
// month (the index-th month since admission) and, if so, the period whose
// payments count toward it.
func BillingWindow(freq Frequency, month generic.TimePoint, index int) (generic.Period, bool) {
	switch freq {
	case FrequencyOneTime:
		return generic.MonthSpan(month, 1), index == 0
	case FrequencyMonthly:
		return generic.MonthSpan(month, 1), true
	case FrequencyQuarterly:
		return generic.MonthSpan(month, 3), index%3 == 0
	case FrequencyAnnually:
		return generic.YearPeriod(month.Year()), month.Month() == time.January
	default:
		return generic.Period{}, false
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary folds a dues list into totals.
type Summary struct {
	AsOf         generic.TimePoint
	Months       int
	TotalDue     generic.Money
	TotalPaid    generic.Money
	TotalLateFee generic.Money
	Outstanding  generic.Money // max(0, due + late fee - paid)
}

// IsOverdue reports whether anything is owed and a late fee has accrued.
func (s Summary) IsOverdue() bool {
	return s.Outstanding.IsPositive() && s.TotalLateFee.IsPositive()
}

func Summarize(dues []MonthlyDue, asOf generic.TimePoint) Summary {
	s := Summary{
		AsOf:         asOf,
		Months:       len(dues),
		TotalDue:     generic.Zero(),
		TotalPaid:    generic.Zero(),
		TotalLateFee: generic.Zero(),
	}
	for _, md := range dues {
		s.TotalDue = s.TotalDue.Add(md.TotalDue)
		s.TotalPaid = s.TotalPaid.Add(md.TotalPaid)
		s.TotalLateFee = s.TotalLateFee.Add(md.TotalLateFee)
	}
	s.Outstanding = s.TotalDue.Add(s.TotalLateFee).Sub(s.TotalPaid).NonNegative()
	return s
}
