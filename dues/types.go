/*
types.go - Fee configuration and derived dues types

PURPOSE:
  Defines the school-fee domain on top of the generic primitives:
  fee items and their frequencies, late-fee configuration, waivers,
  students, and the derived MonthlyDue records.

FEE FREQUENCIES:
  ONE_TIME   charged once, in the admission month
  MONTHLY    charged every month
  QUARTERLY  charged every third month counted from admission
  ANNUALLY   charged every January

LATE-FEE FREQUENCIES:
  ONE_TIME   flat charge once overdue
  DAILY      per day overdue (minimum one)
  WEEKLY     per whole week overdue (minimum one)
  MONTHLY    per whole month overdue (minimum one)
  An empty or unknown value behaves as ONE_TIME.

DERIVED, NEVER STORED:
  MonthlyDue is recomputed from FeeStructure + payments + "now" on every
  query. Nothing in this package persists state.

SEE ALSO:
  - calendar.go: Due and effective dates
  - latefee.go: Late-fee rule and amount
  - monthly.go: Monthly aggregation
*/
package dues

import (
	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// ENUMS
// =============================================================================

type Frequency string

const (
	FrequencyOneTime   Frequency = "ONE_TIME"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyAnnually  Frequency = "ANNUALLY"
)

type LateFeeFrequency string

const (
	LateFeeOneTime LateFeeFrequency = "ONE_TIME"
	LateFeeDaily   LateFeeFrequency = "DAILY"
	LateFeeWeekly  LateFeeFrequency = "WEEKLY"
	LateFeeMonthly LateFeeFrequency = "MONTHLY"
)

// Cadence maps the late-fee frequency to an accrual cadence. Unknown or
// empty frequencies fall back to a flat one-time charge.
func (f LateFeeFrequency) Cadence() generic.AccrualCadence {
	switch f {
	case LateFeeDaily:
		return generic.CadenceDaily
	case LateFeeWeekly:
		return generic.CadenceWeekly
	case LateFeeMonthly:
		return generic.CadenceMonthly
	default:
		return generic.CadenceOnce
	}
}

type WaiverType string

const (
	WaiverNone       WaiverType = ""
	WaiverPercentage WaiverType = "PERCENTAGE"
	WaiverFixed      WaiverType = "FIXED"
)

// =============================================================================
// FEE ITEM - Configured charge template
// =============================================================================

type FeeItem struct {
	ID        generic.FeeItemID
	Name      string
	Amount    generic.Money
	Frequency Frequency

	LateFeeEnabled   bool
	LateFeeFrequency LateFeeFrequency
	LateFeeAmount    *generic.Money // nil = unset
	LateFeeGraceDays int

	WaiverType  WaiverType
	WaiverValue generic.Money
}

// WaiverAmount is the discount taken off Amount. A percentage waiver is
// Amount × value / 100; a fixed waiver is value as-is.
func (f FeeItem) WaiverAmount() generic.Money {
	switch f.WaiverType {
	case WaiverPercentage:
		return f.Amount.Percent(f.WaiverValue)
	case WaiverFixed:
		return f.WaiverValue
	default:
		return generic.Zero()
	}
}

// DueAmount is max(0, Amount - WaiverAmount).
func (f FeeItem) DueAmount() generic.Money {
	return f.Amount.Sub(f.WaiverAmount()).NonNegative()
}

// LateFeeRate returns the configured accrual rate, or false when the late
// fee is disabled or has no amount.
func (f FeeItem) LateFeeRate() (generic.AccrualRate, bool) {
	if !f.LateFeeEnabled || f.LateFeeAmount == nil {
		return generic.AccrualRate{}, false
	}
	return generic.AccrualRate{Amount: *f.LateFeeAmount, Per: f.LateFeeFrequency.Cadence()}, true
}

// FeeStructure is the set of fees a student is billed under.
type FeeStructure struct {
	ID       string
	TenantID generic.TenantID
	Name     string
	Fees     []FeeItem
}

// Student is the billed subject with the payments recorded against them.
type Student struct {
	ID             generic.StudentID
	TenantID       generic.TenantID
	Name           string
	GuardianEmail  string
	AdmissionDate  generic.TimePoint
	FeeStructureID string
	PaidFees       []generic.Payment
}

// =============================================================================
// DERIVED TYPES
// =============================================================================

// FeeDue is one fee's line inside a MonthlyDue.
type FeeDue struct {
	FeeItemID     generic.FeeItemID
	FeeName       string
	Frequency     Frequency
	Amount        generic.Money
	Waiver        generic.Money
	DueAmount     generic.Money
	PaidAmount    generic.Money
	LateFeeAmount generic.Money
}

// Outstanding is what is still owed on this line, late fee included.
func (d FeeDue) Outstanding() generic.Money {
	return d.DueAmount.Add(d.LateFeeAmount).Sub(d.PaidAmount).NonNegative()
}

func (d FeeDue) isEmpty() bool {
	return d.DueAmount.IsZero() && d.PaidAmount.IsZero() && d.LateFeeAmount.IsZero()
}

// MonthlyDue aggregates a month's fee lines.
type MonthlyDue struct {
	Month        generic.TimePoint // first day of the month
	Dues         []FeeDue
	TotalDue     generic.Money
	TotalPaid    generic.Money
	TotalLateFee generic.Money
}

// LateFeeCalculation bundles the late-fee evaluation for display.
type LateFeeCalculation struct {
	ShouldApply   bool
	Amount        generic.Money
	DaysOverdue   int
	DueDate       generic.TimePoint
	EffectiveDate generic.TimePoint
}
