package generic

// =============================================================================
// ACCRUAL RATE - How a charge grows once it starts accruing
// =============================================================================

// AccrualCadence is the unit a charge accrues per.
type AccrualCadence string

const (
	CadenceOnce    AccrualCadence = "once"
	CadenceDaily   AccrualCadence = "day"
	CadenceWeekly  AccrualCadence = "week"
	CadenceMonthly AccrualCadence = "month"
)

// ElapsedUnits returns whole cadence units from -> to. CadenceOnce (and any
// unknown cadence) always reports a single unit.
func (c AccrualCadence) ElapsedUnits(from, to TimePoint) int {
	switch c {
	case CadenceDaily:
		return DaysBetween(from, to)
	case CadenceWeekly:
		return WeeksBetween(from, to)
	case CadenceMonthly:
		return MonthsBetween(from, to)
	default:
		return 1
	}
}

// AccrualRate charges Amount per cadence unit.
type AccrualRate struct {
	Amount Money
	Per    AccrualCadence
}

// Accrue returns the amount accrued between start (the first chargeable day)
// and asOf. Nothing accrues before start. Once started, at least one full
// unit is charged: there is no proration inside a unit.
func (r AccrualRate) Accrue(start, asOf TimePoint) Money {
	if asOf.Before(start) {
		return Zero()
	}
	units := r.Per.ElapsedUnits(start, asOf)
	if units < 1 {
		units = 1
	}
	return r.Amount.MulInt(units).NonNegative()
}

