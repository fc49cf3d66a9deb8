package dues_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func money(s string) generic.Money {
	return generic.MustMoney(s)
}

func moneyPtr(s string) *generic.Money {
	m := money(s)
	return &m
}

func lateFee(freq dues.LateFeeFrequency, amount string, grace int) dues.FeeItem {
	return dues.FeeItem{
		ID:               "tuition",
		Name:             "Tuition",
		Amount:           money("2000"),
		Frequency:        dues.FrequencyMonthly,
		LateFeeEnabled:   true,
		LateFeeFrequency: freq,
		LateFeeAmount:    moneyPtr(amount),
		LateFeeGraceDays: grace,
	}
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func TestCalculateDueDate(t *testing.T) {
	tests := []struct {
		name              string
		month, year, days int
		want              generic.TimePoint
	}{
		{"january no grace", 1, 2024, 0, date(2024, time.January, 31)},
		{"leap february", 2, 2024, 0, date(2024, time.February, 29)},
		{"non-leap february", 2, 2023, 0, date(2023, time.February, 28)},
		{"grace crosses month", 1, 2024, 5, date(2024, time.February, 5)},
		{"december grace crosses year", 12, 2024, 10, date(2025, time.January, 10)},
		{"month 13 rolls over", 13, 2024, 0, date(2025, time.January, 31)},
		{"negative grace moves earlier", 1, 2024, -5, date(2024, time.January, 26)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dues.CalculateDueDate(tt.month, tt.year, tt.days)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCalculateEffectiveDate_IsDayAfterDueDate(t *testing.T) {
	got := dues.CalculateEffectiveDate(1, 2024, 5)
	assert.Equal(t, "2024-02-06", got.String())

	got = dues.CalculateEffectiveDate(2, 2024, 0)
	assert.Equal(t, "2024-03-01", got.String())
}

// =============================================================================
// RULE EVALUATOR
// =============================================================================

func TestShouldApplyLateFee_DisabledNeverApplies(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "10", 0)
	fee.LateFeeEnabled = false

	for _, now := range []generic.TimePoint{
		date(2024, time.January, 15),
		date(2024, time.February, 1),
		date(2030, time.June, 1),
	} {
		assert.False(t, dues.ShouldApplyLateFee(fee, 1, 2024, now), "at %s", now)
		assert.True(t, dues.CalculateLateFeeAmount(fee, 1, 2024, now).IsZero(), "at %s", now)
	}
}

func TestShouldApplyLateFee_BoundaryAtEffectiveDate(t *testing.T) {
	// GIVEN: January fee with 5 grace days (due Feb 5, effective Feb 6)
	fee := lateFee(dues.LateFeeMonthly, "100", 5)

	// THEN: not late through the due date, late from the effective date on
	assert.False(t, dues.ShouldApplyLateFee(fee, 1, 2024, date(2024, time.January, 31)))
	assert.False(t, dues.ShouldApplyLateFee(fee, 1, 2024, date(2024, time.February, 5)))
	assert.True(t, dues.ShouldApplyLateFee(fee, 1, 2024, date(2024, time.February, 6)))
	assert.True(t, dues.ShouldApplyLateFee(fee, 1, 2024, date(2024, time.March, 15)))
}

func TestShouldApplyLateFee_IgnoresTimeOfDay(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "10", 0)

	lateEvening := generic.At(time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC))
	earlyMorning := generic.At(time.Date(2024, time.February, 1, 0, 0, 1, 0, time.UTC))

	assert.False(t, dues.ShouldApplyLateFee(fee, 1, 2024, lateEvening))
	assert.True(t, dues.ShouldApplyLateFee(fee, 1, 2024, earlyMorning))
}

// =============================================================================
// AMOUNT CALCULATOR
// =============================================================================

func TestCalculateLateFeeAmount_Daily(t *testing.T) {
	// GIVEN: 10/day, no grace, fee due end of January
	fee := lateFee(dues.LateFeeDaily, "10", 0)

	// THEN: first day late is charged a full day, Feb 5 is 4 days elapsed
	assert.Equal(t, "10.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 1)).String())
	assert.Equal(t, "10.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 2)).String())
	assert.Equal(t, "40.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 5)).String())
}

func TestCalculateLateFeeAmount_Weekly(t *testing.T) {
	fee := lateFee(dues.LateFeeWeekly, "25", 0)

	tests := []struct {
		now  generic.TimePoint
		want string
	}{
		{date(2024, time.February, 1), "25.00"},  // day 0, minimum one week
		{date(2024, time.February, 7), "25.00"},  // 6 days, still one week
		{date(2024, time.February, 8), "25.00"},  // exactly one week
		{date(2024, time.February, 15), "50.00"}, // two weeks
		{date(2024, time.February, 21), "50.00"}, // 20 days
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dues.CalculateLateFeeAmount(fee, 1, 2024, tt.now).String(), "at %s", tt.now)
	}
}

func TestCalculateLateFeeAmount_Monthly(t *testing.T) {
	// GIVEN: 100/month, 5 grace days, January fee (effective Feb 6)
	fee := lateFee(dues.LateFeeMonthly, "100", 5)

	assert.Equal(t, "0.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 5)).String())
	assert.Equal(t, "100.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 6)).String())
	assert.Equal(t, "100.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.March, 15)).String())
	assert.Equal(t, "100.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.April, 5)).String())
	assert.Equal(t, "200.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.April, 6)).String())
}

func TestCalculateLateFeeAmount_OneTimeIsFlat(t *testing.T) {
	fee := lateFee(dues.LateFeeOneTime, "50", 0)

	assert.Equal(t, "50.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.February, 1)).String())
	assert.Equal(t, "50.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2025, time.February, 1)).String())
}

func TestCalculateLateFeeAmount_UnknownFrequencyFallsBackToOneTime(t *testing.T) {
	fee := lateFee("", "50", 0)
	assert.Equal(t, "50.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.March, 1)).String())

	fee = lateFee("FORTNIGHTLY", "50", 0)
	assert.Equal(t, "50.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.March, 1)).String())
}

func TestCalculateLateFeeAmount_UnsetAmountIsZero(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "10", 0)
	fee.LateFeeAmount = nil

	assert.True(t, dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.March, 1)).IsZero())
}

func TestCalculateLateFeeAmount_NegativeRateClampedToZero(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "-10", 0)
	assert.True(t, dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.March, 1)).IsZero())
}

func TestCalculateLateFeeAmount_NegativeGraceStartsEarlier(t *testing.T) {
	// GIVEN: -5 grace days moves the January due date to Jan 26
	fee := lateFee(dues.LateFeeDaily, "10", -5)

	assert.True(t, dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.January, 26)).IsZero())
	assert.Equal(t, "10.00", dues.CalculateLateFeeAmount(fee, 1, 2024, date(2024, time.January, 27)).String())
}

// =============================================================================
// DISPLAY BUNDLE
// =============================================================================

func TestGetLateFeeCalculation_NotYetOverdue(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "10", 3)

	calc := dues.GetLateFeeCalculation(fee, 1, 2024, date(2024, time.January, 20))

	assert.False(t, calc.ShouldApply)
	assert.True(t, calc.Amount.IsZero())
	assert.Equal(t, 0, calc.DaysOverdue)
	assert.Equal(t, "2024-02-03", calc.DueDate.String())
	assert.Equal(t, "2024-02-04", calc.EffectiveDate.String())
}

func TestGetLateFeeCalculation_Overdue(t *testing.T) {
	fee := lateFee(dues.LateFeeDaily, "10", 0)

	calc := dues.GetLateFeeCalculation(fee, 1, 2024, date(2024, time.February, 5))

	assert.True(t, calc.ShouldApply)
	assert.Equal(t, "40.00", calc.Amount.String())
	assert.Equal(t, 4, calc.DaysOverdue)
	assert.Equal(t, "2024-01-31", calc.DueDate.String())
	assert.Equal(t, "2024-02-01", calc.EffectiveDate.String())
}
