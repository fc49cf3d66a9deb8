package generic_test

import (
	"testing"
	"time"

	"github.com/warp/dues-engine/generic"
)

func d(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

// =============================================================================
// CALENDAR ARITHMETIC
// =============================================================================

func TestEndOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  string
	}{
		{2024, time.January, "2024-01-31"},
		{2024, time.February, "2024-02-29"},
		{2023, time.February, "2023-02-28"},
		{2024, time.April, "2024-04-30"},
		{2024, time.December, "2024-12-31"},
		{2024, 13, "2025-01-31"},
	}
	for _, tt := range tests {
		if got := generic.EndOfMonth(tt.year, tt.month).String(); got != tt.want {
			t.Errorf("EndOfMonth(%d, %d) = %s, want %s", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to generic.TimePoint
		want     int
	}{
		{"same day", d(2024, 2, 6), d(2024, 2, 6), 0},
		{"day before anniversary", d(2024, 2, 6), d(2024, 3, 5), 0},
		{"anniversary", d(2024, 2, 6), d(2024, 3, 6), 1},
		{"short month end counts", d(2024, 1, 31), d(2024, 2, 29), 1},
		{"across year", d(2023, 11, 15), d(2024, 2, 15), 3},
		{"backwards", d(2024, 3, 6), d(2024, 2, 6), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generic.MonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDaysAndWeeksBetween(t *testing.T) {
	from := d(2024, 2, 1)

	if got := generic.DaysBetween(from, d(2024, 3, 1)); got != 29 {
		t.Errorf("expected 29 days in leap February, got %d", got)
	}
	if got := generic.DaysBetween(from, d(2024, 1, 30)); got != -2 {
		t.Errorf("expected -2 days, got %d", got)
	}
	if got := generic.WeeksBetween(from, d(2024, 2, 14)); got != 1 {
		t.Errorf("expected 1 whole week after 13 days, got %d", got)
	}
}

func TestTimePoint_DayGranularity(t *testing.T) {
	morning := generic.At(time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC))
	evening := generic.TimePoint{Time: time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC)}

	if !morning.Equal(evening) {
		t.Error("expected times on the same day to compare equal")
	}
	if morning.Before(evening) || morning.After(evening) {
		t.Error("expected no ordering between times on the same day")
	}
	if got := evening.AddDays(1).String(); got != "2024-05-11" {
		t.Errorf("expected 2024-05-11, got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := generic.ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d(2024, 2, 29)) {
		t.Errorf("expected 2024-02-29, got %s", got)
	}

	if _, err := generic.ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for invalid calendar date")
	}
	if _, err := generic.ParseDate("29/02/2024"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

// =============================================================================
// PERIODS
// =============================================================================

func TestMonthSpan(t *testing.T) {
	q := generic.MonthSpan(d(2024, 11, 15), 3)
	if q.String() != "[2024-11-01, 2025-01-31]" {
		t.Errorf("unexpected quarter span %s", q)
	}
	if !q.Contains(d(2024, 12, 31)) || q.Contains(d(2025, 2, 1)) {
		t.Errorf("unexpected containment for %s", q)
	}
}

func TestPeriodMonths(t *testing.T) {
	p := generic.Period{Start: d(2023, 11, 20), End: d(2024, 2, 3)}

	months := p.Months()
	want := []string{"2023-11-01", "2023-12-01", "2024-01-01", "2024-02-01"}
	if len(months) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(months))
	}
	for i := range want {
		if months[i].String() != want[i] {
			t.Errorf("month %d: expected %s, got %s", i, want[i], months[i])
		}
	}

	inverted := generic.Period{Start: d(2024, 3, 1), End: d(2024, 1, 1)}
	if got := inverted.Months(); got != nil {
		t.Errorf("expected no months for inverted period, got %v", got)
	}
}

// =============================================================================
// ACCRUAL
// =============================================================================

func TestAccrualRate_Accrue(t *testing.T) {
	start := d(2024, 2, 1)
	ten := generic.NewMoney(10)

	tests := []struct {
		name string
		rate generic.AccrualRate
		asOf generic.TimePoint
		want string
	}{
		{"before start", generic.AccrualRate{Amount: ten, Per: generic.CadenceDaily}, d(2024, 1, 31), "0.00"},
		{"first day is one unit", generic.AccrualRate{Amount: ten, Per: generic.CadenceDaily}, start, "10.00"},
		{"daily", generic.AccrualRate{Amount: ten, Per: generic.CadenceDaily}, d(2024, 2, 11), "100.00"},
		{"weekly truncates", generic.AccrualRate{Amount: ten, Per: generic.CadenceWeekly}, d(2024, 2, 20), "20.00"},
		{"monthly", generic.AccrualRate{Amount: ten, Per: generic.CadenceMonthly}, d(2024, 5, 1), "30.00"},
		{"once", generic.AccrualRate{Amount: ten, Per: generic.CadenceOnce}, d(2025, 5, 1), "10.00"},
		{"unknown cadence is once", generic.AccrualRate{Amount: ten, Per: "fortnight"}, d(2025, 5, 1), "10.00"},
		{"negative clamps", generic.AccrualRate{Amount: generic.NewMoney(-5), Per: generic.CadenceDaily}, d(2024, 2, 3), "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.Accrue(start, tt.asOf).String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// =============================================================================
// MONEY
// =============================================================================

func TestMoney_JSON(t *testing.T) {
	var m generic.Money
	if err := m.UnmarshalJSON([]byte(`"12.50"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.String() != "12.50" {
		t.Errorf("expected 12.50, got %s", m)
	}

	if err := m.UnmarshalJSON([]byte(`7.1`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"7.10"` {
		t.Errorf("expected \"7.10\", got %s", out)
	}
}

func TestMoney_Percent(t *testing.T) {
	got := generic.NewMoney(1999).Percent(generic.MustMoney("12.5"))
	if got.String() != "249.88" {
		t.Errorf("expected 249.88, got %s", got)
	}
}
