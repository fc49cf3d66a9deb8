package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - Calendar day abstraction (billing is day-granular)
// =============================================================================

// TimePoint is a calendar day in UTC. Fee due dates, payment dates and the
// evaluation date are all compared at day granularity, so 23:59 on the due
// date is still "on time" and 00:00 the next day is not.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// At truncates an arbitrary instant to its calendar day. The calendar day is
// taken in the instant's own location before converting to UTC.
func At(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return At(time.Now())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return At(t), nil
}

const DateLayout = "2006-01-02"

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.day().Before(other.day()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.day().Equal(other.day()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.day().After(other.day()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) day() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.day().AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.day().AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(DateLayout) }

// Max returns the later of two time points.
func Max(a, b TimePoint) TimePoint {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns whole days from -> to. Negative when to is earlier.
func DaysBetween(from, to TimePoint) int {
	return int(to.day().Sub(from.day()).Hours() / 24)
}

// WeeksBetween returns whole weeks from -> to, truncated toward zero.
func WeeksBetween(from, to TimePoint) int {
	return DaysBetween(from, to) / 7
}

// MonthsBetween returns whole calendar months from -> to. A month only counts
// once the day-of-month has been reached again, so Feb 6 -> Mar 5 is 0 and
// Feb 6 -> Mar 6 is 1. Truncated toward zero when to is earlier.
func MonthsBetween(from, to TimePoint) int {
	if to.Before(from) {
		return -MonthsBetween(to, from)
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() < from.Day() && !isLastDayOfMonth(to) {
		months--
	}
	return months
}

func isLastDayOfMonth(tp TimePoint) bool {
	return tp.AddDays(1).Month() != tp.Month()
}

func StartOfYear(year int) TimePoint                    { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint                      { return NewTimePoint(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

// EndOfMonth returns the last calendar day of the month. Out-of-range months
// roll over the way time.Date does (month 13 is January of the next year).
func EndOfMonth(year int, month time.Month) TimePoint {
	return TimePoint{Time: time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)}
}
