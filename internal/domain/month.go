package domain

import (
	"fmt"
	"time"
)

// MonthKey identifies one calendar month. Its string form is "YYYY-MM",
// the key format used by SkippedMonths and MonthOverrides.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyFor returns the MonthKey of the month containing t (in UTC).
func MonthKeyFor(t time.Time) MonthKey {
	u := t.UTC()
	return MonthKey{Year: u.Year(), Month: u.Month()}
}

// ParseMonthKey parses a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("ParseMonthKey: invalid month key %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// String returns the "YYYY-MM" form.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Start returns the first instant of the month (UTC).
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month, so the month
// window is the half-open interval [Start, End).
func (k MonthKey) End() time.Time {
	return k.Start().AddDate(0, 1, 0)
}

// Epoch returns the Unix timestamp of the month start. Used to build
// deterministic synthetic ids for projected transactions.
func (k MonthKey) Epoch() int64 {
	return k.Start().Unix()
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	return MonthKeyFor(k.End())
}

// After reports whether k is strictly after other.
func (k MonthKey) After(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year > other.Year
	}
	return k.Month > other.Month
}

// Index returns the month counted from year zero. The difference of two
// indexes is the integer month distance used by the schedule evaluator.
func (k MonthKey) Index() int {
	return k.Year*12 + int(k.Month)
}

// Contains reports whether t falls inside the month window.
func (k MonthKey) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(k.Start()) && u.Before(k.End())
}
