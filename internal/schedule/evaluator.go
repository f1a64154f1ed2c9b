// Package schedule holds the pure temporal logic of the engine: whether
// a recurring definition occurs in a month, and what the concrete
// occurrence looks like. It performs no I/O; the projection and
// materialization callers layer persistence on top.
package schedule

import (
	"time"

	"github.com/vkopylov/finplan/internal/domain"
)

// OccursInMonth reports whether the definition produces an occurrence
// inside the half-open month window [monthStart, monthEnd).
//
// Weekly and biweekly cadences are evaluated at month granularity: a
// started series is treated as touching every month (biweekly only
// months an even number of whole weeks from the start). This guarantees
// at least one occurrence per month rather than exact weekly cadence
// and matches the historical behavior relied on downstream.
func OccursInMonth(def *domain.RecurringDefinition, monthStart, monthEnd time.Time) bool {
	if def.StartDate.After(monthEnd) {
		return false
	}
	if def.EndDate != nil && def.EndDate.Before(monthStart) {
		return false
	}
	key := domain.MonthKeyFor(monthStart)
	if def.IsMonthSkipped(key) {
		return false
	}

	switch def.Frequency {
	case domain.FrequencyWeekly:
		return !monthStart.Before(def.StartDate)
	case domain.FrequencyBiweekly:
		if monthStart.Before(def.StartDate) {
			return false
		}
		weeks := int(monthStart.Sub(def.StartDate).Hours() / (24 * 7))
		return weeks%2 == 0
	case domain.FrequencyMonthly:
		return monthDiff(def.StartDate, monthStart) >= 0
	case domain.FrequencyQuarterly:
		diff := monthDiff(def.StartDate, monthStart)
		return diff >= 0 && diff%3 == 0
	case domain.FrequencyYearly:
		return monthStart.Year() >= def.StartDate.Year()
	}
	return false
}

// monthDiff returns the integer month distance from the month of a to
// the month of b.
func monthDiff(a, b time.Time) int {
	return domain.MonthKeyFor(b).Index() - domain.MonthKeyFor(a).Index()
}
