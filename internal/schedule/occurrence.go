package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

// Occurrence is the resolved concrete instance of a definition for one
// month, with any month override already applied.
type Occurrence struct {
	Date     time.Time
	Amount   decimal.Decimal
	Category string
	Name     string
}

// OccurrenceDate computes the date of the definition's occurrence in
// the month starting at monthStart.
//
// Monthly, quarterly and yearly occurrences keep the start date's
// calendar day, clamped to the last valid day of the target month (a
// day-31 start lands on day 30 in a 30-day month).
func OccurrenceDate(def *domain.RecurringDefinition, monthStart time.Time) time.Time {
	switch def.Frequency {
	case domain.FrequencyWeekly:
		return monthStart.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return monthStart.AddDate(0, 0, 14)
	case domain.FrequencyYearly:
		day := clampDay(def.StartDate.Day(), monthStart.Year(), def.StartDate.Month())
		return time.Date(monthStart.Year(), def.StartDate.Month(), day, 0, 0, 0, 0, time.UTC)
	default: // monthly, quarterly
		day := clampDay(def.StartDate.Day(), monthStart.Year(), monthStart.Month())
		return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, time.UTC)
	}
}

// ResolveOccurrence computes the occurrence for the month, applying the
// month override (if any) on top of the definition's defaults.
func ResolveOccurrence(def *domain.RecurringDefinition, month domain.MonthKey) Occurrence {
	occ := Occurrence{
		Date:     OccurrenceDate(def, month.Start()),
		Amount:   def.Amount,
		Category: def.Category,
		Name:     def.Name,
	}
	if o, ok := def.OverrideFor(month); ok {
		if o.Amount != nil {
			occ.Amount = *o.Amount
		}
		if o.Category != nil {
			occ.Category = *o.Category
		}
		if o.Name != nil {
			occ.Name = *o.Name
		}
	}
	return occ
}

// NextDueDate returns the start of the next period after the given
// occurrence date.
func NextDueDate(freq domain.Frequency, occurrence time.Time) time.Time {
	switch freq {
	case domain.FrequencyWeekly:
		return occurrence.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return occurrence.AddDate(0, 0, 14)
	case domain.FrequencyQuarterly:
		return addMonthsClamped(occurrence, 3)
	case domain.FrequencyYearly:
		return addMonthsClamped(occurrence, 12)
	default: // monthly
		return addMonthsClamped(occurrence, 1)
	}
}

// addMonthsClamped advances by whole months keeping the calendar day,
// clamped to the target month's length. AddDate alone would normalize
// Jan 31 + 1 month into Mar 2/3.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	m += time.Month(months)
	for m > 12 {
		m -= 12
		y++
	}
	return time.Date(y, m, clampDay(d, y, m), 0, 0, 0, 0, time.UTC)
}

// clampDay limits day to the number of days in the given month.
func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
