package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

func monthlyDef(start time.Time) *domain.RecurringDefinition {
	return &domain.RecurringDefinition{
		ID:        "def-1",
		OwnerID:   "user-1",
		Name:      "Rent",
		Amount:    decimal.NewFromInt(1200),
		Type:      domain.TypeExpense,
		Category:  "Housing",
		Frequency: domain.FrequencyMonthly,
		StartDate: start,
		IsActive:  true,
	}
}

func monthWindow(year int, month time.Month) (time.Time, time.Time) {
	key := domain.MonthKey{Year: year, Month: month}
	return key.Start(), key.End()
}

func TestOccursInMonth_Monthly(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	def := monthlyDef(start)

	tests := []struct {
		name  string
		year  int
		month time.Month
		want  bool
	}{
		{"month before start", 2023, time.December, false},
		{"start month", 2024, time.January, true},
		{"month after start", 2024, time.February, true},
		{"a year later", 2025, time.January, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, me := monthWindow(tt.year, tt.month)
			if got := OccursInMonth(def, ms, me); got != tt.want {
				t.Errorf("OccursInMonth(%d-%02d) = %v, want %v", tt.year, tt.month, got, tt.want)
			}
		})
	}
}

// Monthly definitions occur in every month at or after the start month
// and in no month before it.
func TestOccursInMonth_MonotonicStart(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	def := monthlyDef(start)
	startIndex := domain.MonthKeyFor(start).Index()

	key := domain.MonthKey{Year: 2023, Month: time.January}
	for i := 0; i < 36; i++ {
		want := key.Index() >= startIndex
		if got := OccursInMonth(def, key.Start(), key.End()); got != want {
			t.Errorf("OccursInMonth(%s) = %v, want %v", key, got, want)
		}
		key = key.Next()
	}
}

func TestOccursInMonth_EndDate(t *testing.T) {
	def := monthlyDef(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	end := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	def.EndDate = &end

	ms, me := monthWindow(2024, time.March)
	if !OccursInMonth(def, ms, me) {
		t.Error("expected occurrence in the month containing the end date")
	}

	ms, me = monthWindow(2024, time.April)
	if OccursInMonth(def, ms, me) {
		t.Error("expected no occurrence after the end date")
	}
}

// Skipping a month suppresses exactly that month and leaves all other
// months unaffected.
func TestOccursInMonth_SkippedMonths(t *testing.T) {
	def := monthlyDef(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	def.SkippedMonths = []string{"2024-03"}

	key := domain.MonthKey{Year: 2024, Month: time.January}
	for i := 0; i < 12; i++ {
		want := key.String() != "2024-03"
		if got := OccursInMonth(def, key.Start(), key.End()); got != want {
			t.Errorf("OccursInMonth(%s) = %v, want %v", key, got, want)
		}
		key = key.Next()
	}
}

func TestOccursInMonth_Quarterly(t *testing.T) {
	def := monthlyDef(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyQuarterly

	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.January, true},
		{time.February, false},
		{time.March, false},
		{time.April, true},
		{time.July, true},
		{time.October, true},
		{time.December, false},
	}

	for _, tt := range tests {
		ms, me := monthWindow(2024, tt.month)
		if got := OccursInMonth(def, ms, me); got != tt.want {
			t.Errorf("quarterly OccursInMonth(2024-%02d) = %v, want %v", tt.month, got, tt.want)
		}
	}
}

func TestOccursInMonth_Yearly(t *testing.T) {
	def := monthlyDef(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyYearly

	ms, me := monthWindow(2023, time.May)
	if OccursInMonth(def, ms, me) {
		t.Error("expected no occurrence before the start year")
	}
	ms, me = monthWindow(2025, time.May)
	if !OccursInMonth(def, ms, me) {
		t.Error("expected occurrence in a later year")
	}
}

func TestOccursInMonth_Weekly(t *testing.T) {
	def := monthlyDef(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyWeekly

	ms, me := monthWindow(2023, time.December)
	if OccursInMonth(def, ms, me) {
		t.Error("expected no occurrence before the series starts")
	}
	ms, me = monthWindow(2024, time.March)
	if !OccursInMonth(def, ms, me) {
		t.Error("expected a started weekly series to touch every month")
	}
}

func TestOccursInMonth_BiweeklyCadence(t *testing.T) {
	// Jan 1 2024 to Feb 1 2024 is 31 days = 4 whole weeks (even).
	// Jan 1 2024 to Mar 1 2024 is 60 days = 8 whole weeks (even).
	// Jan 1 2024 to Apr 1 2024 is 91 days = 13 whole weeks (odd).
	def := monthlyDef(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyBiweekly

	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.January, true},
		{time.February, true},
		{time.March, true},
		{time.April, false},
	}

	for _, tt := range tests {
		ms, me := monthWindow(2024, tt.month)
		if got := OccursInMonth(def, ms, me); got != tt.want {
			t.Errorf("biweekly OccursInMonth(2024-%02d) = %v, want %v", tt.month, got, tt.want)
		}
	}
}
