package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

func TestOccurrenceDate_DayClamping(t *testing.T) {
	tests := []struct {
		name     string
		startDay int
		year     int
		month    time.Month
		wantDay  int
	}{
		{"regular day", 15, 2024, time.March, 15},
		{"day 31 in 30-day month", 31, 2024, time.April, 30},
		{"day 31 in 31-day month", 31, 2024, time.May, 31},
		{"day 30 in february leap", 30, 2024, time.February, 29},
		{"day 30 in february non-leap", 30, 2023, time.February, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := monthlyDef(time.Date(2023, 1, tt.startDay, 0, 0, 0, 0, time.UTC))
			got := OccurrenceDate(def, time.Date(tt.year, tt.month, 1, 0, 0, 0, 0, time.UTC))
			want := time.Date(tt.year, tt.month, tt.wantDay, 0, 0, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Errorf("OccurrenceDate = %v, want %v", got, want)
			}
		})
	}
}

func TestOccurrenceDate_WeeklyOffsets(t *testing.T) {
	monthStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	def := monthlyDef(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyWeekly
	if got := OccurrenceDate(def, monthStart); got.Day() != 8 {
		t.Errorf("weekly occurrence day = %d, want 8", got.Day())
	}

	def.Frequency = domain.FrequencyBiweekly
	if got := OccurrenceDate(def, monthStart); got.Day() != 15 {
		t.Errorf("biweekly occurrence day = %d, want 15", got.Day())
	}
}

func TestOccurrenceDate_Yearly(t *testing.T) {
	def := monthlyDef(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))
	def.Frequency = domain.FrequencyYearly

	got := OccurrenceDate(def, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("yearly occurrence = %v, want %v", got, want)
	}
}

func TestResolveOccurrence_Override(t *testing.T) {
	def := monthlyDef(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	override := decimal.NewFromInt(1000)
	def.MonthOverrides = map[string]domain.MonthOverride{
		"2024-03": {Amount: &override},
	}

	march := domain.MonthKey{Year: 2024, Month: time.March}
	occ := ResolveOccurrence(def, march)
	if !occ.Amount.Equal(override) {
		t.Errorf("overridden amount = %s, want 1000", occ.Amount)
	}
	// Unspecified override fields fall back to the definition.
	if occ.Name != def.Name || occ.Category != def.Category {
		t.Errorf("override must not touch name/category: got %q/%q", occ.Name, occ.Category)
	}
	if !occ.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("occurrence date = %v, want 2024-03-15", occ.Date)
	}

	april := domain.MonthKey{Year: 2024, Month: time.April}
	occ = ResolveOccurrence(def, april)
	if !occ.Amount.Equal(def.Amount) {
		t.Errorf("non-overridden month amount = %s, want %s", occ.Amount, def.Amount)
	}
}

func TestNextDueDate(t *testing.T) {
	occ := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		freq domain.Frequency
		want time.Time
	}{
		{domain.FrequencyWeekly, time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC)},
		{domain.FrequencyBiweekly, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)},
		{domain.FrequencyMonthly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{domain.FrequencyQuarterly, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{domain.FrequencyYearly, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := NextDueDate(tt.freq, occ); !got.Equal(tt.want) {
			t.Errorf("NextDueDate(%s) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}
