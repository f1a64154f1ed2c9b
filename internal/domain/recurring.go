package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the cadence of a recurring definition.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the supported cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// MonthOverride replaces selected fields of a definition for a single
// month's occurrence. Nil fields fall back to the definition's values.
type MonthOverride struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Category *string          `json:"category,omitempty"`
	Name     *string          `json:"name,omitempty"`
}

// RecurringDefinition is a template for a repeating cash-flow event.
// Amount is always positive; Type carries the sign.
//
// LastGeneratedDate, NextDueDate and TotalOccurrences are derived
// scheduling metadata: populated by the migration backfill and kept
// current by the materialization writer. They are advisory and may be
// recomputed at any time.
type RecurringDefinition struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	Category  string          `json:"category"`
	Frequency Frequency       `json:"frequency"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	IsActive  bool            `json:"is_active"`

	// SkippedMonths holds "YYYY-MM" keys for which generation is
	// suppressed. MonthOverrides apply only to months not skipped.
	SkippedMonths  []string                 `json:"skipped_months,omitempty"`
	MonthOverrides map[string]MonthOverride `json:"month_overrides,omitempty"`

	LastGeneratedDate *time.Time `json:"last_generated_date,omitempty"`
	NextDueDate       *time.Time `json:"next_due_date,omitempty"`
	TotalOccurrences  int        `json:"total_occurrences"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMonthSkipped reports whether generation is suppressed for the month.
func (d *RecurringDefinition) IsMonthSkipped(key MonthKey) bool {
	s := key.String()
	for _, m := range d.SkippedMonths {
		if m == s {
			return true
		}
	}
	return false
}

// OverrideFor returns the override for the month, if any.
func (d *RecurringDefinition) OverrideFor(key MonthKey) (MonthOverride, bool) {
	o, ok := d.MonthOverrides[key.String()]
	return o, ok
}

// Validate checks the fields required before any write.
func (d *RecurringDefinition) Validate() error {
	if d.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Reason: "is required"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if !d.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: "must be weekly, biweekly, monthly, quarterly or yearly"}
	}
	if !d.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if d.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if d.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "is required"}
	}
	if d.EndDate != nil && d.EndDate.Before(d.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	return nil
}
