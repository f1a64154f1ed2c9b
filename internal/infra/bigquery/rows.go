// Package bigquery implements the store repositories on BigQuery. One
// table per collection; money columns are NUMERIC and travel as
// *big.Rat on the wire.
package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

// numericScale is the decimal precision restored when converting a
// NUMERIC column back into a decimal.Decimal.
const numericScale = 9

type RecurringDefinitionRow struct {
	DefinitionID string `bigquery:"definition_id"` // REQUIRED
	OwnerID      string `bigquery:"owner_id"`      // REQUIRED

	Name      string   `bigquery:"name"`      // REQUIRED
	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC
	Type      string   `bigquery:"type"`      // REQUIRED
	Category  string   `bigquery:"category"`  // NULLABLE
	Frequency string   `bigquery:"frequency"` // REQUIRED

	StartDate civil.Date        `bigquery:"start_date"` // REQUIRED
	EndDate   bigquery.NullDate `bigquery:"end_date"`   // NULLABLE
	IsActive  bool              `bigquery:"is_active"`

	SkippedMonths  []string            `bigquery:"skipped_months"`  // REPEATED STRING
	MonthOverrides bigquery.NullString `bigquery:"month_overrides"` // NULLABLE, JSON text

	LastGeneratedDate bigquery.NullDate `bigquery:"last_generated_date"` // NULLABLE
	NextDueDate       bigquery.NullDate `bigquery:"next_due_date"`       // NULLABLE
	TotalOccurrences  int64             `bigquery:"total_occurrences"`

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	OwnerID       string `bigquery:"owner_id"`       // REQUIRED

	Amount      *big.Rat   `bigquery:"amount"` // REQUIRED NUMERIC
	Type        string     `bigquery:"type"`   // REQUIRED
	Category    string     `bigquery:"category"`
	Description string     `bigquery:"description"`
	Date        civil.Date `bigquery:"transaction_date"` // REQUIRED

	RecurringDefinitionID bigquery.NullString `bigquery:"recurring_definition_id"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

type BudgetSettingsRow struct {
	SettingsID           string    `bigquery:"settings_id"` // REQUIRED
	OwnerID              string    `bigquery:"owner_id"`    // REQUIRED
	SavingsPercentage    *big.Rat  `bigquery:"savings_percentage"`
	DebtPayoffPercentage *big.Rat  `bigquery:"debt_payoff_percentage"`
	UpdatedTS            time.Time `bigquery:"updated_ts"`
}

type GoalRow struct {
	GoalID              string   `bigquery:"goal_id"` // REQUIRED
	OwnerID             string   `bigquery:"owner_id"`
	Name                string   `bigquery:"name"`
	TargetAmount        *big.Rat `bigquery:"target_amount"`
	CurrentAmount       *big.Rat `bigquery:"current_amount"`
	MonthlyContribution *big.Rat `bigquery:"monthly_contribution"`
}

type AssetRow struct {
	AssetID   string   `bigquery:"asset_id"` // REQUIRED
	OwnerID   string   `bigquery:"owner_id"`
	Name      string   `bigquery:"name"`
	AssetType string   `bigquery:"asset_type"`
	Balance   *big.Rat `bigquery:"balance"`
}

type DebtRow struct {
	DebtID         string   `bigquery:"debt_id"` // REQUIRED
	OwnerID        string   `bigquery:"owner_id"`
	Name           string   `bigquery:"name"`
	Balance        *big.Rat `bigquery:"balance"`
	InterestRate   *big.Rat `bigquery:"interest_rate"`
	MonthlyPayment *big.Rat `bigquery:"monthly_payment"`
}

type NetWorthRow struct {
	OwnerID     string    `bigquery:"owner_id"` // REQUIRED, one row per owner
	Assets      *big.Rat  `bigquery:"assets"`
	Liabilities *big.Rat  `bigquery:"liabilities"`
	NetWorth    *big.Rat  `bigquery:"net_worth"`
	ComputedTS  time.Time `bigquery:"computed_ts"`
}

func ratOf(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalOf(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, numericScale)
}

func dateOf(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

func nullDateOf(t *time.Time) bigquery.NullDate {
	if t == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: civil.DateOf(t.UTC()), Valid: true}
}

func timeOf(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func timePtrOf(d bigquery.NullDate) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Date.In(time.UTC)
	return &t
}

// RowFromDefinition maps a domain definition onto its table row.
// MonthOverrides are stored as a JSON text column so the schema does
// not change when override fields do.
func RowFromDefinition(def *domain.RecurringDefinition) (*RecurringDefinitionRow, error) {
	row := &RecurringDefinitionRow{
		DefinitionID:      def.ID,
		OwnerID:           def.OwnerID,
		Name:              def.Name,
		Amount:            ratOf(def.Amount),
		Type:              string(def.Type),
		Category:          def.Category,
		Frequency:         string(def.Frequency),
		StartDate:         dateOf(def.StartDate),
		EndDate:           nullDateOf(def.EndDate),
		IsActive:          def.IsActive,
		SkippedMonths:     def.SkippedMonths,
		LastGeneratedDate: nullDateOf(def.LastGeneratedDate),
		NextDueDate:       nullDateOf(def.NextDueDate),
		TotalOccurrences:  int64(def.TotalOccurrences),
		CreatedTS:         def.CreatedAt,
		UpdatedTS:         def.UpdatedAt,
	}

	if len(def.MonthOverrides) > 0 {
		raw, err := json.Marshal(def.MonthOverrides)
		if err != nil {
			return nil, fmt.Errorf("RowFromDefinition: encoding overrides: %w", err)
		}
		row.MonthOverrides = bigquery.NullString{StringVal: string(raw), Valid: true}
	}
	return row, nil
}

// Definition maps the row back into the domain type.
func (r *RecurringDefinitionRow) Definition() (*domain.RecurringDefinition, error) {
	def := &domain.RecurringDefinition{
		ID:                r.DefinitionID,
		OwnerID:           r.OwnerID,
		Name:              r.Name,
		Amount:            decimalOf(r.Amount),
		Type:              domain.TransactionType(r.Type),
		Category:          r.Category,
		Frequency:         domain.Frequency(r.Frequency),
		StartDate:         timeOf(r.StartDate),
		EndDate:           timePtrOf(r.EndDate),
		IsActive:          r.IsActive,
		SkippedMonths:     r.SkippedMonths,
		LastGeneratedDate: timePtrOf(r.LastGeneratedDate),
		NextDueDate:       timePtrOf(r.NextDueDate),
		TotalOccurrences:  int(r.TotalOccurrences),
		CreatedAt:         r.CreatedTS,
		UpdatedAt:         r.UpdatedTS,
	}

	if r.MonthOverrides.Valid && r.MonthOverrides.StringVal != "" {
		overrides := map[string]domain.MonthOverride{}
		if err := json.Unmarshal([]byte(r.MonthOverrides.StringVal), &overrides); err != nil {
			return nil, fmt.Errorf("Definition: decoding overrides for %s: %w", r.DefinitionID, err)
		}
		def.MonthOverrides = overrides
	}
	return def, nil
}

// RowFromTransaction maps a domain transaction onto its table row.
func RowFromTransaction(tx *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: tx.ID,
		OwnerID:       tx.OwnerID,
		Amount:        ratOf(tx.Amount),
		Type:          string(tx.Type),
		Category:      tx.Category,
		Description:   tx.Description,
		Date:          dateOf(tx.Date),
		CreatedTS:     tx.CreatedAt,
		UpdatedTS:     tx.UpdatedAt,
	}
	if tx.RecurringDefinitionID != "" {
		row.RecurringDefinitionID = bigquery.NullString{StringVal: tx.RecurringDefinitionID, Valid: true}
	}
	return row
}

// Transaction maps the row back into the domain type.
func (r *TransactionRow) Transaction() *domain.Transaction {
	tx := &domain.Transaction{
		ID:          r.TransactionID,
		OwnerID:     r.OwnerID,
		Amount:      decimalOf(r.Amount),
		Type:        domain.TransactionType(r.Type),
		Category:    r.Category,
		Description: r.Description,
		Date:        timeOf(r.Date),
		CreatedAt:   r.CreatedTS,
		UpdatedAt:   r.UpdatedTS,
	}
	if r.RecurringDefinitionID.Valid {
		tx.RecurringDefinitionID = r.RecurringDefinitionID.StringVal
	}
	return tx
}
