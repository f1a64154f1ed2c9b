package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a cash-flow event. Amounts are stored as
// positive magnitudes; the type carries the direction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a realized cash-flow event. Records created by the
// materialization writer carry RecurringDefinitionID; records imported
// before back-references existed may lack it.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`

	RecurringDefinitionID string `json:"recurring_definition_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields required before any write.
func (t *Transaction) Validate() error {
	if t.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Reason: "is required"}
	}
	if !t.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	return nil
}

// ProjectedTransaction is a virtual occurrence computed for display. It
// is never persisted; its ID is derived from the definition and target
// month so repeated projections of the same month are referentially
// stable.
type ProjectedTransaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`

	RecurringDefinitionID string `json:"recurring_definition_id"`
	IsProjected           bool   `json:"is_projected"`
}

// ProjectedID builds the deterministic synthetic id for a definition's
// occurrence in a month.
func ProjectedID(definitionID string, month MonthKey) string {
	return fmt.Sprintf("projected-%s-%d", definitionID, month.Epoch())
}
