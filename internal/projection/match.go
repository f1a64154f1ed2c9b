package projection

import (
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

// MatchStrategy decides whether an actual transaction realizes a
// definition's occurrence for a month. The generator evaluates
// MatchByID first and MatchByValue only as a fallback, so legacy
// transactions without back-references still suppress projections while
// two definitions sharing a name and amount stay distinct.
type MatchStrategy interface {
	Matches(tx *domain.Transaction) bool
}

// MatchByID matches on the transaction's back-reference.
type MatchByID struct {
	DefinitionID string
}

// Matches implements MatchStrategy.
func (m MatchByID) Matches(tx *domain.Transaction) bool {
	return tx.RecurringDefinitionID != "" && tx.RecurringDefinitionID == m.DefinitionID
}

// MatchByValue matches on name, amount and type. Only transactions
// without a back-reference are considered: a referenced transaction
// belongs to its own definition.
type MatchByValue struct {
	Name   string
	Amount decimal.Decimal
	Type   domain.TransactionType
}

// Matches implements MatchStrategy.
func (m MatchByValue) Matches(tx *domain.Transaction) bool {
	return tx.RecurringDefinitionID == "" &&
		tx.Description == m.Name &&
		tx.Type == m.Type &&
		tx.Amount.Equal(m.Amount)
}

// findActual returns the first transaction matched by the first
// strategy that matches anything, preserving strategy precedence.
func findActual(txs []*domain.Transaction, strategies ...MatchStrategy) *domain.Transaction {
	for _, s := range strategies {
		for _, tx := range txs {
			if s.Matches(tx) {
				return tx
			}
		}
	}
	return nil
}
