// Package projection turns recurring definitions into monthly
// occurrences: the Generator computes virtual occurrences for display,
// the Materializer persists them for the current month. Both share the
// schedule package's pure occurrence logic so the temporal rules have a
// single implementation.
package projection

import (
	"context"
	"fmt"
	"sort"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/schedule"
	"github.com/vkopylov/finplan/internal/store"
)

// Generator computes projected transactions for a month. It is a pure,
// repeatable read: no writes, and structurally identical results for
// repeated calls over unchanged state.
type Generator struct {
	recurring    store.RecurringRepository
	transactions store.TransactionRepository
}

// NewGenerator creates a projection generator.
func NewGenerator(recurring store.RecurringRepository, transactions store.TransactionRepository) *Generator {
	return &Generator{
		recurring:    recurring,
		transactions: transactions,
	}
}

// Project returns the virtual occurrences for the user's month,
// suppressing any occurrence already realized as an actual transaction.
func (g *Generator) Project(ctx context.Context, userID string, month domain.MonthKey) ([]domain.ProjectedTransaction, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}

	defs, err := g.recurring.ListActiveDefinitions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Project: listing definitions: %w", err)
	}
	actuals, err := g.transactions.ListTransactionsByMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("Project: listing transactions: %w", err)
	}

	var projected []domain.ProjectedTransaction
	for _, def := range defs {
		p, ok := projectDefinition(def, month, actuals)
		if !ok {
			continue
		}
		projected = append(projected, p)
	}

	// Stable order for referential stability across calls.
	sort.Slice(projected, func(i, j int) bool { return projected[i].ID < projected[j].ID })
	return projected, nil
}

// projectDefinition computes the definition's occurrence for the month
// and returns it unless it is suppressed by an existing actual.
func projectDefinition(def *domain.RecurringDefinition, month domain.MonthKey, actuals []*domain.Transaction) (domain.ProjectedTransaction, bool) {
	if !schedule.OccursInMonth(def, month.Start(), month.End()) {
		return domain.ProjectedTransaction{}, false
	}
	occ := schedule.ResolveOccurrence(def, month)

	if existing := findActual(actuals,
		MatchByID{DefinitionID: def.ID},
		MatchByValue{Name: occ.Name, Amount: occ.Amount, Type: def.Type},
	); existing != nil {
		return domain.ProjectedTransaction{}, false
	}

	return domain.ProjectedTransaction{
		ID:                    domain.ProjectedID(def.ID, month),
		OwnerID:               def.OwnerID,
		Amount:                occ.Amount,
		Type:                  def.Type,
		Category:              occ.Category,
		Description:           occ.Name,
		Date:                  occ.Date,
		RecurringDefinitionID: def.ID,
		IsProjected:           true,
	}, true
}
