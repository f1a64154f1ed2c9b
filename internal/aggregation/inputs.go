package aggregation

import (
	"context"
	"errors"
	"fmt"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/projection"
	"github.com/vkopylov/finplan/internal/store"
)

// LoadInputs gathers every aggregation input for one user and month:
// the month's actual transactions, the virtual projections, and the
// owner's definitions, goals, settings, assets and debts. Missing
// settings are not an error; the engine falls back to zero allocations.
func LoadInputs(ctx context.Context, stores store.Stores, generator *projection.Generator, userID string, month domain.MonthKey) (Inputs, error) {
	var in Inputs
	var err error

	if in.Actual, err = stores.Transactions.ListTransactionsByMonth(ctx, userID, month); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: listing transactions: %w", err)
	}
	if in.Projected, err = generator.Project(ctx, userID, month); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: projecting month: %w", err)
	}
	if in.Definitions, err = stores.Recurring.ListDefinitions(ctx, userID); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: listing definitions: %w", err)
	}
	if in.Goals, err = stores.Goals.ListGoals(ctx, userID); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: listing goals: %w", err)
	}
	if in.Assets, err = stores.Assets.ListAssets(ctx, userID); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: listing assets: %w", err)
	}
	if in.Debts, err = stores.Debts.ListDebts(ctx, userID); err != nil {
		return Inputs{}, fmt.Errorf("LoadInputs: listing debts: %w", err)
	}
	if in.Settings, err = stores.Settings.GetSettings(ctx, userID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return Inputs{}, fmt.Errorf("LoadInputs: loading settings: %w", err)
		}
		in.Settings = nil
	}
	return in, nil
}
