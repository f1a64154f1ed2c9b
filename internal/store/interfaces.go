// Package store defines the repository interfaces over the remote
// document tree. Records are addressed owner/collection/recordId; the
// store supports partial field updates but no transactions across keys,
// so batch callers rely on idempotent re-checks rather than locking.
package store

import (
	"context"
	"time"

	"github.com/vkopylov/finplan/internal/domain"
)

// RecurringRepository persists recurring definitions.
type RecurringRepository interface {
	SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error
	GetDefinition(ctx context.Context, ownerID, id string) (*domain.RecurringDefinition, error)
	ListDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error)
	ListActiveDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error)

	// UpdateScheduleMetadata partially updates the derived fields only.
	UpdateScheduleMetadata(ctx context.Context, ownerID, id string, lastGenerated, nextDue *time.Time, totalOccurrences int) error

	// DeleteDefinition removes the definition and clears the
	// back-reference on its historical transactions.
	DeleteDefinition(ctx context.Context, ownerID, id string) error
}

// TransactionRepository persists realized transactions.
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, ownerID string, month domain.MonthKey) ([]*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error

	// ClearDefinitionReference detaches transactions from a deleted
	// definition, keeping their historical data.
	ClearDefinitionReference(ctx context.Context, ownerID, definitionID string) error
}

// BudgetSettingsRepository persists the per-owner allocation settings.
type BudgetSettingsRepository interface {
	SaveSettings(ctx context.Context, s *domain.BudgetSettings) error
	// GetSettings returns the most recently updated record for the owner.
	GetSettings(ctx context.Context, ownerID string) (*domain.BudgetSettings, error)
}

// GoalRepository lists savings goals.
type GoalRepository interface {
	SaveGoal(ctx context.Context, g *domain.Goal) error
	ListGoals(ctx context.Context, ownerID string) ([]*domain.Goal, error)
}

// AssetRepository lists asset balances.
type AssetRepository interface {
	SaveAsset(ctx context.Context, a *domain.Asset) error
	ListAssets(ctx context.Context, ownerID string) ([]*domain.Asset, error)
}

// DebtRepository lists liabilities.
type DebtRepository interface {
	SaveDebt(ctx context.Context, d *domain.Debt) error
	ListDebts(ctx context.Context, ownerID string) ([]*domain.Debt, error)
}

// NetWorthRepository persists the derived net-worth snapshot.
type NetWorthRepository interface {
	UpsertSnapshot(ctx context.Context, s *domain.NetWorthSnapshot) error
	GetSnapshot(ctx context.Context, ownerID string) (*domain.NetWorthSnapshot, error)
}

// Stores bundles every repository for wiring through services and
// handlers.
type Stores struct {
	Recurring    RecurringRepository
	Transactions TransactionRepository
	Settings     BudgetSettingsRepository
	Goals        GoalRepository
	Assets       AssetRepository
	Debts        DebtRepository
	NetWorth     NetWorthRepository
}
