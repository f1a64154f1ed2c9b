package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

// SaveSettings upserts the allocation settings keyed by (owner_id, settings_id).
func (s *Store) SaveSettings(ctx context.Context, settings *domain.BudgetSettings) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @settings_id AS settings_id, @owner_id AS owner_id) s
		ON t.settings_id = s.settings_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			savings_percentage = @savings_percentage,
			debt_payoff_percentage = @debt_payoff_percentage,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			settings_id, owner_id, savings_percentage, debt_payoff_percentage, updated_ts
		)
		VALUES (@settings_id, @owner_id, @savings_percentage, @debt_payoff_percentage, @updated_ts)
	`, s.table(settingsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "settings_id", Value: settings.ID},
		{Name: "owner_id", Value: settings.OwnerID},
		{Name: "savings_percentage", Value: ratOf(settings.SavingsPercentage)},
		{Name: "debt_payoff_percentage", Value: ratOf(settings.DebtPayoffPercentage)},
		{Name: "updated_ts", Value: settings.UpdatedAt},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveSettings: %w", err)
	}
	return nil
}

// GetSettings returns the owner's most recently updated settings record,
// or store.ErrNotFound.
func (s *Store) GetSettings(ctx context.Context, ownerID string) (*domain.BudgetSettings, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT settings_id, owner_id, savings_percentage, debt_payoff_percentage, updated_ts
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY updated_ts DESC
		LIMIT 1
	`, s.table(settingsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetSettings: query read: %w", err)
	}

	var row BudgetSettingsRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, store.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetSettings: iterating: %w", err)
	}

	return &domain.BudgetSettings{
		ID:                   row.SettingsID,
		OwnerID:              row.OwnerID,
		SavingsPercentage:    decimalOf(row.SavingsPercentage),
		DebtPayoffPercentage: decimalOf(row.DebtPayoffPercentage),
		UpdatedAt:            row.UpdatedTS,
	}, nil
}

// SaveGoal upserts a savings goal.
func (s *Store) SaveGoal(ctx context.Context, g *domain.Goal) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @goal_id AS goal_id, @owner_id AS owner_id) s
		ON t.goal_id = s.goal_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			target_amount = @target_amount,
			current_amount = @current_amount,
			monthly_contribution = @monthly_contribution
		WHEN NOT MATCHED THEN INSERT (
			goal_id, owner_id, name, target_amount, current_amount, monthly_contribution
		)
		VALUES (@goal_id, @owner_id, @name, @target_amount, @current_amount, @monthly_contribution)
	`, s.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: g.ID},
		{Name: "owner_id", Value: g.OwnerID},
		{Name: "name", Value: g.Name},
		{Name: "target_amount", Value: ratOf(g.TargetAmount)},
		{Name: "current_amount", Value: ratOf(g.CurrentAmount)},
		{Name: "monthly_contribution", Value: ratOf(g.MonthlyContribution)},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveGoal: %w", err)
	}
	return nil
}

// ListGoals returns the owner's goals, stable by id.
func (s *Store) ListGoals(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT goal_id, owner_id, name, target_amount, current_amount, monthly_contribution
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY goal_id
	`, s.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query read: %w", err)
	}

	var goals []*domain.Goal
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoals: iterating: %w", err)
		}
		goals = append(goals, &domain.Goal{
			ID:                  row.GoalID,
			OwnerID:             row.OwnerID,
			Name:                row.Name,
			TargetAmount:        decimalOf(row.TargetAmount),
			CurrentAmount:       decimalOf(row.CurrentAmount),
			MonthlyContribution: decimalOf(row.MonthlyContribution),
		})
	}
	return goals, nil
}

// SaveAsset upserts an asset balance.
func (s *Store) SaveAsset(ctx context.Context, a *domain.Asset) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @asset_id AS asset_id, @owner_id AS owner_id) s
		ON t.asset_id = s.asset_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			asset_type = @asset_type,
			balance = @balance
		WHEN NOT MATCHED THEN INSERT (asset_id, owner_id, name, asset_type, balance)
		VALUES (@asset_id, @owner_id, @name, @asset_type, @balance)
	`, s.table(assetsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "asset_id", Value: a.ID},
		{Name: "owner_id", Value: a.OwnerID},
		{Name: "name", Value: a.Name},
		{Name: "asset_type", Value: a.Type},
		{Name: "balance", Value: ratOf(a.Balance)},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveAsset: %w", err)
	}
	return nil
}

// ListAssets returns the owner's asset balances, stable by id.
func (s *Store) ListAssets(ctx context.Context, ownerID string) ([]*domain.Asset, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT asset_id, owner_id, name, asset_type, balance
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY asset_id
	`, s.table(assetsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAssets: query read: %w", err)
	}

	var assets []*domain.Asset
	for {
		var row AssetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAssets: iterating: %w", err)
		}
		assets = append(assets, &domain.Asset{
			ID:      row.AssetID,
			OwnerID: row.OwnerID,
			Name:    row.Name,
			Type:    row.AssetType,
			Balance: decimalOf(row.Balance),
		})
	}
	return assets, nil
}

// SaveDebt upserts a liability.
func (s *Store) SaveDebt(ctx context.Context, d *domain.Debt) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @debt_id AS debt_id, @owner_id AS owner_id) s
		ON t.debt_id = s.debt_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			balance = @balance,
			interest_rate = @interest_rate,
			monthly_payment = @monthly_payment
		WHEN NOT MATCHED THEN INSERT (
			debt_id, owner_id, name, balance, interest_rate, monthly_payment
		)
		VALUES (@debt_id, @owner_id, @name, @balance, @interest_rate, @monthly_payment)
	`, s.table(debtsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "debt_id", Value: d.ID},
		{Name: "owner_id", Value: d.OwnerID},
		{Name: "name", Value: d.Name},
		{Name: "balance", Value: ratOf(d.Balance)},
		{Name: "interest_rate", Value: ratOf(d.InterestRate)},
		{Name: "monthly_payment", Value: ratOf(d.MonthlyPayment)},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveDebt: %w", err)
	}
	return nil
}

// ListDebts returns the owner's liabilities, stable by id.
func (s *Store) ListDebts(ctx context.Context, ownerID string) ([]*domain.Debt, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT debt_id, owner_id, name, balance, interest_rate, monthly_payment
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY debt_id
	`, s.table(debtsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDebts: query read: %w", err)
	}

	var debts []*domain.Debt
	for {
		var row DebtRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListDebts: iterating: %w", err)
		}
		debts = append(debts, &domain.Debt{
			ID:             row.DebtID,
			OwnerID:        row.OwnerID,
			Name:           row.Name,
			Balance:        decimalOf(row.Balance),
			InterestRate:   decimalOf(row.InterestRate),
			MonthlyPayment: decimalOf(row.MonthlyPayment),
		})
	}
	return debts, nil
}

// UpsertSnapshot replaces the owner's single net-worth row.
func (s *Store) UpsertSnapshot(ctx context.Context, snap *domain.NetWorthSnapshot) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @owner_id AS owner_id) s
		ON t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			assets = @assets,
			liabilities = @liabilities,
			net_worth = @net_worth,
			computed_ts = @computed_ts
		WHEN NOT MATCHED THEN INSERT (owner_id, assets, liabilities, net_worth, computed_ts)
		VALUES (@owner_id, @assets, @liabilities, @net_worth, @computed_ts)
	`, s.table(netWorthTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: snap.OwnerID},
		{Name: "assets", Value: ratOf(snap.Assets)},
		{Name: "liabilities", Value: ratOf(snap.Liabilities)},
		{Name: "net_worth", Value: ratOf(snap.NetWorth)},
		{Name: "computed_ts", Value: snap.ComputedAt},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpsertSnapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the owner's net-worth row, or store.ErrNotFound.
func (s *Store) GetSnapshot(ctx context.Context, ownerID string) (*domain.NetWorthSnapshot, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT owner_id, assets, liabilities, net_worth, computed_ts
		FROM %s
		WHERE owner_id = @owner_id
		LIMIT 1
	`, s.table(netWorthTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetSnapshot: query read: %w", err)
	}

	var row NetWorthRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, store.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetSnapshot: iterating: %w", err)
	}

	return &domain.NetWorthSnapshot{
		OwnerID:     row.OwnerID,
		Assets:      decimalOf(row.Assets),
		Liabilities: decimalOf(row.Liabilities),
		NetWorth:    decimalOf(row.NetWorth),
		ComputedAt:  row.ComputedTS,
	}, nil
}
