package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

const txColumns = `
	transaction_id,
	owner_id,
	amount,
	type,
	category,
	description,
	transaction_date,
	recurring_definition_id,
	created_ts,
	updated_ts`

// SaveTransaction upserts the transaction keyed by (owner_id, transaction_id).
func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	row := RowFromTransaction(tx)

	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @transaction_id AS transaction_id, @owner_id AS owner_id) s
		ON t.transaction_id = s.transaction_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			amount = @amount,
			type = @type,
			category = @category,
			description = @description,
			transaction_date = @transaction_date,
			recurring_definition_id = @recurring_definition_id,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (%s)
		VALUES (
			@transaction_id,
			@owner_id,
			@amount,
			@type,
			@category,
			@description,
			@transaction_date,
			@recurring_definition_id,
			@created_ts,
			@updated_ts
		)
	`, s.table(txTable), txColumns))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "owner_id", Value: row.OwnerID},
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "transaction_date", Value: row.Date},
		{Name: "recurring_definition_id", Value: row.RecurringDefinitionID},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveTransaction: %w", err)
	}
	return nil
}

// GetTransaction fetches one transaction, or store.ErrNotFound.
func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id AND transaction_id = @transaction_id
		LIMIT 1
	`, txColumns, s.table(txTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "transaction_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: query read: %w", err)
	}

	var row TransactionRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, store.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetTransaction: iterating: %w", err)
	}
	return row.Transaction(), nil
}

// ListTransactionsByMonth returns the owner's transactions dated inside
// the month window, start inclusive, end exclusive.
func (s *Store) ListTransactionsByMonth(ctx context.Context, ownerID string, month domain.MonthKey) ([]*domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		  AND transaction_date >= @month_start
		  AND transaction_date < @month_end
		ORDER BY transaction_date, transaction_id
	`, txColumns, s.table(txTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "month_start", Value: dateOf(month.Start())},
		{Name: "month_end", Value: dateOf(month.End())},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsByMonth: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsByMonth: iterating: %w", err)
		}
		txs = append(txs, row.Transaction())
	}
	return txs, nil
}

// DeleteTransaction removes one transaction.
func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = @owner_id AND transaction_id = @transaction_id
	`, s.table(txTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "transaction_id", Value: id},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

// ClearDefinitionReference nulls the back-reference on every
// transaction generated from the definition.
func (s *Store) ClearDefinitionReference(ctx context.Context, ownerID, definitionID string) error {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET recurring_definition_id = NULL,
			updated_ts = CURRENT_TIMESTAMP()
		WHERE owner_id = @owner_id AND recurring_definition_id = @definition_id
	`, s.table(txTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "definition_id", Value: definitionID},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("ClearDefinitionReference: %w", err)
	}
	return nil
}
