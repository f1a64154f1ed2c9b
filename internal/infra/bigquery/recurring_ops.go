package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

const recurringColumns = `
	definition_id,
	owner_id,
	name,
	amount,
	type,
	category,
	frequency,
	start_date,
	end_date,
	is_active,
	skipped_months,
	month_overrides,
	last_generated_date,
	next_due_date,
	total_occurrences,
	created_ts,
	updated_ts`

// SaveDefinition upserts the definition keyed by (owner_id, definition_id).
func (s *Store) SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error {
	row, err := RowFromDefinition(def)
	if err != nil {
		return fmt.Errorf("SaveDefinition: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		MERGE %s t
		USING (SELECT @definition_id AS definition_id, @owner_id AS owner_id) s
		ON t.definition_id = s.definition_id AND t.owner_id = s.owner_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			amount = @amount,
			type = @type,
			category = @category,
			frequency = @frequency,
			start_date = @start_date,
			end_date = @end_date,
			is_active = @is_active,
			skipped_months = @skipped_months,
			month_overrides = @month_overrides,
			last_generated_date = @last_generated_date,
			next_due_date = @next_due_date,
			total_occurrences = @total_occurrences,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (%s)
		VALUES (
			@definition_id,
			@owner_id,
			@name,
			@amount,
			@type,
			@category,
			@frequency,
			@start_date,
			@end_date,
			@is_active,
			@skipped_months,
			@month_overrides,
			@last_generated_date,
			@next_due_date,
			@total_occurrences,
			@created_ts,
			@updated_ts
		)
	`, s.table(recurringTable), recurringColumns))

	skipped := row.SkippedMonths
	if skipped == nil {
		skipped = []string{}
	}

	q.Parameters = []bigquery.QueryParameter{
		{Name: "definition_id", Value: row.DefinitionID},
		{Name: "owner_id", Value: row.OwnerID},
		{Name: "name", Value: row.Name},
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "category", Value: row.Category},
		{Name: "frequency", Value: row.Frequency},
		{Name: "start_date", Value: row.StartDate},
		{Name: "end_date", Value: row.EndDate},
		{Name: "is_active", Value: row.IsActive},
		{Name: "skipped_months", Value: skipped},
		{Name: "month_overrides", Value: row.MonthOverrides},
		{Name: "last_generated_date", Value: row.LastGeneratedDate},
		{Name: "next_due_date", Value: row.NextDueDate},
		{Name: "total_occurrences", Value: row.TotalOccurrences},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveDefinition: %w", err)
	}
	return nil
}

// GetDefinition fetches one definition, or store.ErrNotFound.
func (s *Store) GetDefinition(ctx context.Context, ownerID, id string) (*domain.RecurringDefinition, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id AND definition_id = @definition_id
		LIMIT 1
	`, recurringColumns, s.table(recurringTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "definition_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetDefinition: query read: %w", err)
	}

	var row RecurringDefinitionRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, store.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetDefinition: iterating: %w", err)
	}
	def, err := row.Definition()
	if err != nil {
		return nil, fmt.Errorf("GetDefinition: %w", err)
	}
	return def, nil
}

// ListDefinitions returns every definition for the owner, stable by id.
func (s *Store) ListDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	return s.listDefinitions(ctx, ownerID, false)
}

// ListActiveDefinitions returns only definitions with is_active set.
func (s *Store) ListActiveDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	return s.listDefinitions(ctx, ownerID, true)
}

func (s *Store) listDefinitions(ctx context.Context, ownerID string, activeOnly bool) ([]*domain.RecurringDefinition, error) {
	filter := ""
	if activeOnly {
		filter = "AND is_active"
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id %s
		ORDER BY definition_id
	`, recurringColumns, s.table(recurringTable), filter))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("listDefinitions: query read: %w", err)
	}

	var defs []*domain.RecurringDefinition
	for {
		var row RecurringDefinitionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listDefinitions: iterating: %w", err)
		}
		def, err := row.Definition()
		if err != nil {
			return nil, fmt.Errorf("listDefinitions: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// UpdateScheduleMetadata updates only the derived scheduling columns,
// leaving the owner-edited fields untouched.
func (s *Store) UpdateScheduleMetadata(ctx context.Context, ownerID, id string, lastGenerated, nextDue *time.Time, totalOccurrences int) error {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET last_generated_date = @last_generated_date,
			next_due_date = @next_due_date,
			total_occurrences = @total_occurrences,
			updated_ts = CURRENT_TIMESTAMP()
		WHERE owner_id = @owner_id AND definition_id = @definition_id
	`, s.table(recurringTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "last_generated_date", Value: nullDateOf(lastGenerated)},
		{Name: "next_due_date", Value: nullDateOf(nextDue)},
		{Name: "total_occurrences", Value: int64(totalOccurrences)},
		{Name: "owner_id", Value: ownerID},
		{Name: "definition_id", Value: id},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateScheduleMetadata: %w", err)
	}
	return nil
}

// DeleteDefinition removes the definition after detaching its
// historical transactions.
func (s *Store) DeleteDefinition(ctx context.Context, ownerID, id string) error {
	if err := s.ClearDefinitionReference(ctx, ownerID, id); err != nil {
		return fmt.Errorf("DeleteDefinition: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = @owner_id AND definition_id = @definition_id
	`, s.table(recurringTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "definition_id", Value: id},
	}

	if err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteDefinition: %w", err)
	}
	return nil
}
