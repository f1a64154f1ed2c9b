package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store/inmemory"
)

// failingReminders always fails, to exercise the degraded path.
type failingReminders struct{}

func (failingReminders) Reschedule(ctx context.Context, userID, definitionID string, nextDue time.Time) error {
	return errors.New("push service unavailable")
}

func marchClock() clock.Clock {
	return clock.NewFixed(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
}

func TestMaterialize_PersistsOccurrenceAndMetadata(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	def := rentDef()
	if err := st.SaveDefinition(ctx, def); err != nil {
		t.Fatalf("SaveDefinition failed: %v", err)
	}

	m := NewMaterializer(st, st, nil, marchClock(), zerolog.Nop())
	report, err := m.Materialize(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if report.Materialized != 1 || report.Errors != 0 {
		t.Fatalf("report = %+v, want 1 materialized, 0 errors", report)
	}

	txs, err := st.ListTransactionsByMonth(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 persisted transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.RecurringDefinitionID != def.ID {
		t.Errorf("back-reference = %q, want %q", tx.RecurringDefinitionID, def.ID)
	}
	if !tx.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("transaction date = %v, want 2024-03-15", tx.Date)
	}

	updated, err := st.GetDefinition(ctx, "user-1", def.ID)
	if err != nil {
		t.Fatalf("GetDefinition failed: %v", err)
	}
	if updated.LastGeneratedDate == nil || !updated.LastGeneratedDate.Equal(tx.Date) {
		t.Errorf("lastGeneratedDate = %v, want %v", updated.LastGeneratedDate, tx.Date)
	}
	wantNext := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if updated.NextDueDate == nil || !updated.NextDueDate.Equal(wantNext) {
		t.Errorf("nextDueDate = %v, want %v", updated.NextDueDate, wantNext)
	}
	if updated.TotalOccurrences != 1 {
		t.Errorf("totalOccurrences = %d, want 1", updated.TotalOccurrences)
	}
}

// Calling Materialize twice must produce exactly one persisted
// transaction per occurring definition.
func TestMaterialize_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	if err := st.SaveDefinition(ctx, rentDef()); err != nil {
		t.Fatalf("SaveDefinition failed: %v", err)
	}

	m := NewMaterializer(st, st, nil, marchClock(), zerolog.Nop())
	if _, err := m.Materialize(ctx, "user-1", march); err != nil {
		t.Fatalf("first Materialize failed: %v", err)
	}
	report, err := m.Materialize(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}
	if report.Materialized != 0 || report.Skipped != 1 {
		t.Errorf("second run report = %+v, want 0 materialized, 1 skipped", report)
	}

	txs, _ := st.ListTransactionsByMonth(ctx, "user-1", march)
	if len(txs) != 1 {
		t.Errorf("expected exactly 1 transaction after re-run, got %d", len(txs))
	}
}

func TestMaterialize_RejectsNonCurrentMonth(t *testing.T) {
	st := inmemory.New()
	m := NewMaterializer(st, st, nil, marchClock(), zerolog.Nop())

	_, err := m.Materialize(context.Background(), "user-1", domain.MonthKey{Year: 2024, Month: time.April})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for non-current month, got %v", err)
	}
}

func TestMaterialize_ReminderFailureDegradesNotFails(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	if err := st.SaveDefinition(ctx, rentDef()); err != nil {
		t.Fatalf("SaveDefinition failed: %v", err)
	}

	m := NewMaterializer(st, st, failingReminders{}, marchClock(), zerolog.Nop())
	report, err := m.Materialize(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if report.Materialized != 1 || report.Errors != 0 {
		t.Errorf("report = %+v, want the primary write to succeed", report)
	}
	if len(report.Degraded) != 1 {
		t.Errorf("expected 1 degraded outcome, got %d", len(report.Degraded))
	}
}

// Projection output and persisted actuals never overlap for a month.
func TestMaterialize_ProjectionDisjointAfterwards(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	def := rentDef()
	salary := rentDef()
	salary.ID = "def-salary"
	salary.Name = "Salary"
	salary.Type = domain.TypeIncome
	salary.Amount = decimal.NewFromInt(5000)
	for _, d := range []*domain.RecurringDefinition{def, salary} {
		if err := st.SaveDefinition(ctx, d); err != nil {
			t.Fatalf("SaveDefinition failed: %v", err)
		}
	}

	m := NewMaterializer(st, st, nil, marchClock(), zerolog.Nop())
	if _, err := m.Materialize(ctx, "user-1", march); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	gen := NewGenerator(st, st)
	projected, err := gen.Project(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 0 {
		t.Errorf("expected projection to be empty once everything is materialized, got %d", len(projected))
	}
}
