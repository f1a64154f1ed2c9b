package projection

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
)

// mockRecurringRepo serves a fixed set of definitions.
type mockRecurringRepo struct {
	defs []*domain.RecurringDefinition
}

func (m *mockRecurringRepo) SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error {
	return nil
}

func (m *mockRecurringRepo) GetDefinition(ctx context.Context, ownerID, id string) (*domain.RecurringDefinition, error) {
	return nil, nil
}

func (m *mockRecurringRepo) ListDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	return m.defs, nil
}

func (m *mockRecurringRepo) ListActiveDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	var active []*domain.RecurringDefinition
	for _, d := range m.defs {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (m *mockRecurringRepo) UpdateScheduleMetadata(ctx context.Context, ownerID, id string, lastGenerated, nextDue *time.Time, totalOccurrences int) error {
	return nil
}

func (m *mockRecurringRepo) DeleteDefinition(ctx context.Context, ownerID, id string) error {
	return nil
}

// mockTransactionRepo serves a fixed set of actual transactions.
type mockTransactionRepo struct {
	txs []*domain.Transaction
}

func (m *mockTransactionRepo) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	m.txs = append(m.txs, tx)
	return nil
}

func (m *mockTransactionRepo) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) ListTransactionsByMonth(ctx context.Context, ownerID string, month domain.MonthKey) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for _, tx := range m.txs {
		if month.Contains(tx.Date) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *mockTransactionRepo) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return nil
}

func (m *mockTransactionRepo) ClearDefinitionReference(ctx context.Context, ownerID, definitionID string) error {
	return nil
}

func rentDef() *domain.RecurringDefinition {
	return &domain.RecurringDefinition{
		ID:        "def-rent",
		OwnerID:   "user-1",
		Name:      "Rent",
		Amount:    decimal.NewFromInt(1200),
		Type:      domain.TypeExpense,
		Category:  "Housing",
		Frequency: domain.FrequencyMonthly,
		StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

var march = domain.MonthKey{Year: 2024, Month: time.March}

func TestProject_BasicOccurrence(t *testing.T) {
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{rentDef()}}, &mockTransactionRepo{})

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("expected 1 projected transaction, got %d", len(projected))
	}

	p := projected[0]
	if p.ID != "projected-def-rent-"+formatEpoch(march) {
		t.Errorf("unexpected synthetic id: %s", p.ID)
	}
	if !p.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("occurrence date = %v, want 2024-03-15", p.Date)
	}
	if !p.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("amount = %s, want 1200", p.Amount)
	}
	if !p.IsProjected {
		t.Error("expected IsProjected to be set")
	}
}

func formatEpoch(month domain.MonthKey) string {
	return strconv.FormatInt(month.Epoch(), 10)
}

func TestProject_SkippedMonth(t *testing.T) {
	def := rentDef()
	def.SkippedMonths = []string{"2024-03"}
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{def}}, &mockTransactionRepo{})

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 0 {
		t.Errorf("expected empty projection for a skipped month, got %d", len(projected))
	}
}

func TestProject_MonthOverride(t *testing.T) {
	def := rentDef()
	amount := decimal.NewFromInt(1000)
	def.MonthOverrides = map[string]domain.MonthOverride{"2024-03": {Amount: &amount}}
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{def}}, &mockTransactionRepo{})

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("expected 1 projected transaction, got %d", len(projected))
	}
	if !projected[0].Amount.Equal(amount) {
		t.Errorf("amount = %s, want 1000", projected[0].Amount)
	}
}

func TestProject_SuppressedByBackReference(t *testing.T) {
	txRepo := &mockTransactionRepo{txs: []*domain.Transaction{{
		ID:                    "tx-1",
		OwnerID:               "user-1",
		Amount:                decimal.NewFromInt(1200),
		Type:                  domain.TypeExpense,
		Description:           "Rent",
		Date:                  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		RecurringDefinitionID: "def-rent",
	}}}
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{rentDef()}}, txRepo)

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 0 {
		t.Errorf("expected materialized occurrence to suppress projection, got %d", len(projected))
	}
}

func TestProject_SuppressedByValueForLegacyTransactions(t *testing.T) {
	// Legacy record: same name/amount/type, no back-reference.
	txRepo := &mockTransactionRepo{txs: []*domain.Transaction{{
		ID:          "tx-legacy",
		OwnerID:     "user-1",
		Amount:      decimal.NewFromInt(1200),
		Type:        domain.TypeExpense,
		Description: "Rent",
		Date:        time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
	}}}
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{rentDef()}}, txRepo)

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 0 {
		t.Errorf("expected legacy transaction to suppress projection, got %d", len(projected))
	}
}

// Two definitions sharing a name and amount must not suppress each
// other through a back-referenced transaction.
func TestProject_NoFalseSuppressionAcrossDefinitions(t *testing.T) {
	defA := rentDef()
	defB := rentDef()
	defB.ID = "def-rent-2"

	txRepo := &mockTransactionRepo{txs: []*domain.Transaction{{
		ID:                    "tx-1",
		OwnerID:               "user-1",
		Amount:                decimal.NewFromInt(1200),
		Type:                  domain.TypeExpense,
		Description:           "Rent",
		Date:                  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		RecurringDefinitionID: defA.ID,
	}}}
	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{defA, defB}}, txRepo)

	projected, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("expected exactly the unmaterialized definition to project, got %d", len(projected))
	}
	if projected[0].RecurringDefinitionID != defB.ID {
		t.Errorf("projected definition = %s, want %s", projected[0].RecurringDefinitionID, defB.ID)
	}
}

// Project is a pure read: calling it twice yields structurally
// identical results.
func TestProject_Repeatable(t *testing.T) {
	def := rentDef()
	other := rentDef()
	other.ID = "def-salary"
	other.Name = "Salary"
	other.Type = domain.TypeIncome
	other.Amount = decimal.NewFromInt(5000)

	gen := NewGenerator(&mockRecurringRepo{defs: []*domain.RecurringDefinition{def, other}}, &mockTransactionRepo{})

	first, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	second, err := gen.Project(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	decimalEq := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(first, second, decimalEq); diff != "" {
		t.Errorf("repeated projections differ (-first +second):\n%s", diff)
	}
}
