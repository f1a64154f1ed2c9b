package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

func testDefinition(id string) *domain.RecurringDefinition {
	return &domain.RecurringDefinition{
		ID:        id,
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

func TestDefinitionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	def := testDefinition("def-1")
	if err := s.SaveDefinition(ctx, def); err != nil {
		t.Fatalf("SaveDefinition: %v", err)
	}

	got, err := s.GetDefinition(ctx, "user-1", "def-1")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if got.Name != "Rent" || !got.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("unexpected definition: %+v", got)
	}

	// Mutating the returned copy must not touch the stored record.
	got.Name = "changed"
	again, err := s.GetDefinition(ctx, "user-1", "def-1")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if again.Name != "Rent" {
		t.Error("stored record was mutated through a returned copy")
	}

	if _, err := s.GetDefinition(ctx, "user-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetDefinition(ctx, "other-user", "def-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("definitions must be scoped per owner, got %v", err)
	}
}

func TestSaveDefinitionValidates(t *testing.T) {
	ctx := context.Background()
	s := New()

	def := testDefinition("def-1")
	def.Frequency = "fortnightly"

	err := s.SaveDefinition(ctx, def)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.GetDefinition(ctx, "user-1", "def-1"); !errors.Is(err, store.ErrNotFound) {
		t.Error("invalid definition must not be persisted")
	}
}

func TestListActiveDefinitionsFiltersInactive(t *testing.T) {
	ctx := context.Background()
	s := New()

	active := testDefinition("def-active")
	inactive := testDefinition("def-inactive")
	inactive.IsActive = false
	if err := s.SaveDefinition(ctx, active); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveDefinition(ctx, inactive); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListDefinitions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListDefinitions: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListDefinitions returned %d records, want 2", len(all))
	}

	activeOnly, err := s.ListActiveDefinitions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListActiveDefinitions: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != "def-active" {
		t.Errorf("ListActiveDefinitions = %+v, want only def-active", activeOnly)
	}
}

func TestUpdateScheduleMetadataLeavesOwnerFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveDefinition(ctx, testDefinition("def-1")); err != nil {
		t.Fatal(err)
	}

	lastGen := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	nextDue := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if err := s.UpdateScheduleMetadata(ctx, "user-1", "def-1", &lastGen, &nextDue, 3); err != nil {
		t.Fatalf("UpdateScheduleMetadata: %v", err)
	}

	got, err := s.GetDefinition(ctx, "user-1", "def-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastGeneratedDate == nil || !got.LastGeneratedDate.Equal(lastGen) {
		t.Errorf("LastGeneratedDate = %v, want %v", got.LastGeneratedDate, lastGen)
	}
	if got.NextDueDate == nil || !got.NextDueDate.Equal(nextDue) {
		t.Errorf("NextDueDate = %v, want %v", got.NextDueDate, nextDue)
	}
	if got.TotalOccurrences != 3 {
		t.Errorf("TotalOccurrences = %d, want 3", got.TotalOccurrences)
	}
	if got.Name != "Rent" || !got.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Error("owner-edited fields must be untouched by a metadata update")
	}

	if err := s.UpdateScheduleMetadata(ctx, "user-1", "missing", &lastGen, &nextDue, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDefinitionDetachesTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveDefinition(ctx, testDefinition("def-1")); err != nil {
		t.Fatal(err)
	}
	tx := &domain.Transaction{
		ID:                    "tx-1",
		OwnerID:               "user-1",
		Amount:                decimal.NewFromInt(1200),
		Type:                  domain.TypeExpense,
		Date:                  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		RecurringDefinitionID: "def-1",
	}
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteDefinition(ctx, "user-1", "def-1"); err != nil {
		t.Fatalf("DeleteDefinition: %v", err)
	}

	if _, err := s.GetDefinition(ctx, "user-1", "def-1"); !errors.Is(err, store.ErrNotFound) {
		t.Error("definition must be gone after delete")
	}
	got, err := s.GetTransaction(ctx, "user-1", "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.RecurringDefinitionID != "" {
		t.Errorf("back-reference = %q, want cleared", got.RecurringDefinitionID)
	}
}

func TestListTransactionsByMonth(t *testing.T) {
	ctx := context.Background()
	s := New()

	dates := []time.Time{
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		tx := &domain.Transaction{
			ID:      string(rune('a' + i)),
			OwnerID: "user-1",
			Amount:  decimal.NewFromInt(10),
			Type:    domain.TypeExpense,
			Date:    d,
		}
		if err := s.SaveTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	march := domain.MonthKey{Year: 2024, Month: time.March}
	got, err := s.ListTransactionsByMonth(ctx, "user-1", march)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions for March, want 2", len(got))
	}
	for _, tx := range got {
		if !march.Contains(tx.Date) {
			t.Errorf("transaction %s dated %v is outside March", tx.ID, tx.Date)
		}
	}
}

func TestGetSettingsResolvesLatest(t *testing.T) {
	ctx := context.Background()
	s := New()

	older := &domain.BudgetSettings{
		ID:                "s-1",
		OwnerID:           "user-1",
		SavingsPercentage: decimal.NewFromInt(10),
		UpdatedAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.BudgetSettings{
		ID:                "s-2",
		OwnerID:           "user-1",
		SavingsPercentage: decimal.NewFromInt(20),
		UpdatedAt:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.SaveSettings(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSettings(ctx, older); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.ID != "s-2" {
		t.Errorf("GetSettings resolved %s, want the most recently updated record", got.ID)
	}

	if _, err := s.GetSettings(ctx, "other-user"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNetWorthSnapshotUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &domain.NetWorthSnapshot{
		OwnerID:  "user-1",
		NetWorth: decimal.NewFromInt(100),
	}
	second := &domain.NetWorthSnapshot{
		OwnerID:  "user-1",
		NetWorth: decimal.NewFromInt(250),
	}
	if err := s.UpsertSnapshot(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertSnapshot(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !got.NetWorth.Equal(decimal.NewFromInt(250)) {
		t.Errorf("NetWorth = %s, want 250", got.NetWorth)
	}
}
