package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store/inmemory"
)

func TestNetWorthScheduler_Flush(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	seedBalances(t, st, 10000, 4000)

	s := NewNetWorthScheduler(st, st, st, clock.NewFixed(engineNow), zerolog.Nop(), DefaultDebounce)
	defer s.Close()

	s.Schedule("user-1")
	if err := s.Flush(ctx, "user-1"); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	snap, err := st.GetSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if !snap.NetWorth.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("netWorth = %s, want 6000", snap.NetWorth)
	}
	if !snap.ComputedAt.Equal(engineNow) {
		t.Errorf("computedAt = %v, want %v", snap.ComputedAt, engineNow)
	}
}

// Rapid successive mutations coalesce into a single recompute carrying
// the final state.
func TestNetWorthScheduler_Debounce(t *testing.T) {
	ctx := context.Background()
	st := inmemory.New()
	seedBalances(t, st, 10000, 4000)

	s := NewNetWorthScheduler(st, st, st, clock.NewFixed(engineNow), zerolog.Nop(), 20*time.Millisecond)
	defer s.Close()

	s.Schedule("user-1")
	// A second mutation lands before the window closes.
	if err := st.SaveAsset(ctx, &domain.Asset{ID: "a2", OwnerID: "user-1", Balance: decimal.NewFromInt(5000)}); err != nil {
		t.Fatalf("SaveAsset failed: %v", err)
	}
	s.Schedule("user-1")

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := st.GetSnapshot(ctx, "user-1")
		if err == nil {
			if !snap.NetWorth.Equal(decimal.NewFromInt(11000)) {
				t.Errorf("netWorth = %s, want 11000 (final state)", snap.NetWorth)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the debounced recompute")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func seedBalances(t *testing.T, st *inmemory.Store, assets, debts int64) {
	t.Helper()
	ctx := context.Background()
	if err := st.SaveAsset(ctx, &domain.Asset{ID: "a1", OwnerID: "user-1", Balance: decimal.NewFromInt(assets)}); err != nil {
		t.Fatalf("SaveAsset failed: %v", err)
	}
	if err := st.SaveDebt(ctx, &domain.Debt{ID: "d1", OwnerID: "user-1", Balance: decimal.NewFromInt(debts)}); err != nil {
		t.Fatalf("SaveDebt failed: %v", err)
	}
}
