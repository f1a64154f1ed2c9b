package aggregation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

// DefaultDebounce is the window within which repeated mutations for the
// same user coalesce into a single snapshot recompute.
const DefaultDebounce = 100 * time.Millisecond

// NetWorthScheduler recomputes the net-worth snapshot after mutations
// of its inputs. Rapid successive mutations within the debounce window
// are coalesced: each Schedule call cancels and re-arms the user's
// timer. Timers live in a map owned by the scheduler instance; there is
// no ambient global state.
type NetWorthScheduler struct {
	assets    store.AssetRepository
	debts     store.DebtRepository
	snapshots store.NetWorthRepository
	clock     clock.Clock
	log       zerolog.Logger
	debounce  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewNetWorthScheduler creates a scheduler with the given debounce
// window (DefaultDebounce if zero).
func NewNetWorthScheduler(assets store.AssetRepository, debts store.DebtRepository, snapshots store.NetWorthRepository, clk clock.Clock, log zerolog.Logger, debounce time.Duration) *NetWorthScheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &NetWorthScheduler{
		assets:    assets,
		debts:     debts,
		snapshots: snapshots,
		clock:     clk,
		log:       log,
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule requests a snapshot recompute for the user, replacing any
// pending request.
func (s *NetWorthScheduler) Schedule(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[userID]; ok {
		t.Stop()
	}
	s.timers[userID] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, userID)
		s.mu.Unlock()

		if err := s.Recompute(context.Background(), userID); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("Debounced net-worth recompute failed")
		}
	})
}

// Flush cancels any pending timer for the user and recomputes
// synchronously. Used at shutdown and in tests.
func (s *NetWorthScheduler) Flush(ctx context.Context, userID string) error {
	s.mu.Lock()
	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
	s.mu.Unlock()

	return s.Recompute(ctx, userID)
}

// Close stops all pending timers without recomputing.
func (s *NetWorthScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Recompute reads the user's assets and debts and upserts the snapshot.
func (s *NetWorthScheduler) Recompute(ctx context.Context, userID string) error {
	assets, err := s.assets.ListAssets(ctx, userID)
	if err != nil {
		return fmt.Errorf("Recompute: listing assets: %w", err)
	}
	debts, err := s.debts.ListDebts(ctx, userID)
	if err != nil {
		return fmt.Errorf("Recompute: listing debts: %w", err)
	}

	totalAssets, totalLiabilities := decimal.Zero, decimal.Zero
	for _, a := range assets {
		totalAssets = totalAssets.Add(a.Balance)
	}
	for _, d := range debts {
		totalLiabilities = totalLiabilities.Add(d.Balance)
	}

	snap := &domain.NetWorthSnapshot{
		OwnerID:     userID,
		Assets:      totalAssets,
		Liabilities: totalLiabilities,
		NetWorth:    totalAssets.Sub(totalLiabilities),
		ComputedAt:  s.clock.Now().UTC(),
	}
	if err := s.snapshots.UpsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("Recompute: upserting snapshot: %w", err)
	}
	return nil
}
