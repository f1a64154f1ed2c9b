// Package inmemory implements every store repository over in-process
// maps. It is safe for concurrent use. Data is lost on restart - use
// the BigQuery-backed store for persistence.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/store"
)

// Store holds all collections for all owners, keyed owner -> record id.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]map[string]*domain.RecurringDefinition
	txs         map[string]map[string]*domain.Transaction
	settings    map[string][]*domain.BudgetSettings
	goals       map[string]map[string]*domain.Goal
	assets      map[string]map[string]*domain.Asset
	debts       map[string]map[string]*domain.Debt
	netWorth    map[string]*domain.NetWorthSnapshot
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		definitions: make(map[string]map[string]*domain.RecurringDefinition),
		txs:         make(map[string]map[string]*domain.Transaction),
		settings:    make(map[string][]*domain.BudgetSettings),
		goals:       make(map[string]map[string]*domain.Goal),
		assets:      make(map[string]map[string]*domain.Asset),
		debts:       make(map[string]map[string]*domain.Debt),
		netWorth:    make(map[string]*domain.NetWorthSnapshot),
	}
}

// Stores returns the repository bundle backed by this store.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Recurring:    s,
		Transactions: s,
		Settings:     s,
		Goals:        s,
		Assets:       s,
		Debts:        s,
		NetWorth:     s,
	}
}

// SaveDefinition saves or replaces a recurring definition.
func (s *Store) SaveDefinition(ctx context.Context, def *domain.RecurringDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.definitions[def.OwnerID]
	if owner == nil {
		owner = make(map[string]*domain.RecurringDefinition)
		s.definitions[def.OwnerID] = owner
	}
	// Copy to avoid external modifications
	cp := *def
	owner[def.ID] = &cp
	return nil
}

// GetDefinition retrieves one definition.
func (s *Store) GetDefinition(ctx context.Context, ownerID, id string) (*domain.RecurringDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[ownerID][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *def
	return &cp, nil
}

// ListDefinitions returns all definitions for the owner.
func (s *Store) ListDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RecurringDefinition
	for _, def := range s.definitions[ownerID] {
		cp := *def
		result = append(result, &cp)
	}
	return result, nil
}

// ListActiveDefinitions returns the owner's definitions with IsActive set.
func (s *Store) ListActiveDefinitions(ctx context.Context, ownerID string) ([]*domain.RecurringDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RecurringDefinition
	for _, def := range s.definitions[ownerID] {
		if !def.IsActive {
			continue
		}
		cp := *def
		result = append(result, &cp)
	}
	return result, nil
}

// UpdateScheduleMetadata updates only the derived scheduling fields.
func (s *Store) UpdateScheduleMetadata(ctx context.Context, ownerID, id string, lastGenerated, nextDue *time.Time, totalOccurrences int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[ownerID][id]
	if !ok {
		return store.ErrNotFound
	}
	def.LastGeneratedDate = lastGenerated
	def.NextDueDate = nextDue
	def.TotalOccurrences = totalOccurrences
	def.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteDefinition removes the definition and detaches its transactions.
func (s *Store) DeleteDefinition(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.definitions[ownerID]
	if _, ok := owner[id]; !ok {
		return store.ErrNotFound
	}
	delete(owner, id)
	for _, tx := range s.txs[ownerID] {
		if tx.RecurringDefinitionID == id {
			tx.RecurringDefinitionID = ""
		}
	}
	return nil
}

// SaveTransaction saves or replaces a transaction.
func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.txs[tx.OwnerID]
	if owner == nil {
		owner = make(map[string]*domain.Transaction)
		s.txs[tx.OwnerID] = owner
	}
	cp := *tx
	owner[tx.ID] = &cp
	return nil
}

// GetTransaction retrieves one transaction.
func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[ownerID][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// ListTransactionsByMonth returns the owner's transactions dated inside
// the month window.
func (s *Store) ListTransactionsByMonth(ctx context.Context, ownerID string, month domain.MonthKey) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.txs[ownerID] {
		if !month.Contains(tx.Date) {
			continue
		}
		cp := *tx
		result = append(result, &cp)
	}
	return result, nil
}

// DeleteTransaction removes one transaction.
func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.txs[ownerID]
	if _, ok := owner[id]; !ok {
		return store.ErrNotFound
	}
	delete(owner, id)
	return nil
}

// ClearDefinitionReference detaches transactions from a definition.
func (s *Store) ClearDefinitionReference(ctx context.Context, ownerID, definitionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.txs[ownerID] {
		if tx.RecurringDefinitionID == definitionID {
			tx.RecurringDefinitionID = ""
		}
	}
	return nil
}

// SaveSettings appends a settings record; reads resolve duplicates by
// most recent UpdatedAt.
func (s *Store) SaveSettings(ctx context.Context, st *domain.BudgetSettings) error {
	if st.OwnerID == "" {
		return &domain.ValidationError{Field: "owner_id", Reason: "is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.settings[st.OwnerID] = append(s.settings[st.OwnerID], &cp)
	return nil
}

// GetSettings returns the most recently updated settings for the owner.
func (s *Store) GetSettings(ctx context.Context, ownerID string) (*domain.BudgetSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.settings[ownerID]
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	cp := *latest
	return &cp, nil
}

// SaveGoal saves or replaces a goal.
func (s *Store) SaveGoal(ctx context.Context, g *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.goals[g.OwnerID]
	if owner == nil {
		owner = make(map[string]*domain.Goal)
		s.goals[g.OwnerID] = owner
	}
	cp := *g
	owner[g.ID] = &cp
	return nil
}

// ListGoals returns the owner's goals.
func (s *Store) ListGoals(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Goal
	for _, g := range s.goals[ownerID] {
		cp := *g
		result = append(result, &cp)
	}
	return result, nil
}

// SaveAsset saves or replaces an asset.
func (s *Store) SaveAsset(ctx context.Context, a *domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.assets[a.OwnerID]
	if owner == nil {
		owner = make(map[string]*domain.Asset)
		s.assets[a.OwnerID] = owner
	}
	cp := *a
	owner[a.ID] = &cp
	return nil
}

// ListAssets returns the owner's assets.
func (s *Store) ListAssets(ctx context.Context, ownerID string) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Asset
	for _, a := range s.assets[ownerID] {
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

// SaveDebt saves or replaces a debt.
func (s *Store) SaveDebt(ctx context.Context, d *domain.Debt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.debts[d.OwnerID]
	if owner == nil {
		owner = make(map[string]*domain.Debt)
		s.debts[d.OwnerID] = owner
	}
	cp := *d
	owner[d.ID] = &cp
	return nil
}

// ListDebts returns the owner's debts.
func (s *Store) ListDebts(ctx context.Context, ownerID string) ([]*domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Debt
	for _, d := range s.debts[ownerID] {
		cp := *d
		result = append(result, &cp)
	}
	return result, nil
}

// UpsertSnapshot replaces the owner's net-worth snapshot.
func (s *Store) UpsertSnapshot(ctx context.Context, snap *domain.NetWorthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	s.netWorth[snap.OwnerID] = &cp
	return nil
}

// GetSnapshot returns the owner's net-worth snapshot.
func (s *Store) GetSnapshot(ctx context.Context, ownerID string) (*domain.NetWorthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.netWorth[ownerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}
