package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// MemoryStore is an in-memory DealStore for tests and single-process use.
type MemoryStore struct {
	mu        sync.RWMutex
	deals     map[string]*Deal
	decisions map[string][]contracts.Decision
	clock     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:     make(map[string]*Deal),
		decisions: make(map[string][]contracts.Decision),
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

// CreateDeal stores a new deal with its frozen config snapshot.
func (s *MemoryStore) CreateDeal(ctx context.Context, dealID string, cfg contracts.NegotiationConfig) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[dealID]; ok {
		return fmt.Errorf("%w: %s", ErrDealExists, dealID)
	}
	now := s.clock().UTC()
	s.deals[dealID] = &Deal{
		DealID:    dealID,
		Config:    cfg,
		State:     contracts.NewNegotiationState(dealID, &cfg),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// GetDeal loads a copy of the deal aggregate.
func (s *MemoryStore) GetDeal(ctx context.Context, dealID string) (*Deal, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[dealID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDealNotFound, dealID)
	}
	out := *d
	return &out, nil
}

// AppendTurn appends the decision and updates the aggregate under one lock.
func (s *MemoryStore) AppendTurn(ctx context.Context, turn Turn) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[turn.DealID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDealNotFound, turn.DealID)
	}
	s.decisions[turn.DealID] = append(s.decisions[turn.DealID], turn.Decision)
	d.State = turn.State
	d.LatestDecisionAction = turn.Decision.Action
	d.UpdatedAt = s.clock().UTC()
	return nil
}

// Decisions returns the decision history, newest first.
func (s *MemoryStore) Decisions(ctx context.Context, dealID string, limit int) ([]contracts.Decision, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.decisions[dealID]
	out := make([]contracts.Decision, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
