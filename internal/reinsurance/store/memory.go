package store

import (
	"context"
	"slices"
	"sync"

	"cedent/internal/reinsurance/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// InMemoryStore keeps risk allocations in process memory. The one-per-
// policy invariant is enforced the same way the postgres store does it,
// so concurrent allocation races surface as ErrConflict here too.
type InMemoryStore struct {
	mu       sync.RWMutex
	byPolicy map[id.PolicyID]*models.RiskAllocation
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byPolicy: make(map[id.PolicyID]*models.RiskAllocation)}
}

// Create persists an allocation unless the policy already has one.
func (s *InMemoryStore) Create(_ context.Context, a *models.RiskAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPolicy[a.PolicyID]; exists {
		return sentinel.ErrConflict
	}
	s.byPolicy[a.PolicyID] = cloneAllocation(a)
	return nil
}

func (s *InMemoryStore) FindByPolicy(_ context.Context, policyID id.PolicyID) (*models.RiskAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byPolicy[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAllocation(a), nil
}

func cloneAllocation(a *models.RiskAllocation) *models.RiskAllocation {
	clone := *a
	clone.Lines = slices.Clone(a.Lines)
	return &clone
}
