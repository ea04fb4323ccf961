package store

import (
	"context"
	"sort"
	"sync"

	"cedent/internal/policy/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// InMemoryStore keeps policies in process memory. Copies cross the
// boundary in both directions so callers never share mutable state.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*models.Policy
	byNumber map[string]id.PolicyID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		policies: make(map[id.PolicyID]*models.Policy),
		byNumber: make(map[string]id.PolicyID),
	}
}

// Create persists a policy if its number is not already taken.
func (s *InMemoryStore) Create(_ context.Context, p *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNumber[p.PolicyNumber]; exists {
		return sentinel.ErrConflict
	}
	clone := *p
	s.policies[p.ID] = &clone
	s.byNumber[p.PolicyNumber] = p.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, policyID id.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *InMemoryStore) FindByNumber(_ context.Context, policyNumber string) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policyID, ok := s.byNumber[policyNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.policies[policyID]
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyNumber < out[j].PolicyNumber })
	return out, nil
}

// Execute runs validate then mutate under the store lock so the check
// and the transition are atomic.
func (s *InMemoryStore) Execute(_ context.Context, policyNumber string,
	validate func(*models.Policy) error,
	mutate func(*models.Policy),
) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	policyID, ok := s.byNumber[policyNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p := s.policies[policyID]
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)
	clone := *p
	return &clone, nil
}
