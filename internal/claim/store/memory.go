package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"cedent/internal/claim/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in process memory. Copies cross the
// boundary in both directions so callers never share mutable state.
type InMemoryStore struct {
	mu       sync.RWMutex
	claims   map[id.ClaimID]*models.Claim
	byNumber map[string]id.ClaimID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		claims:   make(map[id.ClaimID]*models.Claim),
		byNumber: make(map[string]id.ClaimID),
	}
}

// Create persists a claim if its number is not already taken.
func (s *InMemoryStore) Create(_ context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNumber[c.ClaimNumber]; exists {
		return sentinel.ErrConflict
	}
	s.claims[c.ID] = cloneClaim(c)
	s.byNumber[c.ClaimNumber] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneClaim(c), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, cloneClaim(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimNumber < out[j].ClaimNumber })
	return out, nil
}

func (s *InMemoryStore) ListByPolicy(_ context.Context, policyID id.PolicyID) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Claim
	for _, c := range s.claims {
		if c.PolicyID == policyID {
			out = append(out, cloneClaim(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimNumber < out[j].ClaimNumber })
	return out, nil
}

// Execute runs validate then mutate under the store lock so the check
// and the transition are atomic.
func (s *InMemoryStore) Execute(_ context.Context, claimID id.ClaimID,
	validate func(*models.Claim) error,
	mutate func(*models.Claim),
) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)
	return cloneClaim(c), nil
}

func cloneClaim(c *models.Claim) *models.Claim {
	clone := *c
	clone.Timeline = slices.Clone(c.Timeline)
	return &clone
}
