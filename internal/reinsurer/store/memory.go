package store

import (
	"context"
	"sort"
	"sync"

	"cedent/internal/reinsurer/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// InMemoryStore keeps reinsurers in process memory. Copies cross the
// boundary in both directions so callers never share mutable state.
type InMemoryStore struct {
	mu         sync.RWMutex
	reinsurers map[id.ReinsurerID]*models.Reinsurer
	byCode     map[string]id.ReinsurerID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		reinsurers: make(map[id.ReinsurerID]*models.Reinsurer),
		byCode:     make(map[string]id.ReinsurerID),
	}
}

// Create persists a reinsurer if its code is not already taken.
func (s *InMemoryStore) Create(_ context.Context, r *models.Reinsurer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCode[r.Code]; exists {
		return sentinel.ErrConflict
	}
	clone := *r
	s.reinsurers[r.ID] = &clone
	s.byCode[r.Code] = r.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, reinsurerID id.ReinsurerID) (*models.Reinsurer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reinsurers[reinsurerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.Reinsurer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reinsurerID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.reinsurers[reinsurerID]
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Reinsurer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Reinsurer, 0, len(s.reinsurers))
	for _, r := range s.reinsurers {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Execute runs validate then mutate under the store lock so the check
// and the change are atomic.
func (s *InMemoryStore) Execute(_ context.Context, reinsurerID id.ReinsurerID,
	validate func(*models.Reinsurer) error,
	mutate func(*models.Reinsurer),
) (*models.Reinsurer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reinsurers[reinsurerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	clone := *r
	return &clone, nil
}
