package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"cedent/internal/treaty/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// InMemoryStore keeps treaties in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	treaties map[id.TreatyID]*models.Treaty
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{treaties: make(map[id.TreatyID]*models.Treaty)}
}

func (s *InMemoryStore) Create(_ context.Context, t *models.Treaty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.treaties[t.ID]; exists {
		return sentinel.ErrConflict
	}
	s.treaties[t.ID] = cloneTreaty(t)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, treatyID id.TreatyID) (*models.Treaty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.treaties[treatyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTreaty(t), nil
}

// List returns all treaties with their status refreshed against now,
// matching the lazy-expiry read behavior of the registry.
func (s *InMemoryStore) List(_ context.Context, now time.Time) ([]*models.Treaty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Treaty, 0, len(s.treaties))
	for _, t := range s.treaties {
		t.Status = t.EffectiveStatus(now)
		out = append(out, cloneTreaty(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FindActiveByLOB returns treaties covering the line of business at the
// as-of time. Callers apply the deterministic tie-break.
func (s *InMemoryStore) FindActiveByLOB(_ context.Context, lob id.LineOfBusiness, asOf time.Time) ([]*models.Treaty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Treaty
	for _, t := range s.treaties {
		if t.Covers(lob, asOf) {
			out = append(out, cloneTreaty(t))
		}
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, t *models.Treaty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.treaties[t.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.treaties[t.ID] = cloneTreaty(t)
	return nil
}

func cloneTreaty(t *models.Treaty) *models.Treaty {
	clone := *t
	clone.ApplicableLOBs = append([]id.LineOfBusiness(nil), t.ApplicableLOBs...)
	return &clone
}
