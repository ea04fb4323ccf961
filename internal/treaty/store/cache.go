package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cedent/internal/treaty/models"
	id "cedent/pkg/domain"
)

const activeTreatyKeyPrefix = "treaty:active:"

// Store is the treaty persistence contract the cache decorates.
type Store interface {
	Create(ctx context.Context, t *models.Treaty) error
	FindByID(ctx context.Context, treatyID id.TreatyID) (*models.Treaty, error)
	List(ctx context.Context, now time.Time) ([]*models.Treaty, error)
	FindActiveByLOB(ctx context.Context, lob id.LineOfBusiness, asOf time.Time) ([]*models.Treaty, error)
	Update(ctx context.Context, t *models.Treaty) error
}

// CachedStore layers a Redis read-through cache over the active-treaty
// lookup, the hot path of every policy activation. Writes invalidate the
// affected lines of business. Cache failures fall back to the inner
// store; treaty matching must not depend on Redis availability.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Create(ctx context.Context, t *models.Treaty) error {
	if err := s.inner.Create(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.ApplicableLOBs)
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, treatyID id.TreatyID) (*models.Treaty, error) {
	return s.inner.FindByID(ctx, treatyID)
}

func (s *CachedStore) List(ctx context.Context, now time.Time) ([]*models.Treaty, error) {
	return s.inner.List(ctx, now)
}

func (s *CachedStore) FindActiveByLOB(ctx context.Context, lob id.LineOfBusiness, asOf time.Time) ([]*models.Treaty, error) {
	key := activeTreatyKeyPrefix + string(lob)
	cached, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var treaties []*models.Treaty
		if err := json.Unmarshal(cached, &treaties); err == nil {
			// Effective dates still need checking: the cache holds the
			// candidate set, not the as-of filtered result.
			var covering []*models.Treaty
			for _, t := range treaties {
				if t.Covers(lob, asOf) {
					covering = append(covering, t)
				}
			}
			return covering, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "treaty cache read failed", "lob", lob, "error", err)
	}

	treaties, err := s.inner.FindActiveByLOB(ctx, lob, asOf)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(treaties); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "treaty cache write failed", "lob", lob, "error", err)
		}
	}
	return treaties, nil
}

func (s *CachedStore) Update(ctx context.Context, t *models.Treaty) error {
	if err := s.inner.Update(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.ApplicableLOBs)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, lobs []id.LineOfBusiness) {
	keys := make([]string, len(lobs))
	for i, lob := range lobs {
		keys[i] = activeTreatyKeyPrefix + string(lob)
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WarnContext(ctx, "treaty cache invalidation failed",
			"keys", fmt.Sprintf("%v", keys), "error", err)
	}
}
