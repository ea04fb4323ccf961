//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cedent/internal/treaty/models"
	"cedent/internal/treaty/store"
	id "cedent/pkg/domain"
	"cedent/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *store.InMemoryStore
	store *store.CachedStore
	now   time.Time
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = store.NewInMemory()
	s.store = store.NewCached(s.inner, s.redis.Client, time.Minute, slog.Default())
	s.now = time.Now().UTC()
}

func (s *CachedStoreSuite) newTreaty(lobs ...id.LineOfBusiness) *models.Treaty {
	if len(lobs) == 0 {
		lobs = []id.LineOfBusiness{id.LOBProperty}
	}
	t, err := models.NewTreaty(
		id.TreatyID(uuid.New()), "Property Quota "+uuid.NewString()[:8],
		models.TypeQuotaShare, id.ReinsurerID(uuid.New()),
		30, 0, 5_000_000, lobs,
		s.now.AddDate(0, -1, 0), s.now.AddDate(1, 0, 0), s.now)
	s.Require().NoError(err)
	return t
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	t := s.newTreaty()
	s.Require().NoError(s.store.Create(ctx, t))

	// First read populates the cache, second read hits it.
	first, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, s.now)
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	second, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, s.now)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal(first[0].ID, second[0].ID)
}

func (s *CachedStoreSuite) TestCreateInvalidatesAffectedLOB() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newTreaty()))

	cached, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, s.now)
	s.Require().NoError(err)
	s.Require().Len(cached, 1)

	s.Require().NoError(s.store.Create(ctx, s.newTreaty()))

	refreshed, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, s.now)
	s.Require().NoError(err)
	s.Len(refreshed, 2)
}

func (s *CachedStoreSuite) TestExpiredTreatyFilteredFromCachedEntries() {
	ctx := context.Background()
	t := s.newTreaty()
	s.Require().NoError(s.store.Create(ctx, t))

	_, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, s.now)
	s.Require().NoError(err)

	// Cached entries are re-filtered against the as-of time, so a query
	// past the effective range returns nothing even on a cache hit.
	after := t.EffectiveTo.AddDate(0, 0, 1)
	expired, err := s.store.FindActiveByLOB(ctx, id.LOBProperty, after)
	s.Require().NoError(err)
	s.Empty(expired)
}
