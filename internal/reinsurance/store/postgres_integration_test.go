//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	policymodels "cedent/internal/policy/models"
	policystore "cedent/internal/policy/store"
	"cedent/internal/reinsurance/models"
	"cedent/internal/reinsurance/store"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
	"cedent/pkg/testutil/containers"
)

type PostgresAllocationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	policies *policystore.PostgresStore
}

func TestPostgresAllocationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAllocationSuite))
}

func (s *PostgresAllocationSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.policies = policystore.NewPostgres(s.postgres.DB)
}

func (s *PostgresAllocationSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "risk_allocations", "claims", "policies")
	s.Require().NoError(err)
}

func (s *PostgresAllocationSuite) seedPolicy() *policymodels.Policy {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p, err := policymodels.NewPolicy(
		id.PolicyID(uuid.New()), "P-"+uuid.NewString()[:8],
		"Acme Industries", policymodels.InsuredCorporate, id.LOBProperty,
		1_000_000, 25_000, 400_000,
		now, now.AddDate(1, 0, 0), id.UserID(uuid.New()), now)
	s.Require().NoError(err)
	s.Require().NoError(s.policies.Create(context.Background(), p))
	return p
}

func newAllocationFor(policyID id.PolicyID) *models.RiskAllocation {
	return &models.RiskAllocation{
		ID:       id.AllocationID(uuid.New()),
		PolicyID: policyID,
		Lines: []models.AllocationLine{{
			ReinsurerID:         id.ReinsurerID(uuid.New()),
			TreatyID:            id.TreatyID(uuid.New()),
			AllocatedAmount:     300_000,
			AllocatedPercentage: 30,
		}},
		RetainedAmount: 700_000,
		CalculatedBy:   id.UserID(uuid.New()),
		CalculatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresAllocationSuite) TestRoundTrip() {
	ctx := context.Background()
	p := s.seedPolicy()
	a := newAllocationFor(p.ID)
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByPolicy(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal(a.Lines, found.Lines)
	s.Equal(a.RetainedAmount, found.RetainedAmount)
}

func (s *PostgresAllocationSuite) TestUniquePolicyConstraint() {
	ctx := context.Background()
	p := s.seedPolicy()
	s.Require().NoError(s.store.Create(ctx, newAllocationFor(p.ID)))

	err := s.store.Create(ctx, newAllocationFor(p.ID))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentCreateSingleWinner verifies the unique constraint turns
// a creation race into a single winner and clean conflicts.
func (s *PostgresAllocationSuite) TestConcurrentCreateSingleWinner() {
	ctx := context.Background()
	p := s.seedPolicy()

	const racers = 20
	var wg sync.WaitGroup
	var winners atomic.Int32
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Create(ctx, newAllocationFor(p.ID)); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), winners.Load())
}
