package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cedent/internal/claim/models"
	"cedent/internal/claim/service"
	"cedent/internal/claim/store"
	policymodels "cedent/internal/policy/models"
	policyservice "cedent/internal/policy/service"
	policystore "cedent/internal/policy/store"
	"cedent/internal/sequence"
	id "cedent/pkg/domain"
	"cedent/pkg/requestcontext"
	"cedent/pkg/testutil"
)

type noopEngine struct{}

func (noopEngine) Allocate(_ context.Context, _ *policymodels.Policy) error { return nil }

type ClaimHandlerSuite struct {
	suite.Suite
	router   http.Handler
	policies *policystore.InMemoryStore
	now      time.Time
}

func TestClaimHandlerSuite(t *testing.T) {
	suite.Run(t, new(ClaimHandlerSuite))
}

func (s *ClaimHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.policies = policystore.NewInMemory()
	numbers := sequence.NewInMemoryAllocator()

	policySvc := policyservice.New(s.policies, numbers, noopEngine{}, nil, nil, log)
	claimSvc := service.New(store.NewInMemory(), policySvc, numbers, nil, nil)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTime(req.Context(), s.now)
			ctx = requestcontext.WithActorID(ctx, id.UserID(uuid.New()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(claimSvc, log).Register(router)
	s.router = router
}

func (s *ClaimHandlerSuite) addActivePolicy(sumInsured float64) *policymodels.Policy {
	p, err := policymodels.NewPolicy(
		id.PolicyID(uuid.New()), "P"+uuid.NewString()[:8],
		"Acme Industries", policymodels.InsuredCorporate, id.LOBProperty,
		sumInsured, 10_000, 0,
		s.now.AddDate(0, -1, 0), s.now.AddDate(1, 0, 0),
		id.UserID(uuid.New()), s.now)
	s.Require().NoError(err)
	p.ApplyApprove(id.UserID(uuid.New()), s.now)
	p.ApplyActivate(s.now)
	s.Require().NoError(s.policies.Create(s.T().Context(), p))
	return p
}

func (s *ClaimHandlerSuite) createClaim(policyNumber string, amount float64) *models.Claim {
	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims", map[string]any{
			"policy_number": policyNumber,
			"claim_amount":  amount,
			"incident_date": s.now.AddDate(0, 0, -3),
		}))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return testutil.DecodeResponse[models.Claim](s.T(), rec)
}

func (s *ClaimHandlerSuite) TestCreateClaim() {
	p := s.addActivePolicy(1_000_000)

	c := s.createClaim(p.PolicyNumber, 50_000)
	s.Equal("C001", c.ClaimNumber)
	s.Equal(models.StatusInReview, c.Status)
	s.Require().Len(c.Timeline, 1)
	s.Equal("Claim submitted for review.", c.Timeline[0].Message)
}

func (s *ClaimHandlerSuite) TestCreateAgainstUnknownPolicy() {
	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims", map[string]any{
			"policy_number": "P404",
			"claim_amount":  50_000.0,
			"incident_date": s.now,
		}))
	s.Require().Equal(http.StatusNotFound, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "not_found")
}

func (s *ClaimHandlerSuite) TestApproveThenSettle() {
	p := s.addActivePolicy(1_000_000)
	c := s.createClaim(p.PolicyNumber, 50_000)

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims/"+c.ID.String()+"/approve",
		map[string]float64{"approved_amount": 40_000}))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	approved := testutil.DecodeResponse[models.Claim](s.T(), rec)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(40_000.0, approved.ApprovedAmount)

	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims/"+c.ID.String()+"/settle", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	settled := testutil.DecodeResponse[models.Claim](s.T(), rec)
	s.Equal(models.StatusSettled, settled.Status)
	s.Equal("Claim settled.", settled.Timeline[len(settled.Timeline)-1].Message)
}

func (s *ClaimHandlerSuite) TestApproveAboveClaimAmountFails() {
	p := s.addActivePolicy(1_000_000)
	c := s.createClaim(p.PolicyNumber, 50_000)

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims/"+c.ID.String()+"/approve",
		map[string]float64{"approved_amount": 60_000}))
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "structural_invalid")
}

func (s *ClaimHandlerSuite) TestMalformedClaimID() {
	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/claims/not-a-uuid/settle", nil))
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "bad_request")
}

func (s *ClaimHandlerSuite) TestListByPolicyFilter() {
	p := s.addActivePolicy(1_000_000)
	other := s.addActivePolicy(500_000)
	s.createClaim(p.PolicyNumber, 10_000)
	s.createClaim(other.PolicyNumber, 20_000)

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodGet, "/claims?policy="+p.PolicyNumber, nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	claims := testutil.DecodeResponse[[]models.Claim](s.T(), rec)
	s.Require().Len(*claims, 1)
	s.Equal(p.PolicyNumber, (*claims)[0].PolicyNumber)
}
