package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	policymodels "cedent/internal/policy/models"
	policystore "cedent/internal/policy/store"
	"cedent/internal/reinsurance/models"
	"cedent/internal/reinsurance/service"
	allocationstore "cedent/internal/reinsurance/store"
	reinsurermodels "cedent/internal/reinsurer/models"
	reinsurerstore "cedent/internal/reinsurer/store"
	treatymodels "cedent/internal/treaty/models"
	treatystore "cedent/internal/treaty/store"
	id "cedent/pkg/domain"
	"cedent/pkg/requestcontext"
	"cedent/pkg/testutil"
)

type AllocationHandlerSuite struct {
	suite.Suite
	router    http.Handler
	treaties  *treatystore.InMemoryStore
	policies  *policystore.InMemoryStore
	reinsurer *reinsurermodels.Reinsurer
	now       time.Time
}

func TestAllocationHandlerSuite(t *testing.T) {
	suite.Run(t, new(AllocationHandlerSuite))
}

func (s *AllocationHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.treaties = treatystore.NewInMemory()
	s.policies = policystore.NewInMemory()
	reinsurers := reinsurerstore.NewInMemory()

	r, err := reinsurermodels.NewReinsurer(
		id.ReinsurerID(uuid.New()), "Global Re", "GRE", "CH",
		reinsurermodels.RatingAA, "contact@globalre.example", s.now)
	s.Require().NoError(err)
	s.Require().NoError(reinsurers.Create(s.T().Context(), r))
	s.reinsurer = r

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(allocationstore.NewInMemory(), s.treaties, s.policies, reinsurers, nil, nil, log)

	router := chi.NewRouter()
	router.Use(s.requestScope)
	New(svc, log).Register(router)
	s.router = router
}

// requestScope stands in for the auth and request middleware the full
// router carries.
func (s *AllocationHandlerSuite) requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := requestcontext.WithTime(req.Context(), s.now)
		ctx = requestcontext.WithActorID(ctx, id.UserID(uuid.New()))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func (s *AllocationHandlerSuite) addTreaty(share float64) {
	t, err := treatymodels.NewTreaty(
		id.TreatyID(uuid.New()), "Property Quota", treatymodels.TypeQuotaShare,
		s.reinsurer.ID, share, 0, 5_000_000,
		[]id.LineOfBusiness{id.LOBProperty},
		s.now.AddDate(0, -1, 0), s.now.AddDate(1, 0, 0), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.treaties.Create(s.T().Context(), t))
}

func (s *AllocationHandlerSuite) addActivePolicy(sumInsured float64) *policymodels.Policy {
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

func (s *AllocationHandlerSuite) TestAllocateQuotaShare() {
	s.addTreaty(30)
	p := s.addActivePolicy(1_000_000)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/allocations/"+p.PolicyNumber, nil)
	rec := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	allocation := testutil.DecodeResponse[models.RiskAllocation](s.T(), rec)
	s.Require().Len(allocation.Lines, 1)
	s.Equal(300_000.0, allocation.Lines[0].AllocatedAmount)
	s.Equal(700_000.0, allocation.RetainedAmount)
}

func (s *AllocationHandlerSuite) TestAllocateWithoutTreatyIsBenign() {
	p := s.addActivePolicy(1_000_000)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/allocations/"+p.PolicyNumber, nil)
	rec := testutil.DoRequest(s.router, req)

	// A missing treaty is a legitimate outcome, not an error.
	s.Require().Equal(http.StatusOK, rec.Code)
	body := testutil.DecodeResponse[map[string]string](s.T(), rec)
	s.Equal("No active treaty found. Risk not allocated.", (*body)["message"])
}

func (s *AllocationHandlerSuite) TestAllocateUnknownPolicyIsNotFound() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/allocations/P404", nil)
	rec := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusNotFound, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "not_found")
}

func (s *AllocationHandlerSuite) TestGetAllocationBeforeAllocating() {
	p := s.addActivePolicy(1_000_000)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/allocations/"+p.PolicyNumber, nil)
	rec := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	body := testutil.DecodeResponse[map[string]string](s.T(), rec)
	s.Equal("No risk allocation found.", (*body)["message"])
}

func (s *AllocationHandlerSuite) TestValidateRequiresPolicyNumber() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/allocations/validate", map[string]any{
		"allocations": []models.ProposedLine{},
	})
	rec := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "bad_request")
}

func (s *AllocationHandlerSuite) TestExposureSummary() {
	s.addTreaty(30)
	p := s.addActivePolicy(1_000_000)

	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/allocations/"+p.PolicyNumber, nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/exposure/"+p.PolicyNumber, nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	summary := testutil.DecodeResponse[models.ExposureSummary](s.T(), rec)
	s.Equal(p.PolicyNumber, summary.PolicyNumber)
	s.Equal(30.0, summary.CededPercentage)
	s.Equal(70.0, summary.RetainedPercentage)
}
