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

	"cedent/internal/policy/models"
	"cedent/internal/policy/service"
	"cedent/internal/policy/store"
	"cedent/internal/sequence"
	id "cedent/pkg/domain"
	"cedent/pkg/requestcontext"
	"cedent/pkg/testutil"
)

type noopEngine struct{}

func (noopEngine) Allocate(_ context.Context, _ *models.Policy) error { return nil }

type PolicyHandlerSuite struct {
	suite.Suite
	router http.Handler
	bare   http.Handler // no actor middleware
	now    time.Time
}

func TestPolicyHandlerSuite(t *testing.T) {
	suite.Run(t, new(PolicyHandlerSuite))
}

func (s *PolicyHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), sequence.NewInMemoryAllocator(), noopEngine{}, nil, nil, log)
	h := New(svc, log)

	authed := chi.NewRouter()
	authed.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTime(req.Context(), s.now)
			ctx = requestcontext.WithActorID(ctx, id.UserID(uuid.New()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(authed)
	s.router = authed

	bare := chi.NewRouter()
	h.Register(bare)
	s.bare = bare
}

func (s *PolicyHandlerSuite) createInput() map[string]any {
	return map[string]any{
		"insured_name":    "Acme Industries",
		"insured_type":    "CORPORATE",
		"line_of_business": "PROPERTY",
		"sum_insured":     1_000_000.0,
		"premium":         10_000.0,
		"retention_limit": 400_000.0,
		"effective_from":  s.now,
		"effective_to":    s.now.AddDate(1, 0, 0),
	}
}

func (s *PolicyHandlerSuite) create() *models.Policy {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/policies", s.createInput()))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return testutil.DecodeResponse[models.Policy](s.T(), rec)
}

func (s *PolicyHandlerSuite) post(path string, body any) *models.Policy {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return testutil.DecodeResponse[models.Policy](s.T(), rec)
}

func (s *PolicyHandlerSuite) TestCreateAssignsSequentialNumber() {
	first := s.create()
	second := s.create()
	s.Equal("P001", first.PolicyNumber)
	s.Equal("P002", second.PolicyNumber)
	s.Equal(models.StatusDraft, first.Status)
}

func (s *PolicyHandlerSuite) TestCreateWithoutActorIsUnauthorized() {
	rec := testutil.DoRequest(s.bare,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/policies", s.createInput()))
	s.Require().Equal(http.StatusUnauthorized, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "unauthorized")
}

func (s *PolicyHandlerSuite) TestLifecycleOverRoutes() {
	p := s.create()
	base := "/policies/" + p.PolicyNumber

	s.Equal(models.StatusSubmitted, s.post(base+"/submit", nil).Status)
	s.Equal(models.StatusUnderwritingReview, s.post(base+"/review", nil).Status)
	s.Equal(models.StatusApproved, s.post(base+"/approve", nil).Status)
	s.Equal(models.StatusActive, s.post(base+"/activate", nil).Status)

	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, base, nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(models.StatusActive, testutil.DecodeResponse[models.Policy](s.T(), rec).Status)
}

func (s *PolicyHandlerSuite) TestRejectRequiresReason() {
	p := s.create()

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/policies/"+p.PolicyNumber+"/reject", map[string]string{}))
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "bad_request")
}

func (s *PolicyHandlerSuite) TestActivateDraftConflicts() {
	p := s.create()

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/policies/"+p.PolicyNumber+"/activate", nil))
	s.Require().Equal(http.StatusConflict, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "invalid_transition")
}

func (s *PolicyHandlerSuite) TestGetUnknownPolicyIsNotFound() {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/policies/P404", nil))
	s.Require().Equal(http.StatusNotFound, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "not_found")
}
