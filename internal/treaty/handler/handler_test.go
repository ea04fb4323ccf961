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

	reinsurermodels "cedent/internal/reinsurer/models"
	reinsurerservice "cedent/internal/reinsurer/service"
	reinsurerstore "cedent/internal/reinsurer/store"
	"cedent/internal/treaty/models"
	"cedent/internal/treaty/service"
	"cedent/internal/treaty/store"
	id "cedent/pkg/domain"
	"cedent/pkg/requestcontext"
	"cedent/pkg/testutil"
)

type TreatyHandlerSuite struct {
	suite.Suite
	router http.Handler
	now    time.Time
}

func TestTreatyHandlerSuite(t *testing.T) {
	suite.Run(t, new(TreatyHandlerSuite))
}

func (s *TreatyHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reinsurers := reinsurerstore.NewInMemory()
	r, err := reinsurermodels.NewReinsurer(
		id.ReinsurerID(uuid.New()), "Global Re", "GRE", "CH",
		reinsurermodels.RatingAA, "contact@globalre.example", s.now)
	s.Require().NoError(err)
	s.Require().NoError(reinsurers.Create(s.T().Context(), r))

	svc := service.New(store.NewInMemory(), reinsurerservice.New(reinsurers, nil), nil)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTime(req.Context(), s.now)
			ctx = requestcontext.WithActorID(ctx, id.UserID(uuid.New()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, log).Register(router)
	s.router = router
}

func (s *TreatyHandlerSuite) createInput() map[string]any {
	return map[string]any{
		"name":             "Property Quota 2025",
		"type":             "QUOTA_SHARE",
		"reinsurer_code":   "GRE",
		"share_percentage": 30.0,
		"treaty_limit":     5_000_000.0,
		"applicable_lobs":  []string{"PROPERTY"},
		"effective_from":   s.now,
		"effective_to":     s.now.AddDate(1, 0, 0),
	}
}

func (s *TreatyHandlerSuite) TestCreateAndList() {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/treaties", s.createInput()))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := testutil.DecodeResponse[models.Treaty](s.T(), rec)
	s.Equal("Property Quota 2025", created.Name)

	rec = testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/treaties", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	listed := testutil.DecodeResponse[[]models.Treaty](s.T(), rec)
	s.Require().Len(*listed, 1)
	s.Equal(created.ID, (*listed)[0].ID)
}

func (s *TreatyHandlerSuite) TestCreateWithUnknownReinsurerCode() {
	in := s.createInput()
	in["reinsurer_code"] = "NOPE"

	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/treaties", in))
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "structural_invalid")
}

func (s *TreatyHandlerSuite) TestUpdateTreatyLimit() {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/treaties", s.createInput()))
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := testutil.DecodeResponse[models.Treaty](s.T(), rec)

	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPut, "/treaties/"+created.ID.String(),
		map[string]any{"treaty_limit": 8_000_000.0}))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(8_000_000.0, testutil.DecodeResponse[models.Treaty](s.T(), rec).TreatyLimit)
}

func (s *TreatyHandlerSuite) TestMalformedTreatyID() {
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/treaties/not-a-uuid", nil))
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "bad_request")
}
