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

	"cedent/internal/reinsurer/models"
	"cedent/internal/reinsurer/service"
	"cedent/internal/reinsurer/store"
	id "cedent/pkg/domain"
	"cedent/pkg/requestcontext"
	"cedent/pkg/testutil"
)

type ReinsurerHandlerSuite struct {
	suite.Suite
	router http.Handler
	now    time.Time
}

func TestReinsurerHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReinsurerHandlerSuite))
}

func (s *ReinsurerHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), nil)

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

func (s *ReinsurerHandlerSuite) create(code string) *models.Reinsurer {
	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/reinsurers", map[string]string{
			"name":          "Global Re",
			"code":          code,
			"country":       "CH",
			"rating":        "AA",
			"contact_email": "contact@globalre.example",
		}))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return testutil.DecodeResponse[models.Reinsurer](s.T(), rec)
}

func (s *ReinsurerHandlerSuite) TestCreateAndGet() {
	created := s.create("GRE")
	s.Equal(models.StatusActive, created.Status)

	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/reinsurers/"+created.ID.String(), nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("GRE", testutil.DecodeResponse[models.Reinsurer](s.T(), rec).Code)
}

func (s *ReinsurerHandlerSuite) TestDuplicateCodeConflicts() {
	s.create("GRE")

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/reinsurers", map[string]string{
			"name":          "Other Re",
			"code":          "GRE",
			"country":       "DE",
			"rating":        "A",
			"contact_email": "other@re.example",
		}))
	s.Require().Equal(http.StatusConflict, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "conflict")
}

func (s *ReinsurerHandlerSuite) TestRetire() {
	created := s.create("GRE")

	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodDelete, "/reinsurers/"+created.ID.String(), nil))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(models.StatusRetired, testutil.DecodeResponse[models.Reinsurer](s.T(), rec).Status)
}

func (s *ReinsurerHandlerSuite) TestUpdateRetiredReinsurerConflicts() {
	created := s.create("GRE")
	rec := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodDelete, "/reinsurers/"+created.ID.String(), nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPut, "/reinsurers/"+created.ID.String(),
		map[string]string{"name": "Renamed Re"}))
	s.Require().Equal(http.StatusConflict, rec.Code)
	testutil.AssertErrorCode(s.T(), rec, "invalid_transition")
}
