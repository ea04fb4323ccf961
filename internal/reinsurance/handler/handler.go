package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cedent/internal/reinsurance/models"
	"cedent/internal/reinsurance/service"
	dErrors "cedent/pkg/domain-errors"
	"cedent/pkg/platform/httputil"
)

// Handler exposes the reinsurance engine over HTTP. Benign engine
// outcomes surface as 200 {message} responses rather than errors.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/allocations/validate", h.handleValidate)
	r.Post("/allocations/{number}", h.handleAllocate)
	r.Get("/allocations/{number}", h.handleGetAllocation)
	r.Get("/exposure", h.handleTotalExposure)
	r.Get("/exposure/{number}", h.handleExposure)
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.svc.AllocateByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		if !dErrors.IsBenign(err) {
			h.logger.WarnContext(r.Context(), "allocate risk failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, allocation)
}

func (h *Handler) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.svc.GetAllocation(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, allocation)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PolicyNumber string                `json:"policy_number"`
		Allocations  []models.ProposedLine `json:"allocations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if in.PolicyNumber == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "policy_number is required"))
		return
	}

	result, err := h.svc.Validate(r.Context(), in.PolicyNumber, in.Allocations)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExposure(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Exposure(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleTotalExposure(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.TotalExposure(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, total)
}
