package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cedent/internal/policy/service"
	dErrors "cedent/pkg/domain-errors"
	"cedent/pkg/platform/httputil"
)

// Handler exposes the policy lifecycle over HTTP.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/policies", h.handleCreate)
	r.Get("/policies", h.handleList)
	r.Get("/policies/{number}", h.handleGet)
	r.Post("/policies/{number}/submit", h.handleSubmit)
	r.Post("/policies/{number}/review", h.handleStartReview)
	r.Post("/policies/{number}/approve", h.handleApprove)
	r.Post("/policies/{number}/reject", h.handleReject)
	r.Post("/policies/{number}/activate", h.handleActivate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.logger.WarnContext(r.Context(), "create policy failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	policies, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policies)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Get(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Submit(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.StartReview(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Approve(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.svc.Reject(r.Context(), chi.URLParam(r, "number"), in.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Activate(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
