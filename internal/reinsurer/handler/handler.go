package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cedent/internal/reinsurer/service"
	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
	"cedent/pkg/platform/httputil"
)

// Handler exposes the reinsurer registry over HTTP.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/reinsurers", h.handleCreate)
	r.Get("/reinsurers", h.handleList)
	r.Get("/reinsurers/{id}", h.handleGet)
	r.Put("/reinsurers/{id}", h.handleUpdate)
	r.Delete("/reinsurers/{id}", h.handleRetire)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.logger.WarnContext(r.Context(), "create reinsurer failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reinsurers, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reinsurers)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reinsurerID, err := id.ParseReinsurerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid reinsurer id"))
		return
	}
	found, err := h.svc.Get(r.Context(), reinsurerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reinsurerID, err := id.ParseReinsurerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid reinsurer id"))
		return
	}
	var in service.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.svc.Update(r.Context(), reinsurerID, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	reinsurerID, err := id.ParseReinsurerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid reinsurer id"))
		return
	}
	retired, err := h.svc.Retire(r.Context(), reinsurerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, retired)
}
