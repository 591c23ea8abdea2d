package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/levels", h.handleLevels)
	r.Post("/adjustments", h.handleAdjustment)
}

func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	levels, err := h.service.ListLevels(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if levels == nil {
		levels = []Level{}
	}
	httpx.JSON(w, http.StatusOK, levels)
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var input AdjustmentInput
	if err := httpx.Bind(r, h.validator, &input); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	level, err := h.service.PostAdjustment(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, level)
}
