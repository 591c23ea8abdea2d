package assistant

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

// Handler serves /api/ai.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/ask", h.handleAsk)
	r.Get("/config", h.handleGetConfig)
	r.Post("/config", h.handleSaveConfig)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var input AskInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	answer, err := h.service.Ask(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, answer)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	cfg, err := h.service.GetConfig(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var input ConfigInput
	if err := httpx.Bind(r, h.validator, &input); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	cfg, err := h.service.SaveConfig(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}
