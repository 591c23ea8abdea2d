package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

// Handler serves report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	clock   func() time.Time
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, clock: time.Now}
}

// MountRoutes registers /api/reports routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/income-statement", h.handleIncomeStatement)
}

// MountAdminRoutes registers owner-only routes under /api/admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/overview", h.handleOverview)
}

func (h *Handler) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	report, err := h.service.IncomeStatement(r.Context(), scope, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	stats, err := h.service.CompanyOverview(r.Context(), scope, h.clock())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if stats == nil {
		stats = []CompanyStats{}
	}
	httpx.JSON(w, http.StatusOK, stats)
}
