package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/finentry/finentry/internal/assistant"
	audithttp "github.com/finentry/finentry/internal/audit/http"
	"github.com/finentry/finentry/internal/auth"
	"github.com/finentry/finentry/internal/delivery"
	"github.com/finentry/finentry/internal/inventory"
	"github.com/finentry/finentry/internal/masterdata"
	"github.com/finentry/finentry/internal/masterdata/companies"
	"github.com/finentry/finentry/internal/observability"
	"github.com/finentry/finentry/internal/reports"
	"github.com/finentry/finentry/internal/shared"
	"github.com/finentry/finentry/internal/transactions"
	"github.com/finentry/finentry/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Auth      auth.Middleware
	Directory shared.CompanyDirectory
	Metrics   *observability.Metrics

	AuthHandler         *auth.Handler
	TransactionsHandler *transactions.Handler
	MasterDataHandler   *masterdata.Handler
	CompaniesHandler    *companies.Handler
	InventoryHandler    *inventory.Handler
	DeliveryHandler     *delivery.Handler
	ReportsHandler      *reports.Handler
	AssistantHandler    *assistant.Handler
	AuditHandler        *audithttp.Handler
	JobHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with the API layout.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	var importLimit, aiLimit func(http.Handler) http.Handler
	if params.Config != nil {
		importLimit = UserRateLimit(params.Config.ImportRatePerMinute)
		aiLimit = UserRateLimit(params.Config.AIRatePerMinute)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Auth.Authenticate)

			r.Group(func(r chi.Router) {
				r.Use(params.Auth.RequireCompanyOnCreate(params.Directory))
				r.Route("/transactions", func(r chi.Router) {
					params.TransactionsHandler.MountRoutes(r, importLimit)
				})
				params.MasterDataHandler.MountRoutes(r)
				r.Route("/logistics/delivery-orders", params.DeliveryHandler.MountOrderRoutes)
				r.Route("/master-data", params.DeliveryHandler.MountFleetRoutes)
			})

			// adjustments target an existing item and take its company
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
			r.Route("/reports", params.ReportsHandler.MountRoutes)
			params.AuditHandler.MountRoutes(r)
			r.Route("/ai", func(r chi.Router) {
				if aiLimit != nil {
					r.Use(aiLimit)
				}
				params.AssistantHandler.MountRoutes(r)
			})
			r.Route("/admin", func(r chi.Router) {
				r.Use(params.Auth.RequireOwner)
				params.ReportsHandler.MountAdminRoutes(r)
				r.Route("/companies", params.CompaniesHandler.MountRoutes)
				if params.JobHandler != nil {
					params.JobHandler.MountAdminRoutes(r)
				}
			})
		})
	})

	return r
}
