// Package masterdata groups the company-owned reference records that
// transactions point at.
package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/masterdata/customers"
	"github.com/finentry/finentry/internal/masterdata/items"
	"github.com/finentry/finentry/internal/masterdata/vendors"
)

// Handler manages master data endpoints.
type Handler struct {
	items     *items.Handler
	customers *customers.Handler
	vendors   *vendors.Handler
}

// NewHandler wires the master data sub-handlers on one pool.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool) *Handler {
	return &Handler{
		items:     items.NewHandler(logger, items.NewService(items.NewRepository(pool))),
		customers: customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool))),
		vendors:   vendors.NewHandler(logger, vendors.NewService(vendors.NewRepository(pool))),
	}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/items", h.items.MountRoutes)
	r.Route("/customers", h.customers.MountRoutes)
	r.Route("/vendors", h.vendors.MountRoutes)
}
