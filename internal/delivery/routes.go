// Package delivery dispatches invoices to vehicles and drivers through
// numbered delivery orders.
package delivery

import "github.com/go-chi/chi/v5"

// MountOrderRoutes registers /api/logistics/delivery-orders.
func (h *Handler) MountOrderRoutes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Post("/", h.createOrder)
}

// MountFleetRoutes registers drivers and vehicles under /api/master-data.
func (h *Handler) MountFleetRoutes(r chi.Router) {
	r.Route("/drivers", func(r chi.Router) {
		r.Get("/", h.listDrivers)
		r.Post("/", h.createDriver)
	})
	r.Route("/vehicles", func(r chi.Router) {
		r.Get("/", h.listVehicles)
		r.Post("/", h.createVehicle)
	})
}
