package delivery

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

// Handler wires HTTP endpoints for logistics.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	orders, err := h.service.ListOrders(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in OrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), scope, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) listDrivers(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	drivers, err := h.service.ListDrivers(r.Context(), scope, r.URL.Query().Get("search"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if drivers == nil {
		drivers = []Driver{}
	}
	httpx.JSON(w, http.StatusOK, drivers)
}

func (h *Handler) createDriver(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in DriverInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	driver, err := h.service.CreateDriver(r.Context(), scope, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, driver)
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	vehicles, err := h.service.ListVehicles(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	httpx.JSON(w, http.StatusOK, vehicles)
}

func (h *Handler) createVehicle(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in VehicleInput
	if err := httpx.Bind(r, h.validator, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	vehicle, err := h.service.CreateVehicle(r.Context(), scope, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vehicle)
}
