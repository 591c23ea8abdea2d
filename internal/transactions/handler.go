package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/platform/httpx"
	"github.com/finentry/finentry/internal/shared"
)

const importModule = "transactions:import"

// IdempotencyPort guards replayed import batches.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Handler wires HTTP endpoints for transactions.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyPort
}

// NewHandler constructs the handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyPort) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers transaction routes. importLimit wraps the import
// endpoint when set.
func (h *Handler) MountRoutes(r chi.Router, importLimit func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	if importLimit != nil {
		r.With(importLimit).Post("/import", h.handleImport)
	} else {
		r.Post("/import", h.handleImport)
	}
	r.Get("/{id}", h.handleShow)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	from, to, err := ParseRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	filter := Filter{
		StartDate:      from,
		EndDate:        to,
		Type:           Type(strings.ToLower(strings.TrimSpace(q.Get("type")))),
		DeliveryStatus: DeliveryStatus(strings.TrimSpace(q.Get("deliveryStatus"))),
	}
	if raw := strings.TrimSpace(q.Get("customerId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, h.logger, fmt.Errorf("%w: invalid customerId", shared.ErrValidation))
			return
		}
		filter.CustomerID = &id
	}
	list, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []Transaction{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	created, err := h.service.Create(r.Context(), scope, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// handleShow serves one transaction. Owners may pass includeDeleted=true.
func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var t Transaction
	if r.URL.Query().Get("includeDeleted") == "true" {
		t, err = h.service.GetIncludingDeleted(r.Context(), scope, id)
	} else {
		t, err = h.service.Get(r.Context(), scope, id)
	}
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), scope, id, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.UUIDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.SoftDelete(r.Context(), scope, id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	scope, err := shared.ScopeFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var rows []map[string]any
	if err := decodeRows(r, &rows); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	module := importModule + ":" + scope.CompanyID.String()
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, module); err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
	}
	result, err := h.service.Import(r.Context(), scope, rows)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if delErr := h.idempotency.Delete(context.WithoutCancel(r.Context()), key, module); delErr != nil {
				h.logger.Warn("idempotency rollback failed", "key", key, "error", delErr)
			}
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// decodeRows requires the body to be a JSON array of row objects.
func decodeRows(r *http.Request, rows *[]map[string]any) error {
	var body json.RawMessage
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, rows); err != nil {
		return fmt.Errorf("%w: import body must be an array of rows", shared.ErrValidation)
	}
	return nil
}
