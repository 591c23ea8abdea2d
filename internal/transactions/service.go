package transactions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/inventory"
	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	List(ctx context.Context, f Filter) ([]Transaction, error)
	Lookups(ctx context.Context, companyID uuid.UUID) (Lookups, error)
	InsertImported(ctx context.Context, t Transaction) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics counts writes and import outcomes.
type Metrics interface {
	TransactionWritten(op string)
	ImportRow(result string)
}

type noopMetrics struct{}

func (noopMetrics) TransactionWritten(string) {}
func (noopMetrics) ImportRow(string)          {}

// Service implements the transaction record store.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	locker  Locker
	metrics Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

// Option customises Service.
type Option func(*Service)

// WithLocker serialises invoice numbering through l.
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithMetrics records write counters.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		audit:   audit,
		metrics: noopMetrics{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates, computes, numbers and stores a transaction and applies
// its stock effect, all in one database transaction.
func (s *Service) Create(ctx context.Context, scope shared.Scope, in Input) (Transaction, error) {
	if scope.Unscoped {
		return Transaction{}, fmt.Errorf("%w: company required", shared.ErrValidation)
	}
	d, err := in.draft()
	if err != nil {
		return Transaction{}, err
	}
	if d.Type == TypeSale && s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.InvoiceLockKey(scope.CompanyID, d.Date))
		if err != nil {
			return Transaction{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("invoice lock release failed", "company_id", scope.CompanyID, "error", err)
			}
		}()
	}

	var created Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		refs, err := resolve(ctx, tx, scope.CompanyID, d)
		if err != nil {
			return err
		}
		tax := d.TaxType
		if !d.HasTaxType {
			tax = refs.item.DefaultTaxType
		}
		now := s.clock()
		t := Transaction{ID: uuid.New(), CompanyID: scope.CompanyID, CreatedAt: now, UpdatedAt: now}
		d.fill(&t, tax, refs)
		if t.Type == TypeSale {
			number, err := NextInvoiceNumber(ctx, tx, scope.CompanyID, t.Date)
			if err != nil {
				return err
			}
			t.InvoiceNumber = &number
		}
		if err := inventory.Apply(ctx, tx, t.Movement()); err != nil {
			return err
		}
		t.StockApplied = true
		if err := tx.Insert(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.metrics.TransactionWritten("create")
	s.record(ctx, scope.ActorID, created.CompanyID, "transaction:create", "transaction", created.ID.String(), map[string]any{
		"type":           created.Type,
		"invoice_number": created.InvoiceNumber,
		"revenue":        created.Revenue,
	})
	return created, nil
}

// Update recomputes every derived figure from the new input and moves stock
// from the old effect to the new one. The invoice number never changes.
func (s *Service) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, in Input) (Transaction, error) {
	d, err := in.draft()
	if err != nil {
		return Transaction{}, err
	}
	var updated Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !scope.Allows(existing.CompanyID) {
			return fmt.Errorf("%w: transaction belongs to another company", shared.ErrForbidden)
		}
		if existing.Deleted {
			return fmt.Errorf("%w: %v", shared.ErrConflict, ErrDeleted)
		}
		refs, err := resolve(ctx, tx, existing.CompanyID, d)
		if err != nil {
			return err
		}
		tax := d.TaxType
		if !d.HasTaxType {
			tax = existing.TaxType
		}
		next := existing
		next.UpdatedAt = s.clock()
		d.fill(&next, tax, refs)

		// imported rows never moved stock, so there is nothing to revert
		if existing.StockApplied {
			err = inventory.Replace(ctx, tx, existing.Movement(), next.Movement())
		} else {
			err = inventory.Apply(ctx, tx, next.Movement())
		}
		if err != nil {
			return err
		}
		next.StockApplied = true
		if err := tx.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	s.metrics.TransactionWritten("update")
	s.record(ctx, scope.ActorID, updated.CompanyID, "transaction:update", "transaction", updated.ID.String(), map[string]any{
		"type":    updated.Type,
		"revenue": updated.Revenue,
	})
	return updated, nil
}

// SoftDelete flags the transaction as deleted. Derived fields and stock are
// left untouched. Deleting twice is a no-op.
func (s *Service) SoftDelete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	var deleted Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !scope.Allows(existing.CompanyID) {
			return fmt.Errorf("%w: transaction belongs to another company", shared.ErrForbidden)
		}
		if existing.Deleted {
			return nil
		}
		deleted = existing
		return tx.MarkDeleted(ctx, id)
	})
	if err != nil {
		return err
	}
	if deleted.ID == uuid.Nil {
		return nil
	}
	s.metrics.TransactionWritten("delete")
	s.record(ctx, scope.ActorID, deleted.CompanyID, "transaction:delete", "transaction", id.String(), map[string]any{
		"invoice_number": deleted.InvoiceNumber,
	})
	return nil
}

// Get returns an active transaction visible in scope. Other tenants'
// records read as not found.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (Transaction, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.Deleted || !scope.Allows(t.CompanyID) {
		return Transaction{}, fmt.Errorf("%w: transaction", shared.ErrNotFound)
	}
	return t, nil
}

// GetIncludingDeleted reads any transaction, deleted or not. Owner only.
func (s *Service) GetIncludingDeleted(ctx context.Context, scope shared.Scope, id uuid.UUID) (Transaction, error) {
	if scope.Role != shared.RoleOwner {
		return Transaction{}, fmt.Errorf("%w: owner role required", shared.ErrForbidden)
	}
	return s.repo.Get(ctx, id)
}

// List returns active transactions in scope, newest first.
func (s *Service) List(ctx context.Context, scope shared.Scope, f Filter) ([]Transaction, error) {
	f.CompanyID = scope.CompanyFilter()
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be sale or purchase", shared.ErrValidation)
	}
	switch f.DeliveryStatus {
	case "", DeliveryPending, DeliveryAssigned:
	default:
		return nil, fmt.Errorf("%w: deliveryStatus must be pending or assigned", shared.ErrValidation)
	}
	return s.repo.List(ctx, f)
}

type resolved struct {
	item     ItemRef
	customer *PartyRef
	vendor   *PartyRef
}

// resolve loads the referenced item and counterparty, treating records of
// other companies as missing.
func resolve(ctx context.Context, tx TxRepository, companyID uuid.UUID, d draft) (resolved, error) {
	var r resolved
	item, err := tx.Item(ctx, d.ItemID)
	if err != nil {
		return r, err
	}
	if item.CompanyID != companyID {
		return r, fmt.Errorf("%w: item", shared.ErrNotFound)
	}
	r.item = item
	if d.CustomerID != nil {
		c, err := tx.Customer(ctx, *d.CustomerID)
		if err != nil {
			return r, err
		}
		if c.CompanyID != companyID {
			return r, fmt.Errorf("%w: customer", shared.ErrNotFound)
		}
		r.customer = &c
	}
	if d.VendorID != nil {
		v, err := tx.Vendor(ctx, *d.VendorID)
		if err != nil {
			return r, err
		}
		if v.CompanyID != companyID {
			return r, fmt.Errorf("%w: vendor", shared.ErrNotFound)
		}
		r.vendor = &v
	}
	if d.Type == TypeSale && item.RequiresKTP {
		if r.customer == nil || r.customer.IdentityNumber == nil || strings.TrimSpace(*r.customer.IdentityNumber) == "" {
			return r, fmt.Errorf("%w: %s requires a customer with an identity number (KTP)", shared.ErrValidation, item.Name)
		}
	}
	return r, nil
}

// fill copies the draft onto t and recomputes the derived figures.
func (d draft) fill(t *Transaction, tax ledger.TaxType, refs resolved) {
	if tax == "" {
		tax = ledger.TaxNone
	}
	t.Date = d.Date
	t.Type = d.Type
	t.ItemID = d.ItemID
	t.CustomerID = d.CustomerID
	t.VendorID = d.VendorID
	t.Quantity = d.Quantity
	t.BasePrice = d.BasePrice
	t.SellPrice = d.SellPrice
	t.TransportCost = d.TransportCost
	t.UnexpectedCost = d.UnexpectedCost
	t.OtherCost = d.OtherCost
	t.Notes = d.Notes
	t.TaxType = tax
	t.EmptiesReturned = d.EmptiesReturned
	t.Figures = ledger.Compute(d.amounts(tax))
	t.ItemName = refs.item.Name
	t.CustomerName, t.VendorName = nil, nil
	if refs.customer != nil {
		t.CustomerName = &refs.customer.Name
	}
	if refs.vendor != nil {
		t.VendorName = &refs.vendor.Name
	}
}

func (s *Service) record(ctx context.Context, actor, companyID uuid.UUID, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor,
		CompanyID: companyID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Meta:      meta,
		At:        s.clock(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "entity_id", entityID, "error", err)
	}
}
