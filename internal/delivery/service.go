package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/shared"
	"github.com/finentry/finentry/internal/transactions"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListDrivers(ctx context.Context, companyID uuid.UUID, search string) ([]Driver, error)
	CreateDriver(ctx context.Context, d Driver) error
	ListVehicles(ctx context.Context, companyID uuid.UUID) ([]Vehicle, error)
	CreateVehicle(ctx context.Context, v Vehicle) error
	ListOrders(ctx context.Context, companyID uuid.UUID) ([]Order, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates logistics operations.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	locker transactions.Locker
	logger *slog.Logger
	clock  func() time.Time
}

// Option customises Service.
type Option func(*Service)

// WithLocker serialises order numbering per company and year.
func WithLocker(l transactions.Locker) Option {
	return func(s *Service) { s.locker = l }
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
		repo:   repo,
		audit:  audit,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func companyOf(scope shared.Scope) (uuid.UUID, error) {
	if scope.Unscoped || scope.CompanyID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: company required", shared.ErrValidation)
	}
	return scope.CompanyID, nil
}

// ListDrivers returns the company's active drivers.
func (s *Service) ListDrivers(ctx context.Context, scope shared.Scope, search string) ([]Driver, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDrivers(ctx, companyID, strings.TrimSpace(search))
}

// CreateDriver registers an active driver.
func (s *Service) CreateDriver(ctx context.Context, scope shared.Scope, in DriverInput) (Driver, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return Driver{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Driver{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	d := Driver{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      name,
		Phone:     optional(in.Phone),
		LicenseNo: optional(in.LicenseNo),
		Status:    DriverActive,
		CreatedAt: s.clock(),
	}
	if err := s.repo.CreateDriver(ctx, d); err != nil {
		return Driver{}, err
	}
	return d, nil
}

// ListVehicles returns the company's vehicles.
func (s *Service) ListVehicles(ctx context.Context, scope shared.Scope) ([]Vehicle, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVehicles(ctx, companyID)
}

// CreateVehicle registers a vehicle.
func (s *Service) CreateVehicle(ctx context.Context, scope shared.Scope, in VehicleInput) (Vehicle, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return Vehicle{}, err
	}
	plate := strings.ToUpper(strings.TrimSpace(in.PlateNumber))
	if plate == "" {
		return Vehicle{}, fmt.Errorf("%w: plate number required", shared.ErrValidation)
	}
	v := Vehicle{
		ID:          uuid.New(),
		CompanyID:   companyID,
		PlateNumber: plate,
		Type:        optional(in.Type),
		Capacity:    in.Capacity,
		CreatedAt:   s.clock(),
	}
	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// ListOrders returns the company's delivery orders, newest first.
func (s *Service) ListOrders(ctx context.Context, scope shared.Scope) ([]Order, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, companyID)
}

// CreateOrder numbers a new order and assigns the listed transactions to it
// in one database transaction.
func (s *Service) CreateOrder(ctx context.Context, scope shared.Scope, in OrderInput) (Order, error) {
	companyID, err := companyOf(scope)
	if err != nil {
		return Order{}, err
	}
	if in.VehicleID == nil || in.DriverID == nil || len(in.TransactionIDs) == 0 {
		return Order{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrMissingAssignment)
	}
	now := s.clock()
	date := now
	if strings.TrimSpace(in.Date) != "" {
		date, err = transactions.ParseDate(in.Date)
		if err != nil {
			return Order{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, in.Date)
		}
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.DeliveryOrderLockKey(companyID, now.Year()))
		if err != nil {
			return Order{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("delivery order lock release failed", "company_id", companyID, "error", err)
			}
		}()
	}

	var created Order
	var assigned int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vehicle, err := tx.Vehicle(ctx, *in.VehicleID)
		if err != nil || vehicle.CompanyID != companyID {
			return notFound("vehicle", err)
		}
		driver, err := tx.Driver(ctx, *in.DriverID)
		if err != nil || driver.CompanyID != companyID {
			return notFound("driver", err)
		}
		count, err := tx.CountOrders(ctx, companyID)
		if err != nil {
			return err
		}
		o := Order{
			ID:        uuid.New(),
			CompanyID: companyID,
			Number:    FormatOrderNumber(now.Year(), count+1),
			Date:      date,
			VehicleID: vehicle.ID,
			DriverID:  driver.ID,
			Notes:     optional(in.Notes),
			Status:    StatusPending,
			CreatedAt: now,
			Vehicle:   &vehicle,
			Driver:    &driver,

			Transactions: []AssignedTransaction{},
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		assigned, err = tx.AssignTransactions(ctx, companyID, o.ID, in.TransactionIDs)
		if err != nil {
			return err
		}
		if assigned == 0 {
			return fmt.Errorf("%w: %v", shared.ErrValidation, ErrNoMatchingTransactions)
		}
		created = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:   scope.ActorID,
			CompanyID: companyID,
			Action:    "delivery_order:create",
			Entity:    "delivery_order",
			EntityID:  created.ID.String(),
			Meta: map[string]any{
				"do_number":    created.Number,
				"transactions": assigned,
			},
			At: now,
		}); err != nil {
			s.logger.Warn("audit record failed", "action", "delivery_order:create", "error", err)
		}
	}
	return created, nil
}

// notFound hides records of other companies behind the same error as
// missing ones. Unexpected lookup failures pass through.
func notFound(what string, err error) error {
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
