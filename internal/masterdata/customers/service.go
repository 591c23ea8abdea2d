package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/masterdata/shared"
	internalShared "github.com/finentry/finentry/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope internalShared.Scope, search string) ([]Customer, error) {
	return s.repo.List(ctx, shared.ListFilters{Search: strings.TrimSpace(search), CompanyID: scope.CompanyFilter()})
}

func (s *Service) Get(ctx context.Context, scope internalShared.Scope, id uuid.UUID) (Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if !scope.Allows(c.CompanyID) {
		return Customer{}, fmt.Errorf("%w: customer", internalShared.ErrNotFound)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, scope internalShared.Scope, in Input) (Customer, error) {
	if scope.Unscoped {
		return Customer{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	if err := validate(in); err != nil {
		return Customer{}, err
	}
	names, err := s.repo.Names(ctx, scope.CompanyID)
	if err != nil {
		return Customer{}, err
	}
	if shared.NewNameSet(names).Has(in.Name) {
		return Customer{}, fmt.Errorf("%w: customer %q already exists", internalShared.ErrConflict, strings.TrimSpace(in.Name))
	}
	return s.repo.Create(ctx, build(scope, in))
}

func (s *Service) CreateBulk(ctx context.Context, scope internalShared.Scope, rows []Input) (shared.BulkResult, error) {
	if scope.Unscoped {
		return shared.BulkResult{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	names, err := s.repo.Names(ctx, scope.CompanyID)
	if err != nil {
		return shared.BulkResult{}, err
	}
	seen := shared.NewNameSet(names)
	valid := make([]Customer, 0, len(rows))
	for _, row := range rows {
		if validate(row) != nil || seen.Has(row.Name) {
			continue
		}
		seen.Add(row.Name)
		valid = append(valid, build(scope, row))
	}
	count, err := s.repo.CreateMany(ctx, valid)
	if err != nil {
		return shared.BulkResult{}, err
	}
	return shared.BulkResult{Count: count, Skipped: len(rows) - count}, nil
}

func (s *Service) Update(ctx context.Context, scope internalShared.Scope, id uuid.UUID, in Input) (Customer, error) {
	if err := validate(in); err != nil {
		return Customer{}, err
	}
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Customer{}, err
	}
	if shared.Key(current.Name) != shared.Key(in.Name) {
		names, err := s.repo.Names(ctx, current.CompanyID)
		if err != nil {
			return Customer{}, err
		}
		if shared.NewNameSet(names).Has(in.Name) {
			return Customer{}, fmt.Errorf("%w: customer %q already exists", internalShared.ErrConflict, strings.TrimSpace(in.Name))
		}
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Contact = optional(in.Contact)
	current.Address = optional(in.Address)
	current.IdentityNumber = optional(in.IdentityNumber)
	return s.repo.Update(ctx, current)
}

// Delete removes the customer only when no transaction, deleted or not,
// references it.
func (s *Service) Delete(ctx context.Context, scope internalShared.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	n, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: cannot delete customer with existing transactions", internalShared.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

func build(scope internalShared.Scope, in Input) Customer {
	return Customer{
		ID:             uuid.New(),
		CompanyID:      scope.CompanyID,
		Name:           strings.TrimSpace(in.Name),
		Contact:        optional(in.Contact),
		Address:        optional(in.Address),
		IdentityNumber: optional(in.IdentityNumber),
	}
}
