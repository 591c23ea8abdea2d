package vendors

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

func (s *Service) List(ctx context.Context, scope internalShared.Scope, search string) ([]Vendor, error) {
	return s.repo.List(ctx, shared.ListFilters{Search: strings.TrimSpace(search), CompanyID: scope.CompanyFilter()})
}

func (s *Service) Get(ctx context.Context, scope internalShared.Scope, id uuid.UUID) (Vendor, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	if !scope.Allows(v.CompanyID) {
		return Vendor{}, fmt.Errorf("%w: vendor", internalShared.ErrNotFound)
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, scope internalShared.Scope, in Input) (Vendor, error) {
	if scope.Unscoped {
		return Vendor{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	if err := validate(in); err != nil {
		return Vendor{}, err
	}
	if err := s.ensureUnique(ctx, scope.CompanyID, in.Name); err != nil {
		return Vendor{}, err
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
	valid := make([]Vendor, 0, len(rows))
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

func (s *Service) Update(ctx context.Context, scope internalShared.Scope, id uuid.UUID, in Input) (Vendor, error) {
	if err := validate(in); err != nil {
		return Vendor{}, err
	}
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Vendor{}, err
	}
	if shared.Key(current.Name) != shared.Key(in.Name) {
		if err := s.ensureUnique(ctx, current.CompanyID, in.Name); err != nil {
			return Vendor{}, err
		}
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Type = kindOf(in.Type)
	current.Contact = optional(in.Contact)
	return s.repo.Update(ctx, current)
}

// Delete removes the vendor only when no transaction references it.
func (s *Service) Delete(ctx context.Context, scope internalShared.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	n, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: cannot delete vendor with existing transactions", internalShared.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureUnique(ctx context.Context, companyID uuid.UUID, name string) error {
	names, err := s.repo.Names(ctx, companyID)
	if err != nil {
		return err
	}
	if shared.NewNameSet(names).Has(name) {
		return fmt.Errorf("%w: vendor %q already exists", internalShared.ErrConflict, strings.TrimSpace(name))
	}
	return nil
}

func build(scope internalShared.Scope, in Input) Vendor {
	return Vendor{
		ID:        uuid.New(),
		CompanyID: scope.CompanyID,
		Name:      strings.TrimSpace(in.Name),
		Type:      kindOf(in.Type),
		Contact:   optional(in.Contact),
	}
}
