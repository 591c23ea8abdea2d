package items

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

func (s *Service) List(ctx context.Context, scope internalShared.Scope, search string) ([]Item, error) {
	return s.repo.List(ctx, shared.ListFilters{Search: strings.TrimSpace(search), CompanyID: scope.CompanyFilter()})
}

// Get returns the item when visible in scope; other tenants' items read as not found.
func (s *Service) Get(ctx context.Context, scope internalShared.Scope, id uuid.UUID) (Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !scope.Allows(item.CompanyID) {
		return Item{}, fmt.Errorf("%w: item", internalShared.ErrNotFound)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, scope internalShared.Scope, in Input) (Item, error) {
	if scope.Unscoped {
		return Item{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	if err := s.validate(in); err != nil {
		return Item{}, err
	}
	names, err := s.repo.Names(ctx, scope.CompanyID)
	if err != nil {
		return Item{}, err
	}
	if shared.NewNameSet(names).Has(in.Name) {
		return Item{}, fmt.Errorf("%w: item %q already exists", internalShared.ErrConflict, strings.TrimSpace(in.Name))
	}
	return s.repo.Create(ctx, s.build(scope, in))
}

// CreateBulk inserts every row with a name and unit that does not already
// exist (case-insensitive), skipping the rest.
func (s *Service) CreateBulk(ctx context.Context, scope internalShared.Scope, rows []Input) (shared.BulkResult, error) {
	if scope.Unscoped {
		return shared.BulkResult{}, fmt.Errorf("%w: company required", internalShared.ErrValidation)
	}
	names, err := s.repo.Names(ctx, scope.CompanyID)
	if err != nil {
		return shared.BulkResult{}, err
	}
	seen := shared.NewNameSet(names)
	valid := make([]Item, 0, len(rows))
	for _, row := range rows {
		if s.validate(row) != nil || seen.Has(row.Name) {
			continue
		}
		seen.Add(row.Name)
		valid = append(valid, s.build(scope, row))
	}
	count, err := s.repo.CreateMany(ctx, valid)
	if err != nil {
		return shared.BulkResult{}, err
	}
	return shared.BulkResult{Count: count, Skipped: len(rows) - count}, nil
}

func (s *Service) Update(ctx context.Context, scope internalShared.Scope, id uuid.UUID, in Input) (Item, error) {
	if err := s.validate(in); err != nil {
		return Item{}, err
	}
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Item{}, err
	}
	if shared.Key(current.Name) != shared.Key(in.Name) {
		names, err := s.repo.Names(ctx, current.CompanyID)
		if err != nil {
			return Item{}, err
		}
		if shared.NewNameSet(names).Has(in.Name) {
			return Item{}, fmt.Errorf("%w: item %q already exists", internalShared.ErrConflict, strings.TrimSpace(in.Name))
		}
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Unit = strings.TrimSpace(in.Unit)
	current.Category = trimmed(in.Category)
	if in.DefaultTaxType != "" {
		current.DefaultTaxType = taxTypeOrNone(in.DefaultTaxType)
	}
	current.RequiresKTP = in.RequiresKTP
	return s.repo.Update(ctx, current)
}

// Delete soft-deletes the item unless active transactions still reference it.
func (s *Service) Delete(ctx context.Context, scope internalShared.Scope, id uuid.UUID) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	n, err := s.repo.CountActiveTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: cannot delete item with existing transactions", internalShared.ErrConflict)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) build(scope internalShared.Scope, in Input) Item {
	return Item{
		ID:             uuid.New(),
		CompanyID:      scope.CompanyID,
		Name:           strings.TrimSpace(in.Name),
		Unit:           strings.TrimSpace(in.Unit),
		Category:       trimmed(in.Category),
		DefaultTaxType: taxTypeOrNone(in.DefaultTaxType),
		RequiresKTP:    in.RequiresKTP,
		StockFull:      in.StockFull,
		StockEmpty:     in.StockEmpty,
	}
}
