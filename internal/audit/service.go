package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/finentry/finentry/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	exportLimit     = 5000
)

// Repository reads audit_logs.
type Repository interface {
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo Repository
}

// NewService builds the audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of audit records visible in scope.
func (s *Service) Timeline(ctx context.Context, scope shared.Scope, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	filters = normalize(scope, filters)
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, (page-1)*pageSize)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching record up to the export cap.
func (s *Service) Export(ctx context.Context, scope shared.Scope, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.TimelineWindow(ctx, normalize(scope, filters), exportLimit, 0)
}

// normalize pins the company filter to the caller's scope. Unscoped owners
// may narrow by company explicitly.
func normalize(scope shared.Scope, filters TimelineFilters) TimelineFilters {
	if company := scope.CompanyFilter(); company != nil {
		filters.CompanyID = company
	}
	filters.Entity = strings.TrimSpace(filters.Entity)
	filters.Action = strings.TrimSpace(filters.Action)
	return filters
}
