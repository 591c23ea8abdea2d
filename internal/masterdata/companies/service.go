package companies

import (
	"context"

	"github.com/google/uuid"
)

// Service lists tenants and resolves the default one for unscoped owners.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

// FirstCompanyID implements shared.CompanyDirectory.
func (s *Service) FirstCompanyID(ctx context.Context) (uuid.UUID, error) {
	return s.repo.FirstID(ctx)
}
