package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/shared"
	"github.com/finentry/finentry/internal/transactions"
)

// RepositoryPort abstracts config storage and context lookups.
type RepositoryPort interface {
	GetConfig(ctx context.Context, companyID uuid.UUID) (Record, error)
	UpsertConfig(ctx context.Context, rec Record) error
	CompanyName(ctx context.Context, companyID uuid.UUID) (string, error)
	TopCustomers(ctx context.Context, companyID uuid.UUID, from, to time.Time, limit int) ([]CustomerRevenue, error)
}

// Service answers questions grounded on a company's figures.
type Service struct {
	repo      RepositoryPort
	figures   Figures
	directory shared.CompanyDirectory
	sealer    *Sealer
	complete  CompleterFactory
	logger    *slog.Logger
	now       func() time.Time
}

// Option customises Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source used for default periods.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds Service.
func NewService(repo RepositoryPort, figures Figures, directory shared.CompanyDirectory, sealer *Sealer, factory CompleterFactory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		figures:   figures,
		directory: directory,
		sealer:    sealer,
		complete:  factory,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetConfig returns the company's config, or an empty view when none exists.
func (s *Service) GetConfig(ctx context.Context, scope shared.Scope) (Config, error) {
	scope, err := shared.RequireCompany(ctx, scope, s.directory)
	if err != nil {
		return Config{}, err
	}
	rec, err := s.repo.GetConfig(ctx, scope.CompanyID)
	if errors.Is(err, shared.ErrNotFound) {
		return Config{CompanyID: scope.CompanyID}, nil
	}
	if err != nil {
		return Config{}, err
	}
	return view(rec), nil
}

// SaveConfig upserts the company's config. A blank key keeps the stored one.
func (s *Service) SaveConfig(ctx context.Context, scope shared.Scope, input ConfigInput) (Config, error) {
	scope, err := shared.RequireCompany(ctx, scope, s.directory)
	if err != nil {
		return Config{}, err
	}
	provider, err := ParseProvider(input.Provider)
	if err != nil {
		return Config{}, err
	}
	rec := Record{
		CompanyID: scope.CompanyID,
		Provider:  provider,
		Model:     strings.TrimSpace(input.Model),
		IsActive:  input.IsActive,
		UpdatedAt: s.now().UTC(),
	}
	if key := strings.TrimSpace(input.APIKey); key != "" {
		sealed, err := s.sealer.Seal(key)
		if err != nil {
			return Config{}, err
		}
		rec.SealedKey = sealed
	} else {
		existing, err := s.repo.GetConfig(ctx, scope.CompanyID)
		switch {
		case err == nil:
			rec.SealedKey = existing.SealedKey
		case !errors.Is(err, shared.ErrNotFound):
			return Config{}, err
		}
	}
	if err := s.repo.UpsertConfig(ctx, rec); err != nil {
		return Config{}, err
	}
	return view(rec), nil
}

// Ask answers input.Query. The provider config always comes from a concrete
// company; an unscoped owner gets a cross-company comparison as context.
func (s *Service) Ask(ctx context.Context, scope shared.Scope, input AskInput) (Answer, error) {
	configScope, err := shared.RequireCompany(ctx, scope, s.directory)
	if err != nil {
		return Answer{}, err
	}
	rec, err := s.repo.GetConfig(ctx, configScope.CompanyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Answer{}, err
	}
	if err != nil || !rec.IsActive || rec.SealedKey == "" {
		return Answer{Answer: NotConfiguredAnswer, IsConfigMissing: true}, nil
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return Answer{}, fmt.Errorf("%w: query is required", shared.ErrValidation)
	}
	from, to, err := s.period(input.DateRange)
	if err != nil {
		return Answer{}, err
	}

	var fc *FinancialContext
	if scope.Unscoped {
		fc, err = s.multiContext(ctx, from, to)
	} else {
		fc, err = s.singleContext(ctx, scope.CompanyID, from, to)
	}
	if err != nil {
		return Answer{}, err
	}
	system, err := SystemPrompt(fc, s.now())
	if err != nil {
		return Answer{}, err
	}
	apiKey, err := s.sealer.Open(rec.SealedKey)
	if err != nil {
		return Answer{}, err
	}
	client, err := s.complete(rec.Provider, apiKey, rec.Model)
	if err != nil {
		return Answer{}, err
	}
	started := s.now()
	reply, err := client.Complete(ctx, Prompt{System: system, User: query})
	if err != nil {
		s.logger.Error("assistant completion failed", slog.String("provider", string(rec.Provider)), slog.Any("error", err))
		return Answer{}, err
	}
	s.logger.Info("assistant answered",
		slog.String("provider", string(rec.Provider)),
		slog.String("scope", fc.Scope),
		slog.Duration("elapsed", s.now().Sub(started)))
	return Answer{Answer: reply, Context: fc}, nil
}

// period resolves the context window, defaulting each missing bound to the
// current calendar month.
func (s *Service) period(r *DateRange) (time.Time, time.Time, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	if r == nil {
		return from, to, nil
	}
	start, end, err := transactions.ParseRange(r.StartDate, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	return from, to, nil
}

func view(rec Record) Config {
	return Config{
		CompanyID: rec.CompanyID,
		Provider:  rec.Provider,
		Model:     rec.Model,
		IsActive:  rec.IsActive,
		HasAPIKey: rec.SealedKey != "",
		UpdatedAt: rec.UpdatedAt,
	}
}
