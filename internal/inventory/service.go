package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLevels(ctx context.Context, companyID *uuid.UUID) ([]Level, error)
	Reconciliation(ctx context.Context) ([]Drift, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates manual stock operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListLevels returns stock counters visible in scope.
func (s *Service) ListLevels(ctx context.Context, scope shared.Scope) ([]Level, error) {
	return s.repo.ListLevels(ctx, scope.CompanyFilter())
}

// PostAdjustment corrects an item's counters outside of any transaction.
// The opening balance moves by the same delta.
func (s *Service) PostAdjustment(ctx context.Context, scope shared.Scope, input AdjustmentInput) (Level, error) {
	if input.ItemID == uuid.Nil {
		return Level{}, fmt.Errorf("%w: itemId required", shared.ErrValidation)
	}
	delta := Delta{Full: input.FullDelta, Empty: input.EmptyDelta}
	if delta.IsZero() {
		return Level{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrEmptyAdjustment)
	}
	var level Level
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLevelForUpdate(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return fmt.Errorf("%w: item", shared.ErrNotFound)
			}
			return err
		}
		if !scope.Allows(current.CompanyID) {
			return fmt.Errorf("%w: item", shared.ErrNotFound)
		}
		if err := tx.AdjustStock(ctx, input.ItemID, delta); err != nil {
			return err
		}
		if err := tx.ShiftOpening(ctx, input.ItemID, delta); err != nil {
			return err
		}
		current.StockFull += delta.Full
		current.StockEmpty += delta.Empty
		level = current
		return nil
	})
	if err != nil {
		return Level{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   scope.ActorID,
			CompanyID: level.CompanyID,
			Action:    "inventory:adjust",
			Entity:    "item",
			EntityID:  level.ItemID.String(),
			Meta: map[string]any{
				"full_delta":  delta.Full,
				"empty_delta": delta.Empty,
				"note":        input.Note,
			},
		})
	}
	return level, nil
}

// Reconcile reports items whose counters drifted from their transactions.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	return s.repo.Reconciliation(ctx)
}
