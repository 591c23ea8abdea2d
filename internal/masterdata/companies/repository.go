package companies

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/platform/db"
	internalShared "github.com/finentry/finentry/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Company, error)
	FirstID(ctx context.Context) (uuid.UUID, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.subscription_plan, c.created_at, COUNT(u.id)
		FROM companies c
		LEFT JOIN users u ON u.company_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.SubscriptionPlan, &c.CreatedAt, &c.UserCount); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *repository) FirstID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM companies ORDER BY name ASC, created_at ASC LIMIT 1`).Scan(&id)
	if db.IsNoRows(err) {
		return uuid.Nil, fmt.Errorf("%w: no company found", internalShared.ErrNotFound)
	}
	return id, err
}
