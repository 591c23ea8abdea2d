package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finentry/finentry/internal/shared"
)

// Repository persists assistant configs and reads context figures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetConfig loads a company's config.
func (r *Repository) GetConfig(ctx context.Context, companyID uuid.UUID) (Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `SELECT company_id, provider, model, api_key_sealed, is_active, updated_at
		FROM ai_configs WHERE company_id = $1`, companyID).
		Scan(&rec.CompanyID, &rec.Provider, &rec.Model, &rec.SealedKey, &rec.IsActive, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: ai config", shared.ErrNotFound)
	}
	return rec, err
}

// UpsertConfig inserts or replaces a company's config.
func (r *Repository) UpsertConfig(ctx context.Context, rec Record) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO ai_configs (company_id, provider, model, api_key_sealed, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			api_key_sealed = EXCLUDED.api_key_sealed,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		rec.CompanyID, rec.Provider, rec.Model, rec.SealedKey, rec.IsActive, rec.UpdatedAt)
	return err
}

// CompanyName returns the tenant's display name.
func (r *Repository) CompanyName(ctx context.Context, companyID uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, companyID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: company", shared.ErrNotFound)
	}
	return name, err
}

// TopCustomers ranks customers by sale revenue in [from, to].
func (r *Repository) TopCustomers(ctx context.Context, companyID uuid.UUID, from, to time.Time, limit int) ([]CustomerRevenue, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(c.name, 'Unknown'), SUM(t.revenue)::text
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		WHERE t.company_id = $1 AND t.deleted = false AND t.type = 'sale'
		  AND t.date >= $2 AND t.date <= $3
		GROUP BY t.customer_id, c.name
		ORDER BY SUM(t.revenue) DESC
		LIMIT $4`, companyID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CustomerRevenue
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		revenue, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, newCustomerRevenue(name, revenue))
	}
	return out, rows.Err()
}
