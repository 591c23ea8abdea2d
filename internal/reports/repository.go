package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finentry/finentry/internal/ledger"
)

// Repository reads transaction aggregates from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Range selects [From, To]. A zero To leaves the range open ended.
type Range struct {
	From      time.Time
	To        time.Time
	Inclusive bool
}

// Totals sums active transactions in r, optionally for one company. Sums
// travel as text so numeric precision survives into decimal.
func (r *Repository) Totals(ctx context.Context, companyID *uuid.UUID, rg Range) (ledger.Totals, error) {
	upper := "<"
	if rg.Inclusive {
		upper = "<="
	}
	var to *time.Time
	if !rg.To.IsZero() {
		to = &rg.To
	}
	query := fmt.Sprintf(`SELECT
			COALESCE(SUM(revenue), 0)::text,
			COALESCE(SUM(cogs), 0)::text,
			COALESCE(SUM(transport_cost), 0)::text,
			COALESCE(SUM(unexpected_cost), 0)::text,
			COALESCE(SUM(other_cost), 0)::text,
			COALESCE(SUM(margin), 0)::text,
			COUNT(*)
		FROM transactions
		WHERE deleted = false
		  AND ($1::uuid IS NULL OR company_id = $1)
		  AND date >= $2
		  AND ($3::timestamptz IS NULL OR date %s $3)`, upper)

	var revenue, cogs, transport, unexpected, other, margin string
	var totals ledger.Totals
	err := r.pool.QueryRow(ctx, query, companyID, rg.From, to).
		Scan(&revenue, &cogs, &transport, &unexpected, &other, &margin, &totals.Count)
	if err != nil {
		return ledger.Totals{}, err
	}
	for _, f := range []struct {
		raw  string
		into *decimal.Decimal
	}{
		{revenue, &totals.Revenue},
		{cogs, &totals.COGS},
		{transport, &totals.Transport},
		{unexpected, &totals.Unexpected},
		{other, &totals.Other},
		{margin, &totals.Margin},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return ledger.Totals{}, fmt.Errorf("parse sum %q: %w", f.raw, err)
		}
		*f.into = d
	}
	return totals, nil
}

// Companies lists every tenant by name.
func (r *Repository) Companies(ctx context.Context) ([]CompanyRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompanyRef
	for rows.Next() {
		var c CompanyRef
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
