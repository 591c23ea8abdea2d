package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/platform/db"
)

// Repository persists stock counters in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	StockWriter
	GetLevelForUpdate(ctx context.Context, itemID uuid.UUID) (Level, error)
	ShiftOpening(ctx context.Context, itemID uuid.UUID, d Delta) error
}

type txRepo struct {
	tx pgx.Tx
}

// NewStockWriter binds the stock writer to an open transaction so other
// modules can move stock atomically with their own writes.
func NewStockWriter(tx pgx.Tx) StockWriter {
	return &txRepo{tx: tx}
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const levelColumns = `id, company_id, name, unit, stock_full, stock_empty, updated_at`

func scanLevel(row pgx.Row) (Level, error) {
	var l Level
	err := row.Scan(&l.ItemID, &l.CompanyID, &l.Name, &l.Unit, &l.StockFull, &l.StockEmpty, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Level{}, ErrLevelNotFound
	}
	return l, err
}

// ListLevels returns stock counters of active items, optionally for one company.
func (r *Repository) ListLevels(ctx context.Context, companyID *uuid.UUID) ([]Level, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+levelColumns+` FROM items
		WHERE deleted = false AND ($1::uuid IS NULL OR company_id = $1)
		ORDER BY name ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []Level
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// Reconciliation lists items whose counters, net of their opening balance,
// differ from the movement implied by active stock-bearing transactions.
func (r *Repository) Reconciliation(ctx context.Context) ([]Drift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.company_id, i.name,
		       COALESCE(SUM(CASE WHEN t.type = 'purchase' THEN t.quantity WHEN t.type = 'sale' THEN -t.quantity END), 0) AS expected_full,
		       COALESCE(SUM(CASE WHEN t.type = 'purchase' THEN -t.quantity WHEN t.type = 'sale' THEN t.empties_returned END), 0) AS expected_empty,
		       i.stock_full - i.opening_full AS actual_full,
		       i.stock_empty - i.opening_empty AS actual_empty
		FROM items i
		LEFT JOIN transactions t ON t.item_id = i.id AND t.deleted = false AND t.stock_applied = true
		WHERE i.deleted = false
		GROUP BY i.id
		HAVING i.stock_full - i.opening_full <> COALESCE(SUM(CASE WHEN t.type = 'purchase' THEN t.quantity WHEN t.type = 'sale' THEN -t.quantity END), 0)
		    OR i.stock_empty - i.opening_empty <> COALESCE(SUM(CASE WHEN t.type = 'purchase' THEN -t.quantity WHEN t.type = 'sale' THEN t.empties_returned END), 0)
		ORDER BY i.company_id, i.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drifts []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.ItemID, &d.CompanyID, &d.Name, &d.Expected.Full, &d.Expected.Empty, &d.Actual.Full, &d.Actual.Empty); err != nil {
			return nil, err
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

func (t *txRepo) GetLevelForUpdate(ctx context.Context, itemID uuid.UUID) (Level, error) {
	return scanLevel(t.tx.QueryRow(ctx, `SELECT `+levelColumns+` FROM items WHERE id = $1 AND deleted = false FOR UPDATE`, itemID))
}

func (t *txRepo) AdjustStock(ctx context.Context, itemID uuid.UUID, d Delta) error {
	tag, err := t.tx.Exec(ctx, `UPDATE items
		SET stock_full = stock_full + $2, stock_empty = stock_empty + $3, updated_at = NOW()
		WHERE id = $1`, itemID, d.Full, d.Empty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLevelNotFound
	}
	return nil
}

// ShiftOpening moves the opening balance so manual corrections are not
// reported as drift.
func (t *txRepo) ShiftOpening(ctx context.Context, itemID uuid.UUID, d Delta) error {
	_, err := t.tx.Exec(ctx, `UPDATE items
		SET opening_full = opening_full + $2, opening_empty = opening_empty + $3
		WHERE id = $1`, itemID, d.Full, d.Empty)
	return err
}
