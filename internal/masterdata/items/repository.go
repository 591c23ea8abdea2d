package items

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/masterdata/shared"
	"github.com/finentry/finentry/internal/platform/db"
	internalShared "github.com/finentry/finentry/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Item, error)
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	Names(ctx context.Context, companyID uuid.UUID) ([]string, error)
	Create(ctx context.Context, item Item) (Item, error)
	CreateMany(ctx context.Context, items []Item) (int, error)
	Update(ctx context.Context, item Item) (Item, error)
	CountActiveTransactions(ctx context.Context, id uuid.UUID) (int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, unit, category, default_tax_type, requires_ktp, stock_full, stock_empty, created_at, updated_at`

func scan(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.CompanyID, &i.Name, &i.Unit, &i.Category, &i.DefaultTaxType, &i.RequiresKTP, &i.StockFull, &i.StockEmpty, &i.CreatedAt, &i.UpdatedAt)
	if db.IsNoRows(err) {
		return Item{}, fmt.Errorf("%w: item", internalShared.ErrNotFound)
	}
	return i, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Item, error) {
	query := `SELECT ` + columns + ` FROM items
		WHERE deleted = false
		  AND ($1::uuid IS NULL OR company_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, filters.CompanyID, filters.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM items WHERE id = $1 AND deleted = false`, id))
}

func (r *repository) Names(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM items WHERE company_id = $1 AND deleted = false`, companyID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	query := `INSERT INTO items (id, company_id, name, unit, category, default_tax_type, requires_ktp, stock_full, stock_empty, opening_full, opening_empty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8, $9)
		RETURNING ` + columns
	created, err := scan(r.db.QueryRow(ctx, query, item.ID, item.CompanyID, item.Name, item.Unit, item.Category, item.DefaultTaxType, item.RequiresKTP, item.StockFull, item.StockEmpty))
	if db.IsUniqueViolation(err) {
		return Item{}, fmt.Errorf("%w: item %q already exists", internalShared.ErrConflict, item.Name)
	}
	return created, err
}

func (r *repository) CreateMany(ctx context.Context, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(items))
	for _, i := range items {
		rows = append(rows, []any{i.ID, i.CompanyID, i.Name, i.Unit, i.Category, i.DefaultTaxType, i.RequiresKTP, i.StockFull, i.StockEmpty, i.StockFull, i.StockEmpty})
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"items"},
		[]string{"id", "company_id", "name", "unit", "category", "default_tax_type", "requires_ktp", "stock_full", "stock_empty", "opening_full", "opening_empty"},
		pgx.CopyFromRows(rows),
	)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: duplicate item name in batch", internalShared.ErrConflict)
	}
	return int(n), err
}

func (r *repository) Update(ctx context.Context, item Item) (Item, error) {
	query := `UPDATE items
		SET name = $2, unit = $3, category = $4, default_tax_type = $5, requires_ktp = $6, updated_at = NOW()
		WHERE id = $1 AND deleted = false
		RETURNING ` + columns
	updated, err := scan(r.db.QueryRow(ctx, query, item.ID, item.Name, item.Unit, item.Category, item.DefaultTaxType, item.RequiresKTP))
	if db.IsUniqueViolation(err) {
		return Item{}, fmt.Errorf("%w: item %q already exists", internalShared.ErrConflict, item.Name)
	}
	return updated, err
}

func (r *repository) CountActiveTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE item_id = $1 AND deleted = false`, id).Scan(&n)
	return n, err
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE items SET deleted = true, updated_at = NOW() WHERE id = $1`, id)
	return err
}
