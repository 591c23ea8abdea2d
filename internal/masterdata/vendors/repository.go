package vendors

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
	List(ctx context.Context, filters shared.ListFilters) ([]Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (Vendor, error)
	Names(ctx context.Context, companyID uuid.UUID) ([]string, error)
	Create(ctx context.Context, v Vendor) (Vendor, error)
	CreateMany(ctx context.Context, vs []Vendor) (int, error)
	Update(ctx context.Context, v Vendor) (Vendor, error)
	CountTransactions(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, type, contact, created_at`

func scan(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.Type, &v.Contact, &v.CreatedAt)
	if db.IsNoRows(err) {
		return Vendor{}, fmt.Errorf("%w: vendor", internalShared.ErrNotFound)
	}
	return v, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Vendor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM vendors
		WHERE ($1::uuid IS NULL OR company_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name ASC`, filters.CompanyID, filters.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Vendor, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM vendors WHERE id = $1`, id))
}

func (r *repository) Names(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM vendors WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

const insertSQL = `INSERT INTO vendors (id, company_id, name, type, contact)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + columns

func (r *repository) Create(ctx context.Context, v Vendor) (Vendor, error) {
	created, err := scan(r.db.QueryRow(ctx, insertSQL, v.ID, v.CompanyID, v.Name, v.Type, v.Contact))
	if db.IsUniqueViolation(err) {
		return Vendor{}, fmt.Errorf("%w: vendor %q already exists", internalShared.ErrConflict, v.Name)
	}
	return created, err
}

// CreateMany inserts the batch in one round trip inside a transaction.
func (r *repository) CreateMany(ctx context.Context, vs []Vendor) (int, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, v := range vs {
			batch.Queue(insertSQL, v.ID, v.CompanyID, v.Name, v.Type, v.Contact)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: duplicate vendor name in batch", internalShared.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return len(vs), nil
}

func (r *repository) Update(ctx context.Context, v Vendor) (Vendor, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE vendors
		SET name = $2, type = $3, contact = $4
		WHERE id = $1
		RETURNING `+columns, v.ID, v.Name, v.Type, v.Contact))
	if db.IsUniqueViolation(err) {
		return Vendor{}, fmt.Errorf("%w: vendor %q already exists", internalShared.ErrConflict, v.Name)
	}
	return updated, err
}

// CountTransactions counts every referencing transaction, deleted ones included.
func (r *repository) CountTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE vendor_id = $1`, id).Scan(&n)
	return n, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: vendor is referenced", internalShared.ErrConflict)
	}
	return err
}
