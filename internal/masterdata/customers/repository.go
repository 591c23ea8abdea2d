package customers

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
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, error)
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	Names(ctx context.Context, companyID uuid.UUID) ([]string, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	CreateMany(ctx context.Context, cs []Customer) (int, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	CountTransactions(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, contact, address, identity_number, created_at`

func scan(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Contact, &c.Address, &c.IdentityNumber, &c.CreatedAt)
	if db.IsNoRows(err) {
		return Customer{}, fmt.Errorf("%w: customer", internalShared.ErrNotFound)
	}
	return c, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM customers
		WHERE ($1::uuid IS NULL OR company_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name ASC`, filters.CompanyID, filters.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) Names(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM customers WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

const insertSQL = `INSERT INTO customers (id, company_id, name, contact, address, identity_number)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + columns

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	created, err := scan(r.db.QueryRow(ctx, insertSQL, c.ID, c.CompanyID, c.Name, c.Contact, c.Address, c.IdentityNumber))
	if db.IsUniqueViolation(err) {
		return Customer{}, fmt.Errorf("%w: customer %q already exists", internalShared.ErrConflict, c.Name)
	}
	return created, err
}

// CreateMany inserts the batch in one round trip inside a transaction.
func (r *repository) CreateMany(ctx context.Context, cs []Customer) (int, error) {
	if len(cs) == 0 {
		return 0, nil
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range cs {
			batch.Queue(insertSQL, c.ID, c.CompanyID, c.Name, c.Contact, c.Address, c.IdentityNumber)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: duplicate customer name in batch", internalShared.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return len(cs), nil
}

func (r *repository) Update(ctx context.Context, c Customer) (Customer, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE customers
		SET name = $2, contact = $3, address = $4, identity_number = $5
		WHERE id = $1
		RETURNING `+columns, c.ID, c.Name, c.Contact, c.Address, c.IdentityNumber))
	if db.IsUniqueViolation(err) {
		return Customer{}, fmt.Errorf("%w: customer %q already exists", internalShared.ErrConflict, c.Name)
	}
	return updated, err
}

// CountTransactions counts every referencing transaction, deleted ones included.
func (r *repository) CountTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE customer_id = $1`, id).Scan(&n)
	return n, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: customer is referenced", internalShared.ErrConflict)
	}
	return err
}
