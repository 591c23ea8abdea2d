package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/inventory"
	"github.com/finentry/finentry/internal/masterdata/shared"
	"github.com/finentry/finentry/internal/platform/db"
	internalShared "github.com/finentry/finentry/internal/shared"
)

// Repository persists transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations run inside one database transaction.
type TxRepository interface {
	inventory.StockWriter
	SaleCounter
	GetForUpdate(ctx context.Context, id uuid.UUID) (Transaction, error)
	Item(ctx context.Context, id uuid.UUID) (ItemRef, error)
	Customer(ctx context.Context, id uuid.UUID) (PartyRef, error)
	Vendor(ctx context.Context, id uuid.UUID) (PartyRef, error)
	Insert(ctx context.Context, t Transaction) error
	Update(ctx context.Context, t Transaction) error
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

type txRepo struct {
	inventory.StockWriter
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{StockWriter: inventory.NewStockWriter(tx), tx: tx})
	})
}

const selectColumns = `t.id, t.company_id, t.date, t.type, t.item_id, t.customer_id, t.vendor_id, t.delivery_order_id,
	t.quantity, t.base_price, t.sell_price, t.transport_cost, t.unexpected_cost, t.other_cost, t.notes,
	t.tax_type, t.empties_returned, t.revenue, t.cogs, t.total_expenses, t.margin, t.margin_percent, t.ppn_amount,
	t.invoice_number, t.stock_applied, t.deleted, t.created_at, t.updated_at,
	i.name, c.name, v.name`

const selectFrom = ` FROM transactions t
	JOIN items i ON i.id = t.item_id
	LEFT JOIN customers c ON c.id = t.customer_id
	LEFT JOIN vendors v ON v.id = t.vendor_id`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.CompanyID, &t.Date, &t.Type, &t.ItemID, &t.CustomerID, &t.VendorID, &t.DeliveryOrderID,
		&t.Quantity, &t.BasePrice, &t.SellPrice, &t.TransportCost, &t.UnexpectedCost, &t.OtherCost, &t.Notes,
		&t.TaxType, &t.EmptiesReturned, &t.Revenue, &t.COGS, &t.TotalExpenses, &t.Margin, &t.MarginPercent, &t.PPNAmount,
		&t.InvoiceNumber, &t.StockApplied, &t.Deleted, &t.CreatedAt, &t.UpdatedAt,
		&t.ItemName, &t.CustomerName, &t.VendorName)
	if db.IsNoRows(err) {
		return Transaction{}, fmt.Errorf("%w: transaction", internalShared.ErrNotFound)
	}
	return t, err
}

// Get returns the transaction whether or not it is deleted.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+selectColumns+selectFrom+` WHERE t.id = $1`, id))
}

// List returns active transactions matching the filter, newest date first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Transaction, error) {
	where := []string{"t.deleted = false"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != nil {
		add("t.company_id = $%d", *f.CompanyID)
	}
	if f.StartDate != nil {
		add("t.date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.date <= $%d", *f.EndDate)
	}
	if f.Type != "" {
		add("t.type = $%d", string(f.Type))
	}
	if f.CustomerID != nil {
		add("t.customer_id = $%d", *f.CustomerID)
	}
	switch f.DeliveryStatus {
	case DeliveryPending:
		where = append(where, "t.delivery_order_id IS NULL")
	case DeliveryAssigned:
		where = append(where, "t.delivery_order_id IS NOT NULL")
	}
	query := `SELECT ` + selectColumns + selectFrom + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY t.date DESC, t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Lookups loads the company's items, customers and vendors keyed by
// lower-cased name.
func (r *Repository) Lookups(ctx context.Context, companyID uuid.UUID) (Lookups, error) {
	l := Lookups{Items: map[string]ItemRef{}, Customers: map[string]PartyRef{}, Vendors: map[string]PartyRef{}}

	rows, err := r.pool.Query(ctx, `SELECT id, company_id, name, default_tax_type, requires_ktp FROM items WHERE company_id = $1 AND deleted = false`, companyID)
	if err != nil {
		return Lookups{}, err
	}
	for rows.Next() {
		var i ItemRef
		if err := rows.Scan(&i.ID, &i.CompanyID, &i.Name, &i.DefaultTaxType, &i.RequiresKTP); err != nil {
			rows.Close()
			return Lookups{}, err
		}
		l.Items[shared.Key(i.Name)] = i
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Lookups{}, err
	}

	parties := []struct {
		query string
		into  map[string]PartyRef
	}{
		{`SELECT id, company_id, name, identity_number FROM customers WHERE company_id = $1`, l.Customers},
		{`SELECT id, company_id, name, NULL::text FROM vendors WHERE company_id = $1`, l.Vendors},
	}
	for _, p := range parties {
		rows, err := r.pool.Query(ctx, p.query, companyID)
		if err != nil {
			return Lookups{}, err
		}
		for rows.Next() {
			var ref PartyRef
			if err := rows.Scan(&ref.ID, &ref.CompanyID, &ref.Name, &ref.IdentityNumber); err != nil {
				rows.Close()
				return Lookups{}, err
			}
			p.into[shared.Key(ref.Name)] = ref
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return Lookups{}, err
		}
	}
	return l, nil
}

// InsertImported persists an imported row. Imported rows carry no stock effect.
func (r *Repository) InsertImported(ctx context.Context, t Transaction) error {
	return insert(ctx, r.pool, t)
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insert(ctx context.Context, e execer, t Transaction) error {
	_, err := e.Exec(ctx, `INSERT INTO transactions (
		id, company_id, date, type, item_id, customer_id, vendor_id,
		quantity, base_price, sell_price, transport_cost, unexpected_cost, other_cost, notes,
		tax_type, empties_returned, revenue, cogs, total_expenses, margin, margin_percent, ppn_amount,
		invoice_number, stock_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		t.ID, t.CompanyID, t.Date, t.Type, t.ItemID, t.CustomerID, t.VendorID,
		t.Quantity, t.BasePrice, t.SellPrice, t.TransportCost, t.UnexpectedCost, t.OtherCost, t.Notes,
		t.TaxType, t.EmptiesReturned, t.Revenue, t.COGS, t.TotalExpenses, t.Margin, t.MarginPercent, t.PPNAmount,
		t.InvoiceNumber, t.StockApplied, t.CreatedAt, t.UpdatedAt)
	return err
}

func (t *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return scanTransaction(t.tx.QueryRow(ctx, `SELECT `+selectColumns+selectFrom+` WHERE t.id = $1 FOR UPDATE OF t`, id))
}

func (t *txRepo) Item(ctx context.Context, id uuid.UUID) (ItemRef, error) {
	var i ItemRef
	err := t.tx.QueryRow(ctx, `SELECT id, company_id, name, default_tax_type, requires_ktp FROM items WHERE id = $1 AND deleted = false`, id).
		Scan(&i.ID, &i.CompanyID, &i.Name, &i.DefaultTaxType, &i.RequiresKTP)
	if db.IsNoRows(err) {
		return ItemRef{}, fmt.Errorf("%w: item", internalShared.ErrNotFound)
	}
	return i, err
}

func (t *txRepo) Customer(ctx context.Context, id uuid.UUID) (PartyRef, error) {
	var p PartyRef
	err := t.tx.QueryRow(ctx, `SELECT id, company_id, name, identity_number FROM customers WHERE id = $1`, id).
		Scan(&p.ID, &p.CompanyID, &p.Name, &p.IdentityNumber)
	if db.IsNoRows(err) {
		return PartyRef{}, fmt.Errorf("%w: customer", internalShared.ErrNotFound)
	}
	return p, err
}

func (t *txRepo) Vendor(ctx context.Context, id uuid.UUID) (PartyRef, error) {
	var p PartyRef
	err := t.tx.QueryRow(ctx, `SELECT id, company_id, name FROM vendors WHERE id = $1`, id).
		Scan(&p.ID, &p.CompanyID, &p.Name)
	if db.IsNoRows(err) {
		return PartyRef{}, fmt.Errorf("%w: vendor", internalShared.ErrNotFound)
	}
	return p, err
}

func (t *txRepo) CountSales(ctx context.Context, companyID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transactions
		WHERE company_id = $1 AND type = 'sale' AND deleted = false AND date >= $2 AND date < $3`,
		companyID, from, to).Scan(&n)
	return n, err
}

func (t *txRepo) Insert(ctx context.Context, tr Transaction) error {
	return insert(ctx, t.tx, tr)
}

func (t *txRepo) Update(ctx context.Context, tr Transaction) error {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET
		date = $2, type = $3, item_id = $4, customer_id = $5, vendor_id = $6,
		quantity = $7, base_price = $8, sell_price = $9, transport_cost = $10, unexpected_cost = $11, other_cost = $12,
		notes = $13, tax_type = $14, empties_returned = $15,
		revenue = $16, cogs = $17, total_expenses = $18, margin = $19, margin_percent = $20, ppn_amount = $21,
		stock_applied = $22, updated_at = NOW()
		WHERE id = $1 AND deleted = false`,
		tr.ID, tr.Date, tr.Type, tr.ItemID, tr.CustomerID, tr.VendorID,
		tr.Quantity, tr.BasePrice, tr.SellPrice, tr.TransportCost, tr.UnexpectedCost, tr.OtherCost,
		tr.Notes, tr.TaxType, tr.EmptiesReturned,
		tr.Revenue, tr.COGS, tr.TotalExpenses, tr.Margin, tr.MarginPercent, tr.PPNAmount,
		tr.StockApplied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction", internalShared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `UPDATE transactions SET deleted = true, updated_at = NOW() WHERE id = $1`, id)
	return err
}
