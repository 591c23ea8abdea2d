package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finentry/finentry/internal/platform/db"
	"github.com/finentry/finentry/internal/shared"
)

// Repository persists logistics records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	CountOrders(ctx context.Context, companyID uuid.UUID) (int, error)
	Driver(ctx context.Context, id uuid.UUID) (Driver, error)
	Vehicle(ctx context.Context, id uuid.UUID) (Vehicle, error)
	InsertOrder(ctx context.Context, o Order) error
	AssignTransactions(ctx context.Context, companyID, orderID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const (
	driverColumns  = `id, company_id, name, phone, license_no, status, created_at`
	vehicleColumns = `id, company_id, plate_number, type, capacity, created_at`
)

func scanDriver(row pgx.Row) (Driver, error) {
	var d Driver
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Phone, &d.LicenseNo, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Driver{}, shared.ErrNotFound
	}
	return d, err
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.CompanyID, &v.PlateNumber, &v.Type, &v.Capacity, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, shared.ErrNotFound
	}
	return v, err
}

// ListDrivers returns active drivers, optionally filtered by a
// case-insensitive name fragment.
func (r *Repository) ListDrivers(ctx context.Context, companyID uuid.UUID, search string) ([]Driver, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+driverColumns+` FROM drivers
		WHERE company_id = $1 AND status = 'active'
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name ASC`, companyID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateDriver inserts a driver.
func (r *Repository) CreateDriver(ctx context.Context, d Driver) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO drivers (`+driverColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.CompanyID, d.Name, d.Phone, d.LicenseNo, d.Status, d.CreatedAt)
	return err
}

// ListVehicles returns vehicles ordered by plate.
func (r *Repository) ListVehicles(ctx context.Context, companyID uuid.UUID) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE company_id = $1 ORDER BY plate_number ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateVehicle inserts a vehicle.
func (r *Repository) CreateVehicle(ctx context.Context, v Vehicle) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO vehicles (`+vehicleColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.CompanyID, v.PlateNumber, v.Type, v.Capacity, v.CreatedAt)
	return err
}

// ListOrders returns the company's orders newest first with their vehicle,
// driver and assigned transactions.
func (r *Repository) ListOrders(ctx context.Context, companyID uuid.UUID) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT
			o.id, o.company_id, o.do_number, o.date, o.vehicle_id, o.driver_id, o.notes, o.status, o.created_at,
			v.id, v.company_id, v.plate_number, v.type, v.capacity, v.created_at,
			d.id, d.company_id, d.name, d.phone, d.license_no, d.status, d.created_at
		FROM delivery_orders o
		JOIN vehicles v ON v.id = o.vehicle_id
		JOIN drivers d ON d.id = o.driver_id
		WHERE o.company_id = $1
		ORDER BY o.date DESC, o.created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var o Order
		var v Vehicle
		var d Driver
		if err := rows.Scan(
			&o.ID, &o.CompanyID, &o.Number, &o.Date, &o.VehicleID, &o.DriverID, &o.Notes, &o.Status, &o.CreatedAt,
			&v.ID, &v.CompanyID, &v.PlateNumber, &v.Type, &v.Capacity, &v.CreatedAt,
			&d.ID, &d.CompanyID, &d.Name, &d.Phone, &d.LicenseNo, &d.Status, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		o.Vehicle, o.Driver = &v, &d
		o.Transactions = []AssignedTransaction{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	trows, err := r.pool.Query(ctx, `SELECT t.delivery_order_id, t.id, t.invoice_number, c.name
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		WHERE t.delivery_order_id = ANY($1)
		ORDER BY t.date ASC, t.created_at ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var orderID uuid.UUID
		var t AssignedTransaction
		if err := trows.Scan(&orderID, &t.ID, &t.InvoiceNumber, &t.CustomerName); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Transactions = append(orders[i].Transactions, t)
		}
	}
	return orders, trows.Err()
}

func (t *txRepo) CountOrders(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_orders WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

func (t *txRepo) Driver(ctx context.Context, id uuid.UUID) (Driver, error) {
	return scanDriver(t.tx.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
}

func (t *txRepo) Vehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	return scanVehicle(t.tx.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO delivery_orders
		(id, company_id, do_number, date, vehicle_id, driver_id, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.CompanyID, o.Number, o.Date, o.VehicleID, o.DriverID, o.Notes, o.Status, o.CreatedAt)
	return err
}

// AssignTransactions links the company's active transactions among ids to
// the order. Foreign or deleted ids are skipped.
func (t *txRepo) AssignTransactions(ctx context.Context, companyID, orderID uuid.UUID, ids []uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions
		SET delivery_order_id = $1, updated_at = $4
		WHERE id = ANY($2) AND company_id = $3 AND deleted = false`, orderID, ids, companyID, time.Now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
