package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/shared"
)

type txn struct {
	companyID uuid.UUID
	orderID   *uuid.UUID
	deleted   bool
}

type memoryRepo struct {
	drivers  map[uuid.UUID]Driver
	vehicles map[uuid.UUID]Vehicle
	orders   map[uuid.UUID]Order
	txns     map[uuid.UUID]*txn
	audits   []shared.AuditLog
	failTx   error
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		drivers:  map[uuid.UUID]Driver{},
		vehicles: map[uuid.UUID]Vehicle{},
		orders:   map[uuid.UUID]Order{},
		txns:     map[uuid.UUID]*txn{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	orders := make(map[uuid.UUID]Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = v
	}
	links := make(map[uuid.UUID]*uuid.UUID, len(m.txns))
	for k, v := range m.txns {
		links[k] = v.orderID
	}
	err := fn(ctx, &memoryTx{repo: m})
	if err == nil {
		err = m.failTx
	}
	if err != nil {
		m.orders = orders
		for k, v := range links {
			m.txns[k].orderID = v
		}
	}
	return err
}

func (m *memoryRepo) ListDrivers(ctx context.Context, companyID uuid.UUID, search string) ([]Driver, error) {
	var out []Driver
	for _, d := range m.drivers {
		if d.CompanyID != companyID || d.Status != DriverActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) CreateDriver(ctx context.Context, d Driver) error {
	m.drivers[d.ID] = d
	return nil
}

func (m *memoryRepo) ListVehicles(ctx context.Context, companyID uuid.UUID) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range m.vehicles {
		if v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateVehicle(ctx context.Context, v Vehicle) error {
	m.vehicles[v.ID] = v
	return nil
}

func (m *memoryRepo) ListOrders(ctx context.Context, companyID uuid.UUID) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.CompanyID != companyID {
			continue
		}
		o.Transactions = []AssignedTransaction{}
		for id, t := range m.txns {
			if t.orderID != nil && *t.orderID == o.ID {
				o.Transactions = append(o.Transactions, AssignedTransaction{ID: id})
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memoryRepo) Record(ctx context.Context, log shared.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func (tx *memoryTx) CountOrders(ctx context.Context, companyID uuid.UUID) (int, error) {
	n := 0
	for _, o := range tx.repo.orders {
		if o.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) Driver(ctx context.Context, id uuid.UUID) (Driver, error) {
	d, ok := tx.repo.drivers[id]
	if !ok {
		return Driver{}, shared.ErrNotFound
	}
	return d, nil
}

func (tx *memoryTx) Vehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	v, ok := tx.repo.vehicles[id]
	if !ok {
		return Vehicle{}, shared.ErrNotFound
	}
	return v, nil
}

func (tx *memoryTx) InsertOrder(ctx context.Context, o Order) error {
	tx.repo.orders[o.ID] = o
	return nil
}

func (tx *memoryTx) AssignTransactions(ctx context.Context, companyID, orderID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		t, ok := tx.repo.txns[id]
		if !ok || t.companyID != companyID || t.deleted {
			continue
		}
		oid := orderID
		t.orderID = &oid
		n++
	}
	return n, nil
}

type fixture struct {
	repo    *memoryRepo
	svc     *Service
	company uuid.UUID
	scope   shared.Scope
	driver  uuid.UUID
	vehicle uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, repo)
	svc.clock = func() time.Time { return time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC) }
	company := uuid.New()
	scope := shared.CompanyScope(uuid.New(), shared.RoleAdmin, company)

	d, err := svc.CreateDriver(context.Background(), scope, DriverInput{Name: " Budi "})
	require.NoError(t, err)
	v, err := svc.CreateVehicle(context.Background(), scope, VehicleInput{PlateNumber: "b 1234 xyz"})
	require.NoError(t, err)
	return &fixture{repo: repo, svc: svc, company: company, scope: scope, driver: d.ID, vehicle: v.ID}
}

func (f *fixture) addTxn(company uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.repo.txns[id] = &txn{companyID: company}
	return id
}

func TestCreateOrderNumbersAndAssigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.addTxn(f.company)
	foreign := f.addTxn(uuid.New())

	o, err := f.svc.CreateOrder(ctx, f.scope, OrderInput{
		Date:           "2024-05-03",
		VehicleID:      &f.vehicle,
		DriverID:       &f.driver,
		TransactionIDs: []uuid.UUID{mine, foreign},
		Notes:          ptr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "DO/2024/001", o.Number)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC), o.Date)
	assert.Nil(t, o.Notes)
	require.NotNil(t, f.repo.txns[mine].orderID)
	assert.Equal(t, o.ID, *f.repo.txns[mine].orderID)
	assert.Nil(t, f.repo.txns[foreign].orderID)

	require.Len(t, f.repo.audits, 1)
	assert.Equal(t, "delivery_order:create", f.repo.audits[0].Action)
	assert.Equal(t, int64(1), f.repo.audits[0].Meta["transactions"])

	second, err := f.svc.CreateOrder(ctx, f.scope, OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{f.addTxn(f.company)}})
	require.NoError(t, err)
	assert.Equal(t, "DO/2024/002", second.Number)
	assert.Equal(t, time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC), second.Date)

	list, err := f.svc.ListOrders(ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, o.ID, list[0].ID)
	assert.Len(t, list[0].Transactions, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txnID := f.addTxn(f.company)

	_, err := f.svc.CreateOrder(ctx, f.scope, OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), ErrMissingAssignment.Error())

	_, err = f.svc.CreateOrder(ctx, f.scope, OrderInput{DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.CreateOrder(ctx, f.scope, OrderInput{Date: "someday", VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	require.ErrorIs(t, err, shared.ErrValidation)

	missing := uuid.New()
	_, err = f.svc.CreateOrder(ctx, f.scope, OrderInput{VehicleID: &missing, DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	require.ErrorIs(t, err, shared.ErrNotFound)

	other := shared.CompanyScope(uuid.New(), shared.RoleAdmin, uuid.New())
	_, err = f.svc.CreateOrder(ctx, other, OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.CreateOrder(ctx, f.scope, OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{uuid.New()}})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, f.repo.orders)

	_, err = f.svc.CreateOrder(ctx, shared.GlobalScope(uuid.New()), OrderInput{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateOrderRollsBackAssignment(t *testing.T) {
	f := newFixture(t)
	f.repo.failTx = errors.New("commit failed")
	txnID := f.addTxn(f.company)

	_, err := f.svc.CreateOrder(context.Background(), f.scope, OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	require.Error(t, err)
	assert.Empty(t, f.repo.orders)
	assert.Nil(t, f.repo.txns[txnID].orderID)
	assert.Empty(t, f.repo.audits)
}

func TestDriversAndVehicles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateDriver(ctx, f.scope, DriverInput{Name: "Agus", Phone: ptr("0812")})
	require.NoError(t, err)
	f.repo.drivers[uuid.New()] = Driver{CompanyID: f.company, Name: "Budiman", Status: "inactive"}

	drivers, err := f.svc.ListDrivers(ctx, f.scope, "BUD")
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "Budi", drivers[0].Name)

	_, err = f.svc.CreateDriver(ctx, f.scope, DriverInput{Name: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)

	vehicles, err := f.svc.ListVehicles(ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "B 1234 XYZ", vehicles[0].PlateNumber)

	_, err = f.svc.CreateVehicle(ctx, f.scope, VehicleInput{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "DO/2024/001", FormatOrderNumber(2024, 1))
	assert.Equal(t, "DO/2025/1234", FormatOrderNumber(2025, 1234))
}

func TestHandlerRoutes(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithScope(req.Context(), f.scope)))
		})
	})
	r.Route("/api/logistics/delivery-orders", h.MountOrderRoutes)
	r.Route("/api/master-data", h.MountFleetRoutes)

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodGet, "/api/logistics/delivery-orders/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = send(http.MethodPost, "/api/master-data/drivers/", `{"phone":"0812"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(http.MethodPost, "/api/master-data/vehicles/", `{"plateNumber":"L 9 AB","capacity":560}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(http.MethodPost, "/api/logistics/delivery-orders/", `{"transactionIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	txnID := f.addTxn(f.company)
	body, _ := json.Marshal(OrderInput{VehicleID: &f.vehicle, DriverID: &f.driver, TransactionIDs: []uuid.UUID{txnID}})
	rec = send(http.MethodPost, "/api/logistics/delivery-orders/", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, "DO/2024/001", o.Number)
	assert.Equal(t, "Budi", o.Driver.Name)
}

func ptr(s string) *string { return &s }
