package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/shared"
)

type memoryRepo struct {
	levels  map[uuid.UUID]Level
	opening map[uuid.UUID]Delta
	drifts  []Drift
	audits  []shared.AuditLog
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: make(map[uuid.UUID]Level), opening: make(map[uuid.UUID]Delta)}
}

func (r *memoryRepo) seed(companyID uuid.UUID, full, empty int) uuid.UUID {
	id := uuid.New()
	r.levels[id] = Level{ItemID: id, CompanyID: companyID, Name: "LPG 3kg", StockFull: full, StockEmpty: empty}
	return id
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[uuid.UUID]Level, len(r.levels))
	for k, v := range r.levels {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.levels = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) ListLevels(ctx context.Context, companyID *uuid.UUID) ([]Level, error) {
	var out []Level
	for _, l := range r.levels {
		if companyID == nil || l.CompanyID == *companyID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryRepo) Reconciliation(ctx context.Context) ([]Drift, error) {
	return r.drifts, nil
}

func (r *memoryRepo) Record(ctx context.Context, log shared.AuditLog) error {
	r.audits = append(r.audits, log)
	return nil
}

func (tx *memoryTx) GetLevelForUpdate(ctx context.Context, itemID uuid.UUID) (Level, error) {
	l, ok := tx.repo.levels[itemID]
	if !ok {
		return Level{}, ErrLevelNotFound
	}
	return l, nil
}

func (tx *memoryTx) AdjustStock(ctx context.Context, itemID uuid.UUID, d Delta) error {
	l, ok := tx.repo.levels[itemID]
	if !ok {
		return ErrLevelNotFound
	}
	l.StockFull += d.Full
	l.StockEmpty += d.Empty
	tx.repo.levels[itemID] = l
	return nil
}

func (tx *memoryTx) ShiftOpening(ctx context.Context, itemID uuid.UUID, d Delta) error {
	o := tx.repo.opening[itemID]
	tx.repo.opening[itemID] = Delta{Full: o.Full + d.Full, Empty: o.Empty + d.Empty}
	return nil
}

func TestSaleApplyThenEdit(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.seed(uuid.New(), 500, 50)
	w := &memoryTx{repo: repo}
	ctx := context.Background()

	sale := Movement{ItemID: itemID, Kind: KindSale, Quantity: 100, EmptiesReturned: 30}
	require.NoError(t, Apply(ctx, w, sale))
	assert.Equal(t, 400, repo.levels[itemID].StockFull)
	assert.Equal(t, 80, repo.levels[itemID].StockEmpty)

	edited := Movement{ItemID: itemID, Kind: KindSale, Quantity: 80, EmptiesReturned: 20}
	require.NoError(t, Replace(ctx, w, sale, edited))
	assert.Equal(t, 420, repo.levels[itemID].StockFull)
	assert.Equal(t, 70, repo.levels[itemID].StockEmpty)
}

func TestPurchaseEffectAndRevert(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.seed(uuid.New(), 10, 40)
	w := &memoryTx{repo: repo}
	ctx := context.Background()

	purchase := Movement{ItemID: itemID, Kind: KindPurchase, Quantity: 25}
	require.NoError(t, Apply(ctx, w, purchase))
	assert.Equal(t, 35, repo.levels[itemID].StockFull)
	assert.Equal(t, 15, repo.levels[itemID].StockEmpty)

	require.NoError(t, Revert(ctx, w, purchase))
	assert.Equal(t, 10, repo.levels[itemID].StockFull)
	assert.Equal(t, 40, repo.levels[itemID].StockEmpty)
}

func TestReplaceAcrossItemsAndTypes(t *testing.T) {
	repo := newMemoryRepo()
	company := uuid.New()
	oldItem := repo.seed(company, 100, 0)
	newItem := repo.seed(company, 100, 100)
	w := &memoryTx{repo: repo}
	ctx := context.Background()

	sale := Movement{ItemID: oldItem, Kind: KindSale, Quantity: 10, EmptiesReturned: 5}
	require.NoError(t, Apply(ctx, w, sale))

	purchase := Movement{ItemID: newItem, Kind: KindPurchase, Quantity: 7}
	require.NoError(t, Replace(ctx, w, sale, purchase))

	assert.Equal(t, 100, repo.levels[oldItem].StockFull)
	assert.Equal(t, 0, repo.levels[oldItem].StockEmpty)
	assert.Equal(t, 107, repo.levels[newItem].StockFull)
	assert.Equal(t, 93, repo.levels[newItem].StockEmpty)
}

func TestCountersMayGoNegative(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.seed(uuid.New(), 0, 0)
	require.NoError(t, Apply(context.Background(), &memoryTx{repo: repo}, Movement{ItemID: itemID, Kind: KindSale, Quantity: 3}))
	assert.Equal(t, -3, repo.levels[itemID].StockFull)
}

func TestPostAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	company := uuid.New()
	itemID := repo.seed(company, 5, 5)
	svc := NewService(repo, repo)
	scope := shared.CompanyScope(uuid.New(), shared.RoleAdmin, company)

	level, err := svc.PostAdjustment(context.Background(), scope, AdjustmentInput{ItemID: itemID, FullDelta: 10, EmptyDelta: -2, Note: "opname"})
	require.NoError(t, err)
	assert.Equal(t, 15, level.StockFull)
	assert.Equal(t, 3, level.StockEmpty)
	assert.Equal(t, Delta{Full: 10, Empty: -2}, repo.opening[itemID])
	require.Len(t, repo.audits, 1)
	assert.Equal(t, "inventory:adjust", repo.audits[0].Action)
}

func TestPostAdjustmentGuards(t *testing.T) {
	repo := newMemoryRepo()
	itemID := repo.seed(uuid.New(), 5, 5)
	svc := NewService(repo, nil)
	other := shared.CompanyScope(uuid.New(), shared.RoleAdmin, uuid.New())

	_, err := svc.PostAdjustment(context.Background(), other, AdjustmentInput{ItemID: itemID, FullDelta: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 5, repo.levels[itemID].StockFull)

	_, err = svc.PostAdjustment(context.Background(), other, AdjustmentInput{ItemID: itemID})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.PostAdjustment(context.Background(), other, AdjustmentInput{ItemID: uuid.New(), FullDelta: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDriftDifference(t *testing.T) {
	d := Drift{Expected: Delta{Full: -100, Empty: 30}, Actual: Delta{Full: -80, Empty: 30}}
	assert.Equal(t, Delta{Full: 20, Empty: 0}, d.Difference())
}
