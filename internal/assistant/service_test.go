package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/ledger"
	"github.com/finentry/finentry/internal/reports"
	"github.com/finentry/finentry/internal/shared"
)

type memoryStore struct {
	mu        sync.Mutex
	configs   map[uuid.UUID]Record
	names     map[uuid.UUID]string
	totals    map[uuid.UUID]ledger.Totals
	companies []reports.CompanyRef
	ranges    []reports.Range
	top       []CustomerRevenue
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		configs: make(map[uuid.UUID]Record),
		names:   make(map[uuid.UUID]string),
		totals:  make(map[uuid.UUID]ledger.Totals),
	}
}

func (m *memoryStore) addCompany(name string, t ledger.Totals) uuid.UUID {
	id := uuid.New()
	m.names[id] = name
	m.totals[id] = t
	m.companies = append(m.companies, reports.CompanyRef{ID: id, Name: name})
	return id
}

func (m *memoryStore) GetConfig(ctx context.Context, companyID uuid.UUID) (Record, error) {
	rec, ok := m.configs[companyID]
	if !ok {
		return Record{}, shared.ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore) UpsertConfig(ctx context.Context, rec Record) error {
	m.configs[rec.CompanyID] = rec
	return nil
}

func (m *memoryStore) CompanyName(ctx context.Context, companyID uuid.UUID) (string, error) {
	return m.names[companyID], nil
}

func (m *memoryStore) TopCustomers(ctx context.Context, companyID uuid.UUID, from, to time.Time, limit int) ([]CustomerRevenue, error) {
	return m.top, nil
}

func (m *memoryStore) Totals(ctx context.Context, companyID *uuid.UUID, rg reports.Range) (ledger.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges = append(m.ranges, rg)
	return m.totals[*companyID], nil
}

func (m *memoryStore) Companies(ctx context.Context) ([]reports.CompanyRef, error) {
	return m.companies, nil
}

func (m *memoryStore) FirstCompanyID(ctx context.Context) (uuid.UUID, error) {
	if len(m.companies) == 0 {
		return uuid.Nil, shared.ErrNotFound
	}
	return m.companies[0].ID, nil
}

type fakeCompleter struct {
	provider Provider
	apiKey   string
	model    string
	prompt   Prompt
	reply    string
	err      error
}

func (f *fakeCompleter) factory(provider Provider, apiKey, model string) (Completer, error) {
	f.provider, f.apiKey, f.model = provider, apiKey, model
	return f, nil
}

func (f *fakeCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	f.prompt = p
	return f.reply, f.err
}

type fixture struct {
	store  *memoryStore
	llm    *fakeCompleter
	svc    *Service
	alpha  uuid.UUID
	beta   uuid.UUID
	admin  shared.Scope
	owner  shared.Scope
	sealer *Sealer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	var alphaTotals, betaTotals ledger.Totals
	alphaTotals.Add(1234567, 800000, 10000, 5000, 0, 419567)
	betaTotals.Add(500000, 400000, 0, 0, 0, 100000)
	alpha := store.addCompany("Alpha Gas", alphaTotals)
	beta := store.addCompany("Beta Gas", betaTotals)
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)
	llm := &fakeCompleter{reply: "Pendapatan bulan ini Rp 1.234.567."}
	clock := func() time.Time { return time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC) }
	svc := NewService(store, store, store, sealer, llm.factory, WithClock(clock), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return &fixture{
		store:  store,
		llm:    llm,
		svc:    svc,
		alpha:  alpha,
		beta:   beta,
		admin:  shared.CompanyScope(uuid.New(), shared.RoleAdmin, alpha),
		owner:  shared.GlobalScope(uuid.New()),
		sealer: sealer,
	}
}

func (f *fixture) configure(t *testing.T, company uuid.UUID, active bool) {
	t.Helper()
	scope := shared.CompanyScope(uuid.New(), shared.RoleAdmin, company)
	_, err := f.svc.SaveConfig(context.Background(), scope, ConfigInput{Provider: "groq", APIKey: "gsk_test", IsActive: active})
	require.NoError(t, err)
}

func TestFormatIDR(t *testing.T) {
	assert.Equal(t, "Rp 1.234.567", FormatIDR(decimal.NewFromInt(1234567)))
	assert.Equal(t, "Rp 0", FormatIDR(decimal.Zero))
	assert.Equal(t, "Rp 1.001", FormatIDR(decimal.RequireFromString("1000.6")))
}

func TestSaveConfigSealsKeyAndKeepsItWhenBlank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.svc.SaveConfig(ctx, f.admin, ConfigInput{Provider: "gemini", APIKey: "  AIza-key ", Model: "", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.True(t, cfg.HasAPIKey)

	stored := f.store.configs[f.alpha]
	assert.NotEqual(t, "AIza-key", stored.SealedKey)
	plain, err := f.sealer.Open(stored.SealedKey)
	require.NoError(t, err)
	assert.Equal(t, "AIza-key", plain)

	_, err = f.svc.SaveConfig(ctx, f.admin, ConfigInput{Provider: "GEMINI", Model: "gemini-pro", IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, stored.SealedKey, f.store.configs[f.alpha].SealedKey)
	assert.Equal(t, "gemini-pro", f.store.configs[f.alpha].Model)

	_, err = f.svc.SaveConfig(ctx, f.admin, ConfigInput{Provider: "claude"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetConfigNeverExposesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cfg, err := f.svc.GetConfig(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, Config{CompanyID: f.alpha}, cfg)

	f.configure(t, f.alpha, true)
	cfg, err = f.svc.GetConfig(ctx, f.admin)
	require.NoError(t, err)
	assert.True(t, cfg.HasAPIKey)
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "gsk_test")

	owned, err := f.svc.GetConfig(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, f.alpha, owned.CompanyID, "owner falls back to the first company")
}

func TestAskWithoutConfig(t *testing.T) {
	f := newFixture(t)
	answer, err := f.svc.Ask(context.Background(), f.admin, AskInput{Query: "berapa pendapatan?"})
	require.NoError(t, err)
	assert.True(t, answer.IsConfigMissing)
	assert.Equal(t, NotConfiguredAnswer, answer.Answer)

	f.configure(t, f.alpha, false)
	answer, err = f.svc.Ask(context.Background(), f.admin, AskInput{Query: "berapa pendapatan?"})
	require.NoError(t, err)
	assert.True(t, answer.IsConfigMissing)
	assert.Empty(t, f.llm.prompt.User)
}

func TestAskSingleCompany(t *testing.T) {
	f := newFixture(t)
	f.configure(t, f.alpha, true)
	f.store.top = []CustomerRevenue{newCustomerRevenue("Toko Maju", decimal.NewFromInt(700000))}

	answer, err := f.svc.Ask(context.Background(), f.admin, AskInput{Query: " berapa pendapatan? "})
	require.NoError(t, err)
	assert.Equal(t, "Pendapatan bulan ini Rp 1.234.567.", answer.Answer)
	assert.False(t, answer.IsConfigMissing)

	assert.Equal(t, ProviderGroq, f.llm.provider)
	assert.Equal(t, "gsk_test", f.llm.apiKey)
	assert.Equal(t, "berapa pendapatan?", f.llm.prompt.User)
	assert.Contains(t, f.llm.prompt.System, "Alpha Gas")
	assert.Contains(t, f.llm.prompt.System, "Current date: 2024-03-20")
	assert.Contains(t, f.llm.prompt.System, "Rp 1.234.567")
	assert.Contains(t, f.llm.prompt.System, "Data tidak tersedia.")

	fc := answer.Context
	require.NotNil(t, fc)
	assert.Equal(t, scopeSingle, fc.Scope)
	assert.Equal(t, ContextPeriod{Start: "2024-03-01", End: "2024-03-31"}, fc.Period)
	require.NotNil(t, fc.Financials)
	assert.Equal(t, 1234567.0, fc.Financials.Revenue)
	assert.Equal(t, 15000.0, fc.Financials.Expenses)
	assert.Equal(t, 419567.0, fc.Financials.NetProfit)
	assert.Equal(t, "Rp 419.567", fc.Financials.NetProfitIDR)
	assert.Len(t, fc.ExpenseBreakdown, 3)
	assert.Equal(t, "Toko Maju", fc.TopCustomers[0].Name)
}

func TestAskOwnerComparesCompanies(t *testing.T) {
	f := newFixture(t)
	f.configure(t, f.alpha, true)

	answer, err := f.svc.Ask(context.Background(), f.owner, AskInput{
		Query:     "perusahaan mana paling untung?",
		DateRange: &DateRange{StartDate: "2024-01-01", EndDate: "2024-01-31"},
	})
	require.NoError(t, err)
	fc := answer.Context
	require.NotNil(t, fc)
	assert.Equal(t, scopeMulti, fc.Scope)
	assert.Nil(t, fc.Financials)
	require.Len(t, fc.Summary, 2)
	assert.Equal(t, "Alpha Gas", fc.Summary[0].Name)
	assert.Equal(t, 33.99, fc.Summary[0].MarginPercent)
	assert.Equal(t, "Beta Gas", fc.Summary[1].Name)
	assert.Equal(t, 100000.0, fc.Summary[1].Profit)
	assert.Equal(t, 20.0, fc.Summary[1].MarginPercent)
	assert.Contains(t, f.llm.prompt.System, "all companies")

	for _, rg := range f.store.ranges {
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rg.From)
		assert.True(t, rg.Inclusive)
	}
}

func TestAskValidation(t *testing.T) {
	f := newFixture(t)
	f.configure(t, f.alpha, true)

	_, err := f.svc.Ask(context.Background(), f.admin, AskInput{Query: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Ask(context.Background(), f.admin, AskInput{Query: "q", DateRange: &DateRange{StartDate: "kemarin"}})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAskProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.configure(t, f.alpha, true)
	f.llm.err = errors.New("boom")

	_, err := f.svc.Ask(context.Background(), f.admin, AskInput{Query: "q"})
	require.Error(t, err)
}

func TestHandlerRoutes(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithScope(req.Context(), f.admin)))
		})
	})
	r.Route("/api/ai", h.MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/ai/ask", `{"query":"halo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isConfigMissing":true`)

	rec = do(http.MethodPost, "/api/ai/config", `{"apiKey":"k"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/api/ai/config", `{"provider":"OPENAI","apiKey":"sk-1","isActive":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-1")

	rec = do(http.MethodGet, "/api/ai/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.True(t, cfg.HasAPIKey)

	rec = do(http.MethodPost, "/api/ai/ask", `{"query":"halo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var answer Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, f.llm.reply, answer.Answer)
	assert.Equal(t, "sk-1", f.llm.apiKey)
}
