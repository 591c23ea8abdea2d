package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/finentry/finentry/internal/auth"
	"github.com/finentry/finentry/internal/shared"
	_ "github.com/finentry/finentry/testing"
)

const secret = "test-jwt-secret"

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

type stubDirectory struct {
	id uuid.UUID
}

func (d stubDirectory) FirstCompanyID(context.Context) (uuid.UUID, error) {
	return d.id, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUser(t *testing.T, role shared.Role, company uuid.UUID) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{ID: uuid.New(), Name: "Sari", Email: "sari@test.local", PasswordHash: string(hashed), Role: role, CompanyID: company, IsActive: true}
}

func TestLogin(t *testing.T) {
	company := uuid.New()
	user := newUser(t, shared.RoleAdmin, company)
	tokens := auth.NewTokens(secret, time.Hour)
	h := auth.NewHandler(discard(), auth.NewService(&stubRepo{user: user}, tokens))
	r := chi.NewRouter()
	r.Route("/api/auth", h.MountRoutes)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"email":"Sari@Test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session auth.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, shared.RoleAdmin, session.User.Role)
	require.NotNil(t, session.User.CompanyID)
	assert.Equal(t, company, *session.User.CompanyID)
	assert.NotContains(t, rec.Body.String(), "correctpass")

	id, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.Identity(), id)

	assert.Equal(t, http.StatusUnauthorized, post(`{"email":"sari@test.local","password":"wrongpass"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"email":"nobody@test.local","password":"correctpass"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"email":"not-an-email","password":"x"}`).Code)

	user.IsActive = false
	assert.Equal(t, http.StatusUnauthorized, post(`{"email":"sari@test.local","password":"correctpass"}`).Code)
}

func TestTokensRejectTampering(t *testing.T) {
	tokens := auth.NewTokens(secret, time.Hour)
	raw, _, err := tokens.Issue(shared.Identity{UserID: uuid.New(), Role: shared.RoleOwner})
	require.NoError(t, err)

	_, err = auth.NewTokens("other-secret", time.Hour).Parse(raw)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = tokens.Parse(raw + "x")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	expired := auth.NewTokens(secret, -time.Minute)
	stale, _, err := expired.Issue(shared.Identity{UserID: uuid.New(), Role: shared.RoleOwner})
	require.NoError(t, err)
	_, err = tokens.Parse(stale)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	bad, _, err := tokens.Issue(shared.Identity{UserID: uuid.New(), Role: "AUDITOR"})
	require.NoError(t, err)
	_, err = tokens.Parse(bad)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestMiddlewareResolvesScope(t *testing.T) {
	tokens := auth.NewTokens(secret, time.Hour)
	first := uuid.New()
	mw := auth.Middleware{Tokens: tokens, Logger: discard()}

	var seen shared.Scope
	r := chi.NewRouter()
	r.Use(mw.Authenticate)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireCompanyOnCreate(stubDirectory{id: first}))
		handler := func(w http.ResponseWriter, req *http.Request) {
			seen, _ = shared.ScopeFromContext(req.Context())
			w.WriteHeader(http.StatusNoContent)
		}
		r.Get("/things", handler)
		r.Post("/things", handler)
		r.Put("/things/1", handler)
		r.Delete("/things/1", handler)
	})
	r.With(mw.RequireOwner).Get("/admin", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	do := func(method, path string, id *shared.Identity, company string) int {
		req := httptest.NewRequest(method, path, nil)
		if id != nil {
			raw, _, err := tokens.Issue(*id)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+raw)
		}
		if company != "" {
			req.Header.Set(auth.CompanyHeader, company)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/things", nil, ""))

	owner := shared.Identity{UserID: uuid.New(), Role: shared.RoleOwner}
	require.Equal(t, http.StatusNoContent, do(http.MethodGet, "/things", &owner, ""))
	assert.True(t, seen.Unscoped)

	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/things", &owner, ""))
	assert.False(t, seen.Unscoped)
	assert.Equal(t, first, seen.CompanyID)

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		require.Equal(t, http.StatusNoContent, do(method, "/things/1", &owner, ""), method)
		assert.True(t, seen.Unscoped, method)
	}

	picked := uuid.New()
	require.Equal(t, http.StatusNoContent, do(http.MethodGet, "/things", &owner, picked.String()))
	assert.Equal(t, picked, seen.CompanyID)

	company := uuid.New()
	admin := shared.Identity{UserID: uuid.New(), Role: shared.RoleAdmin, CompanyID: company}
	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/things", &admin, ""))
	assert.Equal(t, company, seen.CompanyID)
	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/things", &admin, uuid.NewString()))

	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/admin", &admin, ""))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "/admin", &owner, ""))
}
