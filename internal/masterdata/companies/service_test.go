package companies

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalShared "github.com/finentry/finentry/internal/shared"
)

type stubRepo struct {
	companies []Company
}

func (s stubRepo) List(ctx context.Context) ([]Company, error) { return s.companies, nil }

func (s stubRepo) FirstID(ctx context.Context) (uuid.UUID, error) {
	if len(s.companies) == 0 {
		return uuid.Nil, internalShared.ErrNotFound
	}
	return s.companies[0].ID, nil
}

func TestServiceActsAsCompanyDirectory(t *testing.T) {
	first := uuid.New()
	svc := NewService(stubRepo{companies: []Company{{ID: first, Name: "Alpha"}, {ID: uuid.New(), Name: "Beta"}}})

	var dir internalShared.CompanyDirectory = svc
	scope, err := internalShared.RequireCompany(context.Background(), internalShared.GlobalScope(uuid.New()), dir)
	require.NoError(t, err)
	assert.Equal(t, first, scope.CompanyID)
	assert.False(t, scope.Unscoped)

	_, err = internalShared.RequireCompany(context.Background(), internalShared.GlobalScope(uuid.New()), NewService(stubRepo{}))
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestListHandlerReturnsEmptyArray(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(stubRepo{}))
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/companies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body []Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body)
	assert.Equal(t, "[]\n", rec.Body.String())
}
