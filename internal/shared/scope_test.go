package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	id  uuid.UUID
	err error
}

func (s stubDirectory) FirstCompanyID(context.Context) (uuid.UUID, error) {
	return s.id, s.err
}

func TestResolveScopeAdmin(t *testing.T) {
	company := uuid.New()
	id := Identity{UserID: uuid.New(), Role: RoleAdmin, CompanyID: company}

	scope, err := ResolveScope(id, "")
	require.NoError(t, err)
	assert.Equal(t, company, scope.CompanyID)
	assert.False(t, scope.Unscoped)

	_, err = ResolveScope(id, uuid.NewString())
	require.ErrorIs(t, err, ErrForbidden)

	_, err = ResolveScope(Identity{Role: RoleAdmin}, "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestResolveScopeOwner(t *testing.T) {
	owner := Identity{UserID: uuid.New(), Role: RoleOwner}

	scope, err := ResolveScope(owner, "")
	require.NoError(t, err)
	assert.True(t, scope.Unscoped)
	assert.Nil(t, scope.CompanyFilter())
	assert.True(t, scope.Allows(uuid.New()))

	picked := uuid.New()
	scope, err = ResolveScope(owner, picked.String())
	require.NoError(t, err)
	assert.Equal(t, picked, *scope.CompanyFilter())
	assert.False(t, scope.Allows(uuid.New()))

	_, err = ResolveScope(owner, "not-a-uuid")
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequireCompanyFallsBackToFirstCompany(t *testing.T) {
	first := uuid.New()
	scope, err := RequireCompany(context.Background(), GlobalScope(uuid.New()), stubDirectory{id: first})
	require.NoError(t, err)
	assert.Equal(t, first, scope.CompanyID)
	assert.Equal(t, RoleOwner, scope.Role)

	bound := CompanyScope(uuid.New(), RoleAdmin, uuid.New())
	same, err := RequireCompany(context.Background(), bound, stubDirectory{id: first})
	require.NoError(t, err)
	assert.Equal(t, bound, same)

	_, err = RequireCompany(context.Background(), GlobalScope(uuid.New()), stubDirectory{err: errors.New("boom")})
	require.Error(t, err)
}
