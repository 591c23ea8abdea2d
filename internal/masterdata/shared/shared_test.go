package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalShared "github.com/finentry/finentry/internal/shared"
)

type row struct {
	Name string `json:"name"`
}

func TestNameSetIsCaseInsensitive(t *testing.T) {
	set := NewNameSet([]string{"Toko Maju"})
	assert.True(t, set.Has("toko maju"))
	assert.True(t, set.Has("  TOKO MAJU "))
	assert.False(t, set.Has("Toko Mundur"))
	set.Add("Toko Mundur")
	assert.True(t, set.Has("toko mundur"))
}

func TestDecodeOneOrMany(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(` [{"name":"a"},{"name":"b"}]`))
	one, many, err := DecodeOneOrMany[row](req)
	require.NoError(t, err)
	assert.Nil(t, one)
	assert.Len(t, many, 2)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	one, many, err = DecodeOneOrMany[row](req)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "a", one.Name)
	assert.Nil(t, many)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	_, _, err = DecodeOneOrMany[row](req)
	require.ErrorIs(t, err, internalShared.ErrValidation)
}
