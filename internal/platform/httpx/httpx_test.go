package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finentry/finentry/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: quantity", shared.ErrValidation), http.StatusBadRequest},
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrConflict, http.StatusConflict},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, nil, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, nil, errors.New("password=hunter2"))
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

type bindTarget struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestBindReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var target bindTarget
	err := Bind(req, NewValidator(), &target)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "name failed on required")
	assert.Contains(t, err.Error(), "quantity failed on gt")
}

func TestBindMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var target bindTarget
	require.ErrorIs(t, Bind(req, NewValidator(), &target), shared.ErrValidation)
}
