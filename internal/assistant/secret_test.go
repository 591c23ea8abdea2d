package assistant

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer(testSecret)
	require.NoError(t, err)

	sealed, err := s.Seal("gsk_live_key")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "gsk_live_key")

	again, err := s.Seal("gsk_live_key")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "gsk_live_key", plain)
}

func TestSealerAcceptsBase64Key(t *testing.T) {
	_, err := NewSealer(base64.StdEncoding.EncodeToString([]byte(testSecret)))
	require.NoError(t, err)

	_, err = NewSealer("short")
	require.Error(t, err)
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer(testSecret)
	require.NoError(t, err)
	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = s.Open(base64.StdEncoding.EncodeToString(raw))
	require.ErrorIs(t, err, ErrCorruptSecret)

	_, err = s.Open("not base64!")
	require.ErrorIs(t, err, ErrCorruptSecret)

	other, err := NewSealer(strings.Repeat("x", 32))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.ErrorIs(t, err, ErrCorruptSecret)
}
