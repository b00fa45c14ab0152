package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := s.Seal("0xdeadbeefprivatekey")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "deadbeef")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeefprivatekey", opened)
}

func TestSealProducesUniqueFrames(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	_, err = s.Open(tampered)
	assert.Error(t, err)
}

func TestOpenRejectsBadFrames(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)

	for _, bad := range []string{"", "plaintext", "ENC[v1]:", "ENC[v1]:!!!not-base64", "ENC[v1]:AAAA"} {
		_, err := s.Open(bad)
		assert.Error(t, err, "frame %q", bad)
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, err := NewSealer("key-a")
	require.NoError(t, err)
	b, err := NewSealer("key-b")
	require.NoError(t, err)

	sealed, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestNewSealerRejectsEmptyPassphrase(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

func TestIsSealed(t *testing.T) {
	assert.True(t, IsSealed("ENC[v1]:abc"))
	assert.False(t, IsSealed("sk-plaintext"))
	assert.False(t, IsSealed(strings.ToLower("ENC[v1]:abc")))
}
