package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherSecretsRoundTrip(t *testing.T) {
	store, err := NewCipherSecrets("correct horse")
	require.NoError(t, err)

	sealed, err := store.Seal("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, SealedPrefix))
	assert.NotContains(t, sealed, "s3cret")

	plain, err := store.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)
}

func TestCipherSecretsUniqueSalt(t *testing.T) {
	store, err := NewCipherSecrets("pass")
	require.NoError(t, err)

	a, err := store.Seal("same")
	require.NoError(t, err)
	b, err := store.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipherSecretsWrongPassphrase(t *testing.T) {
	store, _ := NewCipherSecrets("right")
	other, _ := NewCipherSecrets("wrong")

	sealed, err := store.Seal("value")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestCipherSecretsPassesPlaintextThrough(t *testing.T) {
	store, _ := NewCipherSecrets("pass")

	plain, err := store.Open("legacy-plaintext")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext", plain)

	sealed, err := store.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)
}

func TestCipherSecretsRejectsTruncated(t *testing.T) {
	store, _ := NewCipherSecrets("pass")
	_, err := store.Open(SealedPrefix + "abcd")
	assert.Error(t, err)
	_, err = store.Open(SealedPrefix + "zz")
	assert.Error(t, err)
}

func TestNewCipherSecretsRequiresPassphrase(t *testing.T) {
	_, err := NewCipherSecrets("")
	assert.Error(t, err)
}

func TestPlainSecrets(t *testing.T) {
	var store SecretStore = PlainSecrets{}
	sealed, err := store.Seal("pw")
	require.NoError(t, err)
	assert.Equal(t, "pw", sealed)
}
