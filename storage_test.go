package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := auth.NewFileCredentialStore(path)

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save([]byte("secret-token")))

	raw, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret-token", string(raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())

	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an already-clean store is not an error.
	require.NoError(t, store.Clear())
}

func TestMemoryCredentialStoreIsolatesData(t *testing.T) {
	store := auth.NewMemoryCredentialStore()

	payload := []byte("abc")
	require.NoError(t, store.Save(payload))
	payload[0] = 'x'

	raw, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(raw))

	require.NoError(t, store.Clear())
	_, ok, _ = store.Load()
	assert.False(t, ok)
}
