// internal/config/token_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringTokenStore_SaveLoadDelete(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringTokenStore(logging.GetNoopLogger())

	assert.True(t, store.IsAvailable())
	token, err := store.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token, "Nothing stored yet.")

	require.NoError(t, store.SaveToken("pk_saved", "777"))
	token, err = store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "pk_saved", token)

	require.NoError(t, store.DeleteToken())
	require.NoError(t, store.DeleteToken(), "Deleting twice is not an error.")
	token, err = store.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestKeyringTokenStore_RejectsEmptyToken(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, NewKeyringTokenStore(nil).SaveToken("", ""))
}

func TestKeyringTokenStore_CorruptedEntryIsDropped(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(keyringService, keyringAccount, "not json"))
	store := NewKeyringTokenStore(nil)

	_, err := store.LoadToken()
	require.Error(t, err)

	token, err := store.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestNewTokenStore_PrefersKeyring(t *testing.T) {
	keyring.MockInit()
	store, err := NewTokenStore(filepath.Join(t.TempDir(), "token.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, "keyring", store.Name())
}

func TestFileTokenStore_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store, err := NewFileTokenStore(path, nil)
	require.NoError(t, err)

	token, err := store.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SaveToken("pk_file", ""))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "pk_file", token)

	require.NoError(t, store.DeleteToken())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.DeleteToken())
}

func TestResolveToken(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringTokenStore(nil)
	require.NoError(t, store.SaveToken("pk_keyring", ""))

	t.Run("fills missing token", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ResolveToken(store, nil)
		assert.Equal(t, "pk_keyring", cfg.ClickUp.APIToken)
		assert.Equal(t, "keyring", cfg.TokenSource)
	})

	t.Run("keeps configured token", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ClickUp.APIToken = "pk_env"
		cfg.TokenSource = "environment variable"
		cfg.ResolveToken(store, nil)
		assert.Equal(t, "pk_env", cfg.ClickUp.APIToken)
		assert.Equal(t, "environment variable", cfg.TokenSource)
	})

	t.Run("empty store leaves token empty", func(t *testing.T) {
		empty, err := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"), nil)
		require.NoError(t, err)
		cfg := DefaultConfig()
		cfg.ResolveToken(empty, nil)
		assert.Empty(t, cfg.ClickUp.APIToken)
		assert.Equal(t, "default", cfg.TokenSource)
	})
}
