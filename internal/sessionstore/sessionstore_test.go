package sessionstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/jelu-importer/internal/crypto"
	"github.com/mrlokans/jelu-importer/internal/entities"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store, err := New(Config{
		DatabasePath:  filepath.Join(t.TempDir(), "test.db"),
		EncryptionKey: key,
	})
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
	}
	return store, cleanup
}

func TestNew(t *testing.T) {
	t.Run("fails with invalid encryption key", func(t *testing.T) {
		_, err := New(Config{
			DatabasePath:  filepath.Join(t.TempDir(), "test.db"),
			EncryptionKey: "invalid-key",
		})
		assert.Error(t, err)
	})

	t.Run("generates key file if missing", func(t *testing.T) {
		t.Setenv(EnvEncryptionKey, "")
		dir := t.TempDir()
		keyPath := filepath.Join(dir, "new-key")

		store, err := New(Config{DatabasePath: filepath.Join(dir, "test.db"), KeyFilePath: keyPath})
		require.NoError(t, err)
		defer store.Close()

		assert.FileExists(t, keyPath)
	})
}

func TestStore_GetSetRemove(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, ok, err := store.Get(entities.SettingKeyUsername)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(entities.SettingKeyUsername, "reader"))
	value, ok, err := store.Get(entities.SettingKeyUsername)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "reader", value)

	require.NoError(t, store.Remove(entities.SettingKeyUsername))
	_, ok, err = store.Get(entities.SettingKeyUsername)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TokenSealedAtRest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.Set(entities.SettingKeyToken, "session-token"))

	raw, err := store.db.GetSetting(entities.SettingKeyToken)
	require.NoError(t, err)
	assert.True(t, raw.Encrypted)
	assert.NotContains(t, raw.Value, "session-token")

	value, ok, err := store.Get(entities.SettingKeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "session-token", value)
}

func TestStore_RejectsUnknownKeys(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for _, key := range []string{"password", "jeluPassword", ""} {
		assert.ErrorIs(t, store.Set(key, "x"), ErrUnknownKey)
		_, _, err := store.Get(key)
		assert.ErrorIs(t, err, ErrUnknownKey)
		assert.ErrorIs(t, store.Remove(key), ErrUnknownKey)
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	empty, err := store.Load()
	require.NoError(t, err)
	assert.False(t, empty.Complete())

	session := Session{ServiceURL: "https://jelu.example.com", Username: "reader", Token: "tok"}
	require.NoError(t, store.Save(session))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
	assert.True(t, loaded.Complete())

	session.Token = ""
	require.NoError(t, store.Save(session))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Token)
	assert.Equal(t, "reader", loaded.Username)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, Session{}, loaded)
}

func TestStore_WrongKeyCannotReadToken(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shared.db")

	key1, err := crypto.GenerateKey()
	require.NoError(t, err)
	first, err := New(Config{DatabasePath: dbPath, EncryptionKey: key1})
	require.NoError(t, err)
	require.NoError(t, first.Set(entities.SettingKeyToken, "secret"))
	require.NoError(t, first.Close())

	key2, err := crypto.GenerateKey()
	require.NoError(t, err)
	second, err := New(Config{DatabasePath: dbPath, EncryptionKey: key2})
	require.NoError(t, err)
	defer second.Close()

	_, _, err = second.Get(entities.SettingKeyToken)
	assert.ErrorIs(t, err, crypto.ErrTampered)
}
