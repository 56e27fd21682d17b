package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"taskclient/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := storage.NewFileStore(path)

	store.Set("key", "value")

	v, ok := store.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	// A fresh store reading the same file sees the persisted value.
	reopened := storage.NewFileStore(path)
	v, ok = reopened.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestFileStore_Delete(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	store.Set("key", "value")
	store.Delete("key")

	_, ok := store.Get("key")
	assert.False(t, ok)
}

func TestFileStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	store := storage.NewFileStore(path)
	store.Set("key", "value")

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStore_CorruptFileRunsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := storage.NewFileStore(path)
	_, ok := store.Get("key")
	assert.False(t, ok)

	// Still writable after starting from a corrupt file.
	store.Set("key", "value")
	v, ok := store.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestPreferences_ThemeMode(t *testing.T) {
	kv := storage.NewMemStore()
	prefs := storage.NewPreferences(kv, "light")

	assert.Equal(t, "light", prefs.ThemeMode())

	prefs.SetThemeMode("dark")
	assert.Equal(t, "dark", prefs.ThemeMode())

	// The preference survives a new wrapper over the same storage.
	again := storage.NewPreferences(kv, "light")
	assert.Equal(t, "dark", again.ThemeMode())
}
