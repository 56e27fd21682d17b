package auth_test

import (
	"testing"

	"taskclient/internal/auth"
	"taskclient/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenKey = "taskmanagement_token"

func TestTokenStore_Get_StripsSchemePrefix(t *testing.T) {
	kv := storage.NewMemStore()
	kv.Set(tokenKey, "Bearer abc.def.ghi")
	store := auth.NewTokenStore(kv, tokenKey)

	token, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	// Self-healing: the raw stored value is rewritten without the prefix.
	raw, ok := kv.Get(tokenKey)
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", raw)

	// Idempotent on repeat reads.
	token, ok = store.Get()
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)
	raw, _ = kv.Get(tokenKey)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestTokenStore_Get_PlainValuePassesThrough(t *testing.T) {
	kv := storage.NewMemStore()
	kv.Set(tokenKey, "plain-token")
	store := auth.NewTokenStore(kv, tokenKey)

	token, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "plain-token", token)
}

func TestTokenStore_Get_Empty(t *testing.T) {
	store := auth.NewTokenStore(storage.NewMemStore(), tokenKey)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestTokenStore_Get_PrefixOnlyValueIsCleared(t *testing.T) {
	kv := storage.NewMemStore()
	kv.Set(tokenKey, "Bearer ")
	store := auth.NewTokenStore(kv, tokenKey)

	_, ok := store.Get()
	assert.False(t, ok)
	_, ok = kv.Get(tokenKey)
	assert.False(t, ok)
}

func TestTokenStore_Set_NormalizesBeforeStoring(t *testing.T) {
	kv := storage.NewMemStore()
	store := auth.NewTokenStore(kv, tokenKey)

	store.Set("Bearer tok-123")
	raw, ok := kv.Get(tokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok-123", raw)
}

func TestTokenStore_Clear(t *testing.T) {
	kv := storage.NewMemStore()
	store := auth.NewTokenStore(kv, tokenKey)

	store.Set("tok")
	store.Clear()
	_, ok := store.Get()
	assert.False(t, ok)
}
