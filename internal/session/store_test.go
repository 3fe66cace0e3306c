// ABOUTME: Tests for the token store implementations
// ABOUTME: Covers the SQLite slot roundtrip, clearing, and reopen persistence

package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Empty slot means logged out
	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Set(ctx, "token-a"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)

	// Overwrite replaces the slot
	require.NoError(t, store.Set(ctx, "token-b"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-b", token)
}

func TestSQLiteStore_ClearSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "token-a"))
	require.NoError(t, store.Set(ctx, ""))

	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "token-a"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	token, err := reopened.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)
}

func TestSQLiteStore_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "credentials.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("seed")

	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", token)

	require.NoError(t, store.Set(ctx, ""))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
