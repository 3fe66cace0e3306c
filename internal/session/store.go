// ABOUTME: TokenStore interface and in-memory implementation
// ABOUTME: Persists the admin bearer token as a single named slot

package session

import (
	"context"
	"sync"
)

// TokenStore persists the admin bearer token across process restarts.
// An empty string means "logged out". Implementations perform no network
// I/O; invalidation of derived state (the CSRF cache) is owned by Session.
type TokenStore interface {
	// Get returns the stored token, or an empty string if none is stored.
	Get(ctx context.Context) (string, error)

	// Set persists the token. An empty string clears the slot.
	Set(ctx context.Context, token string) error
}

// MemoryStore is a TokenStore that lives only in process memory.
// Used in tests and for ephemeral sessions driven by an env var.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates a memory-backed token store seeded with token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Get returns the stored token.
func (m *MemoryStore) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Set replaces the stored token.
func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}
