// ABOUTME: Tests for the background expiry monitor
// ABOUTME: Covers expiry-triggered teardown, the empty-slot skip, and idempotent Stop

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_TearsDownExpiredSession(t *testing.T) {
	store := NewMemoryStore(mintToken(t, time.Now().Add(-time.Minute)))

	prompted := make(chan string, 1)
	s := New("http://localhost:0", store, WithHooks(Hooks{
		OnAuthRequired: func(reason string) {
			select {
			case prompted <- reason:
			default:
			}
		},
	}))

	m := s.StartMonitor(10 * time.Millisecond)
	defer m.Stop()

	select {
	case reason := <-prompted:
		assert.Equal(t, "session expired", reason)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never raised the sign-in prompt")
	}

	token, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMonitor_LeavesEmptySlotAlone(t *testing.T) {
	store := NewMemoryStore("")

	prompted := make(chan struct{}, 1)
	s := New("http://localhost:0", store, WithHooks(Hooks{
		OnAuthRequired: func(string) {
			select {
			case prompted <- struct{}{}:
			default:
			}
		},
	}))

	m := s.StartMonitor(10 * time.Millisecond)
	defer m.Stop()

	select {
	case <-prompted:
		t.Fatal("monitor prompted on an already-empty slot")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitor_LeavesValidTokenAlone(t *testing.T) {
	token := mintToken(t, time.Now().Add(time.Hour))
	store := NewMemoryStore(token)
	s := New("http://localhost:0", store)

	m := s.StartMonitor(10 * time.Millisecond)
	defer m.Stop()

	time.Sleep(100 * time.Millisecond)

	stored, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	s := New("http://localhost:0", NewMemoryStore(""))
	m := s.StartMonitor(time.Hour)

	m.Stop()
	m.Stop() // must not panic on double close
}
