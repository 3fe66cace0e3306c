// ABOUTME: Background monitor re-checking token expiry on a fixed interval
// ABOUTME: Catches sessions that expire while the console is idle

package session

import (
	"context"
	"sync"
	"time"
)

// DefaultMonitorInterval is how often the monitor re-checks the token.
const DefaultMonitorInterval = 30 * time.Second

// Monitor periodically re-runs the same local expiry check used before
// every request, so an idle session is torn down promptly instead of on
// the next API call.
type Monitor struct {
	session *Session

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// StartMonitor starts a background expiry monitor for the session. A
// non-positive interval uses DefaultMonitorInterval. Callers must Stop the
// monitor on shutdown to avoid leaking the goroutine.
func (s *Session) StartMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	m := &Monitor{
		session: s,
		done:    make(chan struct{}),
	}
	go m.run(interval)
	return m
}

func (m *Monitor) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.done:
			return
		}
	}
}

// check tears the session down if the stored token has expired. An empty
// slot is left alone: there is nothing to tear down and no prompt to raise.
func (m *Monitor) check() {
	s := m.session
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("monitor: reading stored token", "error", err)
		return
	}
	if token == "" {
		return
	}
	if IsExpired(token, s.now()) {
		s.ForceLogout(ctx, "session expired")
	}
}

// Stop halts the monitor. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		close(m.done)
		m.closed = true
	}
}
