package state

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
)

// DefaultTTL is used when NewMemoryManager receives a non-positive ttl.
const DefaultTTL = 30 * time.Minute

// MemoryManager is an in-memory Manager whose sessions expire after a period of inactivity.
type MemoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

var _ Manager = (*MemoryManager)(nil)

// NewMemoryManager constructs an in-memory session store with the given idle ttl.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryManager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *MemoryManager) WithClock(now func() time.Time) *MemoryManager {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

// TTL returns the idle expiry.
func (m *MemoryManager) TTL() time.Duration { return m.ttl }

// live returns the session if present and not expired. Caller holds mu.
func (m *MemoryManager) live(userID int64) (*Session, bool) {
	sess, ok := m.sessions[userID]
	if !ok || m.expired(sess) {
		return nil, false
	}
	return sess, true
}

func (m *MemoryManager) expired(sess *Session) bool {
	return m.now().Sub(sess.UpdatedAt) > m.ttl
}

// ensure returns a live session, replacing an expired one. Caller holds the write lock.
func (m *MemoryManager) ensure(userID int64) *Session {
	if sess, ok := m.live(userID); ok {
		sess.UpdatedAt = m.now()
		return sess
	}
	sess := &Session{State: StateIdle, TempData: make(map[string]any), UpdatedAt: m.now()}
	m.sessions[userID] = sess
	return sess
}

// Get returns a copy of the user's session, or a fresh idle one.
func (m *MemoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.live(userID); ok {
		return Session{State: sess.State, TempData: maps.Clone(sess.TempData), UpdatedAt: sess.UpdatedAt}
	}
	return Session{State: StateIdle, TempData: make(map[string]any)}
}

// SetTemp stores a temporary key/value pair for the given user session.
func (m *MemoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).TempData[key] = value
}

// GetTemp retrieves a temporary value by key for the given user session.
func (m *MemoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.live(userID)
	if !ok {
		return nil, false
	}
	val, ok := sess.TempData[key]
	return val, ok
}

// GetTempString retrieves a temporary value by key and asserts it as string.
func (m *MemoryManager) GetTempString(userID int64, key string) (string, bool) {
	val, found := m.GetTemp(userID, key)
	if !found {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// ClearTemp removes a temporary key/value pair for the given user session.
func (m *MemoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.live(userID); ok {
		delete(sess.TempData, key)
	}
}

// Clear removes the entire session for a user.
func (m *MemoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// SetState sets the FSM state for the given user.
func (m *MemoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *MemoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.live(userID); ok {
		return sess.State
	}
	return StateIdle
}

// Reset moves the user back to idle and drops temp data.
func (m *MemoryManager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.ensure(userID)
	sess.State = StateIdle
	clear(sess.TempData)
}

// InProgress reports whether the user currently has an active FSM state.
func (m *MemoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.live(userID)
	return ok && sess.State != StateIdle
}

// Len returns the number of live sessions.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sess := range m.sessions {
		if !m.expired(sess) {
			n++
		}
	}
	return n
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if m.expired(sess) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (m *MemoryManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 2
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Debug(ctx, "tg", "fsm.sweep",
						slog.String("status", "ok"),
						slog.Int("removed", n),
						slog.Int("sessions", m.Len()),
					)
				}
			}
		}
	}()
}
