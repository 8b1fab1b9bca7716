package stream

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	// DefaultMaxReconnectAttempts bounds client reconnection bookkeeping.
	DefaultMaxReconnectAttempts = 5
	// maxBackoff caps the exponential reconnect delay.
	maxBackoff = 16 * time.Second
)

// Session is the registry record for one live streaming delivery. Only the
// serving goroutine mutates its counters; the registry serializes
// creation, lookup and deletion.
type Session struct {
	ID                string
	CreatedAt         time.Time
	LastActivity      time.Time
	ChunksSent        int
	ReconnectAttempts int
}

// Manager is the process-wide session registry plus the shared replay
// buffer. Construct one per process (or per test).
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	buffer      *Buffer
	maxAttempts int
}

func NewManager(bufferSize int, maxAttempts int) *Manager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxReconnectAttempts
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		buffer:      NewBuffer(bufferSize),
		maxAttempts: maxAttempts,
	}
}

// Create registers a session with zero counters. Re-creating an existing id
// resets its state; counters from a stale entry are never merged.
func (m *Manager) Create(id string) *Session {
	now := time.Now()
	s := &Session{ID: id, CreatedAt: now, LastActivity: now}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Emit stamps content into the replay buffer, bumps the session counters
// and returns the wrapped event. Emitting on a closed or unknown session is
// a no-op returning false; producers may still have sends in flight after
// Close.
func (m *Manager) Emit(ctx context.Context, id string, content string) (Event, bool) {
	ev := Event{Type: EventMessage, Data: map[string]interface{}{
		"content":   content,
		"stream_id": id,
	}}
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		logutil.GetLogger(ctx).Debug("emit on closed session", zap.String("session_id", id))
		return Event{}, false
	}
	s.LastActivity = time.Now()
	s.ChunksSent++
	m.mu.Unlock()

	m.buffer.Add(id, ev)
	return ev, true
}

// Touch updates last-activity without counting a chunk.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.LastActivity = time.Now()
	}
	m.mu.Unlock()
}

// Get returns a snapshot of the session record.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Close removes the session from the registry. Idempotent: closing an
// unknown id is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// ShouldReconnect reports whether another reconnection attempt is allowed,
// incrementing the attempt counter as a side effect of a true answer.
func (m *Manager) ShouldReconnect(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	if s.ReconnectAttempts < m.maxAttempts {
		s.ReconnectAttempts++
		return true
	}
	return false
}

// BackoffDelay returns min(2^attempts, 16) seconds for the session's
// current attempt count.
func (m *Manager) BackoffDelay(id string) time.Duration {
	m.mu.Lock()
	attempts := 0
	if s, ok := m.sessions[id]; ok {
		attempts = s.ReconnectAttempts
	}
	m.mu.Unlock()

	delay := time.Second
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Buffer exposes the shared replay buffer.
func (m *Manager) Buffer() *Buffer {
	return m.buffer
}

// ActiveCount returns the number of registered sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes every session idle since before cutoff and returns how many
// were removed. Used by the background sweep job.
func (m *Manager) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if len(stale) > 0 {
		logutil.GetLogger(ctx).Info("swept idle stream sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}
