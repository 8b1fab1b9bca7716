package stream

import (
	"sync"
	"time"
)

// BufferEntry is one replayable event with its arrival timestamp.
type BufferEntry struct {
	Event     Event     `json:"event"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is a bounded FIFO of recent events shared across sessions. Past
// capacity the oldest entries are evicted. Safe for concurrent use; the
// lock is held only around structural mutation.
type Buffer struct {
	mu      sync.Mutex
	entries []BufferEntry
	cap     int
}

const DefaultBufferSize = 1000

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{cap: capacity}
}

func (b *Buffer) Add(sessionID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, BufferEntry{
		Event:     ev,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// Recent returns the n newest entries, oldest first.
func (b *Buffer) Recent(n int) []BufferEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || len(b.entries) == 0 {
		return nil
	}
	if n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]BufferEntry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
