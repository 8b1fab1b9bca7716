package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_ReconnectPolicy(t *testing.T) {
	m := NewManager(10, 0)
	m.Create("s1")

	// Six calls: true five times, then false.
	var answers []bool
	var delays []time.Duration
	for i := 0; i < 6; i++ {
		ok := m.ShouldReconnect("s1")
		answers = append(answers, ok)
		if ok {
			delays = append(delays, m.BackoffDelay("s1"))
		}
	}
	require.Equal(t, []bool{true, true, true, true, true, false}, answers)
	require.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		16 * time.Second,
	}, delays)
}

func TestManager_ConfiguredReconnectBudget(t *testing.T) {
	m := NewManager(10, 2)
	m.Create("s1")
	require.True(t, m.ShouldReconnect("s1"))
	require.True(t, m.ShouldReconnect("s1"))
	require.False(t, m.ShouldReconnect("s1"))
}

func TestManager_ShouldReconnectUnknownSession(t *testing.T) {
	m := NewManager(10, 0)
	require.False(t, m.ShouldReconnect("missing"))
}

func TestManager_CreateResetsState(t *testing.T) {
	m := NewManager(10, 0)
	m.Create("s1")
	m.Emit(context.Background(), "s1", "hello")
	require.True(t, m.ShouldReconnect("s1"))

	// A fresh create must not merge counters from the stale entry.
	m.Create("s1")
	s, ok := m.Get("s1")
	require.True(t, ok)
	require.Equal(t, 0, s.ChunksSent)
	require.Equal(t, 0, s.ReconnectAttempts)
}

func TestManager_EmitCountsChunks(t *testing.T) {
	m := NewManager(10, 0)
	m.Create("s1")
	for i := 0; i < 3; i++ {
		ev, ok := m.Emit(context.Background(), "s1", "token")
		require.True(t, ok)
		require.Equal(t, EventMessage, ev.Type)
	}
	s, _ := m.Get("s1")
	require.Equal(t, 3, s.ChunksSent)
	require.Equal(t, 3, m.Buffer().Len())
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	m := NewManager(10, 0)
	m.Create("s1")
	m.Close("s1")
	m.Close("s1")
	m.Close("never-existed")

	// Operations on a closed session are no-ops, not errors.
	_, ok := m.Emit(context.Background(), "s1", "late token")
	require.False(t, ok)
	_, ok = m.Get("s1")
	require.False(t, ok)
	require.False(t, m.ShouldReconnect("s1"))
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(10, 0)
	m.Create("old")
	m.Create("fresh")
	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now()
	m.Touch("fresh")

	swept := m.Sweep(context.Background(), cutoff)
	require.Equal(t, 1, swept)
	_, ok := m.Get("old")
	require.False(t, ok)
	_, ok = m.Get("fresh")
	require.True(t, ok)
}
