package stream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_EvictsOldestPastCapacity(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Add("s1", Event{Type: EventMessage, Data: fmt.Sprintf("m%d", i)})
	}
	require.Equal(t, 3, b.Len())
	entries := b.Recent(3)
	require.Equal(t, "m2", entries[0].Event.Data)
	require.Equal(t, "m4", entries[2].Event.Data)
}

func TestBuffer_RecentReturnsOldestFirst(t *testing.T) {
	b := NewBuffer(10)
	b.Add("s1", Event{Type: EventMessage, Data: "a"})
	b.Add("s1", Event{Type: EventMessage, Data: "b"})
	entries := b.Recent(2)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Event.Data)
	require.Equal(t, "b", entries[1].Event.Data)
}

func TestBuffer_RecentBounds(t *testing.T) {
	b := NewBuffer(10)
	require.Nil(t, b.Recent(5))
	b.Add("s1", Event{Type: EventPing})
	require.Len(t, b.Recent(100), 1)
	require.Nil(t, b.Recent(0))
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(10)
	b.Add("s1", Event{Type: EventPing})
	b.Clear()
	require.Equal(t, 0, b.Len())
}
