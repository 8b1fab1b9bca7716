package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMerge_ContentWithHeartbeat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 5
	content := make(chan Event)
	go func() {
		defer close(content)
		for i := 0; i < n; i++ {
			time.Sleep(20 * time.Millisecond)
			content <- Event{Type: EventMessage, Data: "token"}
		}
		content <- Event{Type: EventDone}
	}()

	merged := Merge(content, Heartbeat(ctx, 10*time.Millisecond))

	// Consume like the serving loop: stop forwarding at the terminal
	// event, then cancel the heartbeat.
	var received []Event
	for ev := range merged {
		received = append(received, ev)
		if ev.IsTerminal() {
			cancel()
			break
		}
	}

	var messages, pings, terminals int
	for _, ev := range received {
		switch ev.Type {
		case EventMessage:
			messages++
		case EventPing:
			pings++
		case EventDone, EventError:
			terminals++
		}
	}
	require.Equal(t, n, messages)
	require.GreaterOrEqual(t, pings, 1)
	require.Equal(t, 1, terminals)
	require.True(t, received[len(received)-1].IsTerminal())
}

func TestMerge_DrainReleasesBlockedProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	content := make(chan Event)
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		defer close(content)
		for i := 0; i < 4; i++ {
			content <- Event{Type: EventMessage, Data: "token"}
		}
	}()

	merged := Merge(content, Heartbeat(ctx, time.Hour))

	// Consume like the serving loop when the client drops: read one
	// event, then stop forwarding, cancel the heartbeat and drain the
	// rest so the parked forwarders can exit.
	<-merged
	cancel()
	go func() {
		for range merged {
		}
	}()

	select {
	case <-producerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("content producer still blocked after drain")
	}
}

func TestMerge_PerChannelOrderPreserved(t *testing.T) {
	content := make(chan Event)
	go func() {
		defer close(content)
		for i := 0; i < 10; i++ {
			content <- Event{Type: EventMessage, Data: i}
		}
	}()

	merged := Merge(content)
	want := 0
	for ev := range merged {
		require.Equal(t, want, ev.Data)
		want++
	}
	require.Equal(t, 10, want)
}

func TestMerge_ClosesOnlyWhenAllProducersDone(t *testing.T) {
	a := make(chan Event)
	b := make(chan Event)
	merged := Merge(a, b)

	go func() {
		a <- Event{Type: EventMessage, Data: "a"}
		close(a)
		time.Sleep(30 * time.Millisecond)
		b <- Event{Type: EventMessage, Data: "b"}
		close(b)
	}()

	var got []Event
	for ev := range merged {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
}

func TestHeartbeat_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hb := Heartbeat(ctx, 5*time.Millisecond)

	ev, ok := <-hb
	require.True(t, ok)
	require.Equal(t, EventPing, ev.Type)

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-hb:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("heartbeat channel did not close after cancel")
		}
	}
}
