package stream

import (
	"context"
	"sync"
	"time"
)

// DefaultHeartbeatInterval paces ping events on a live stream.
const DefaultHeartbeatInterval = 15 * time.Second

// Heartbeat produces ping events every interval until ctx is cancelled.
// It runs independently of content production.
func Heartbeat(ctx context.Context, interval time.Duration) <-chan Event {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				ev := Event{Type: EventPing, Data: map[string]interface{}{
					"timestamp": t.UTC().Format(time.RFC3339),
				}}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Merge fans in several event channels into one ordered output for a
// single consumer. Per-channel order is preserved; interleaving across
// channels is whatever the scheduler produces. The merged channel closes
// only once every input has closed.
func Merge(chans ...<-chan Event) <-chan Event {
	out := make(chan Event)
	var wg sync.WaitGroup
	wg.Add(len(chans))
	for _, ch := range chans {
		go func(ch <-chan Event) {
			defer wg.Done()
			for ev := range ch {
				out <- ev
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
