package job

import (
	"context"
	"time"

	"github.com/ragline/ragline/internal/stream"
)

// StreamSweepJob closes streaming sessions idle past their TTL so the
// registry and replay buffer do not grow without bound.
type StreamSweepJob struct {
	streams *stream.Manager
	ttl     time.Duration
}

func NewStreamSweepJob(streams *stream.Manager, ttl time.Duration) *StreamSweepJob {
	return &StreamSweepJob{streams: streams, ttl: ttl}
}

func (j *StreamSweepJob) Name() string {
	return "stream_sweep"
}

func (j *StreamSweepJob) Run(ctx context.Context) error {
	if j.streams == nil {
		return nil
	}
	ttl := j.ttl
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	j.streams.Sweep(ctx, time.Now().Add(-ttl))
	return nil
}
