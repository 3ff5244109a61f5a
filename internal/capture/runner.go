package capture

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Runner queues shots and feeds them to a Sink from a single goroutine.
type Runner struct {
	sink    Sink
	queue   chan Shot
	seq     atomic.Uint64
	dropped atomic.Uint64
	done    chan struct{}
}

// NewRunner creates a runner with room for depth pending shots.
func NewRunner(sink Sink, depth int) *Runner {
	if depth <= 0 {
		depth = 8
	}
	return &Runner{
		sink:  sink,
		queue: make(chan Shot, depth),
		done:  make(chan struct{}),
	}
}

// Submit queues a shot and returns immediately. When the queue is full the
// shot is dropped and false is returned.
func (r *Runner) Submit(mode string) bool {
	shot := Shot{Seq: r.seq.Add(1), At: time.Now(), Mode: mode}
	select {
	case r.queue <- shot:
		return true
	default:
		r.dropped.Add(1)
		slog.Warn("[CAPTURE] queue full, shot dropped", "seq", shot.Seq)
		return false
	}
}

// Dropped returns how many shots were discarded.
func (r *Runner) Dropped() uint64 {
	return r.dropped.Load()
}

// Run processes shots until ctx is cancelled, then closes the sink.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer func() {
		if err := r.sink.Close(); err != nil {
			slog.Warn("[CAPTURE] close sink", "error", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case shot := <-r.queue:
			start := time.Now()
			if err := r.sink.Capture(ctx, shot); err != nil {
				slog.Error("[CAPTURE] failed", "seq", shot.Seq, "error", err)
				continue
			}
			slog.Debug("[CAPTURE] done", "seq", shot.Seq, "took", time.Since(start), "queued", start.Sub(shot.At))
		}
	}
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
