package bridge

import (
	"context"
	"sync"
	"time"

	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

// Flusher waits in the background for the transport handle to become ready
// and then triggers a drain of the pending queue. Each Flusher runs its
// polling goroutine at most once; later Start calls are no-ops, so racing
// senders cannot spawn duplicate pollers.
type Flusher struct {
	interval    time.Duration
	maxAttempts int

	cell   *HandleCell
	logger loggingpkg.ServiceLogger

	onReady  func(ctx context.Context, attempts int)
	onGiveUp func(attempts int)

	once sync.Once
	done chan struct{}
}

// NewFlusher wires a flusher against the handle cell. onReady is called once
// the handle is available, onGiveUp when maxAttempts checks pass without it.
func NewFlusher(
	cell *HandleCell,
	interval time.Duration,
	maxAttempts int,
	logger loggingpkg.ServiceLogger,
	onReady func(ctx context.Context, attempts int),
	onGiveUp func(attempts int),
) *Flusher {
	if logger == nil {
		logger = loggingpkg.Nop()
	}
	return &Flusher{
		interval:    interval,
		maxAttempts: maxAttempts,
		cell:        cell,
		logger:      logger,
		onReady:     onReady,
		onGiveUp:    onGiveUp,
		done:        make(chan struct{}),
	}
}

// Start launches the polling goroutine if it has not run yet and reports
// whether this call started it. The goroutine stops when the handle becomes
// ready, the poll budget is exhausted, or ctx is cancelled.
func (f *Flusher) Start(ctx context.Context) bool {
	started := false
	f.once.Do(func() {
		started = true
		go f.run(ctx)
	})
	return started
}

// Done returns a channel closed when the polling goroutine has exited.
func (f *Flusher) Done() <-chan struct{} {
	return f.done
}

func (f *Flusher) run(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.cell.Ready() {
			f.logger.Debug("Transport handle ready, flushing pending commands", loggingpkg.LogFields{
				"attempts": attempt,
			})
			f.onReady(ctx, attempt)
			return
		}

		select {
		case <-ctx.Done():
			f.logger.Debug("Flusher stopped", loggingpkg.LogFields{
				"attempts": attempt,
			})
			return
		case <-f.cell.Done():
			// Woken early by Set, deliver without waiting for the next tick.
			f.onReady(ctx, attempt)
			return
		case <-ticker.C:
		}
	}

	f.logger.Error("Transport handle never became ready", nil, loggingpkg.LogFields{
		"attempts": f.maxAttempts,
		"interval": f.interval.String(),
	})
	f.onGiveUp(f.maxAttempts)
}
