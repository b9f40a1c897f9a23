package bridge

import (
	"context"
	"sync"

	errspkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/errors"
	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/ids"
	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

const listenerBuffer = 16

// Event is a single host-originated message seen by a typed listener. Either
// Data holds a decoded payload or Err explains why decoding failed.
type Event[T any] struct {
	Data T
	Err  error
}

// Listener is a typed subscription to one callback identifier. Payloads
// dispatched to the identifier are decoded into T and surfaced on Events.
type Listener[T any] struct {
	id     string
	bridge *Bridge
	events chan Event[T]

	closeOnce sync.Once
	done      chan struct{}
}

// Listen registers a callback under a fresh identifier and returns a typed
// listener for it. Close the listener to unregister.
func Listen[T any](ctx context.Context, b *Bridge) (*Listener[T], error) {
	return ListenID[T](ctx, b, ids.NewCallbackID())
}

// ListenID is Listen with a caller-chosen identifier.
func ListenID[T any](ctx context.Context, b *Bridge, id string) (*Listener[T], error) {
	if b == nil {
		return nil, errspkg.ErrBridgeRequired
	}

	l := &Listener[T]{
		id:     id,
		bridge: b,
		events: make(chan Event[T], listenerBuffer),
		done:   make(chan struct{}),
	}

	if err := b.RegisterCallback(ctx, id, l.handle); err != nil {
		return nil, err
	}
	return l, nil
}

// ID returns the callback identifier this listener is registered under.
func (l *Listener[T]) ID() string { return l.id }

// Events returns the stream of decoded payloads. The channel is never closed;
// select on it together with your own cancellation signal.
func (l *Listener[T]) Events() <-chan Event[T] { return l.events }

// handle is the registered CallbackHandler. It decodes on the dispatching
// goroutine and never blocks it: when the buffer is full the event is dropped
// with a log line.
func (l *Listener[T]) handle(payload string) {
	value, err := Decode[T]([]byte(payload))

	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.events <- Event[T]{Data: value, Err: err}:
	default:
		l.bridge.Logger.Error("Listener buffer full, dropping event", nil, loggingpkg.LogFields{
			"callback_id": l.id,
		})
	}
}

// Close unregisters the callback. Events already buffered stay readable.
func (l *Listener[T]) Close(ctx context.Context) error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.bridge.UnregisterCallback(ctx, l.id)
	})
	return err
}
