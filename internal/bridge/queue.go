package bridge

import (
	"context"
	"sync"
)

// Delivery is the future returned by the send path. It resolves exactly once:
// on successful delivery, on a delivery error, or with ErrFlushGaveUp when
// the flusher exhausts its poll budget while the command is still queued.
type Delivery struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newDelivery() *Delivery {
	return &Delivery{done: make(chan struct{})}
}

func (d *Delivery) resolve(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Done returns a channel closed when the delivery has resolved.
func (d *Delivery) Done() <-chan struct{} { return d.done }

// Err returns the delivery outcome. Only valid after Done is closed.
func (d *Delivery) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until the delivery resolves or the context is cancelled.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingCommand is an immutable queued envelope plus the future its caller
// is holding.
type PendingCommand struct {
	// CommandType is the envelope discriminator, empty for raw sends.
	CommandType string
	// CallbackID routes callback-directed envelopes, empty otherwise.
	CallbackID string
	Envelope   []byte
	delivery   *Delivery
	// direct marks commands submitted while the handle was already ready.
	direct bool
}

// PendingQueue is an ordered, thread-safe buffer of not-yet-delivered
// commands. Enqueue order is delivery order; DrainAll hands the whole batch
// to exactly one caller.
type PendingQueue struct {
	mu    sync.Mutex
	items []PendingCommand
}

// NewPendingQueue creates an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Enqueue appends a command to the tail.
func (q *PendingQueue) Enqueue(cmd PendingCommand) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, cmd)
}

// DrainAll atomically empties the queue and returns its prior contents in
// enqueue order. An empty queue yields an empty slice, not an error.
func (q *PendingQueue) DrainAll() []PendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued commands.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ResolveAll resolves the futures of every queued command with err while
// leaving the envelopes in place. Used on give-up so callers stop waiting but
// a later explicit flush can still deliver the payloads.
func (q *PendingQueue) ResolveAll(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cmd := range q.items {
		cmd.delivery.resolve(err)
	}
}
