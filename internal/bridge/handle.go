package bridge

import (
	"sync"

	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// HandleCell holds the single transport handle once the platform makes it
// available. The cell transitions from not-ready to ready exactly once; every
// later Set is an idempotent no-op. Get never blocks, and callers treat the
// returned transport as a short-lived borrow scoped to one delivery.
type HandleCell struct {
	mu    sync.RWMutex
	t     transport.Transport
	ready chan struct{}
}

// NewHandleCell creates an empty cell.
func NewHandleCell() *HandleCell {
	return &HandleCell{ready: make(chan struct{})}
}

// Set stores the transport on first call and reports whether this call won.
// A nil transport never sets the cell.
func (c *HandleCell) Set(t transport.Transport) bool {
	if t == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.t != nil {
		return false
	}
	c.t = t
	close(c.ready)
	return true
}

// Get returns the transport and whether it has been set. Never blocks.
func (c *HandleCell) Get() (transport.Transport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t, c.t != nil
}

// Ready reports whether the transport has been set.
func (c *HandleCell) Ready() bool {
	_, ok := c.Get()
	return ok
}

// Done returns a channel that is closed once the transport is set. Observers
// that prefer blocking over polling can select on it.
func (c *HandleCell) Done() <-chan struct{} {
	return c.ready
}
