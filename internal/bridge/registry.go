package bridge

import (
	"sync"

	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

// CallbackHandler consumes a reverse-direction payload. Handlers run on the
// dispatching goroutine and are expected not to block.
type CallbackHandler func(payload string)

// CallbackRegistry maps caller-chosen identifiers to response handlers. At
// most one handler exists per identifier; registering again replaces it, and
// invoking an unregistered identifier is a logged no-op rather than an error.
type CallbackRegistry struct {
	mu       sync.Mutex
	handlers map[string]CallbackHandler
	logger   loggingpkg.ServiceLogger
}

// NewCallbackRegistry creates an empty registry.
func NewCallbackRegistry(logger loggingpkg.ServiceLogger) *CallbackRegistry {
	if logger == nil {
		logger = loggingpkg.Nop()
	}
	return &CallbackRegistry{
		handlers: make(map[string]CallbackHandler),
		logger:   logger,
	}
}

// Register stores or replaces the handler for id.
func (r *CallbackRegistry) Register(id string, handler CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = handler
}

// Unregister removes the handler for id if present.
func (r *CallbackRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

// Invoke looks up and calls the handler for id synchronously on the calling
// goroutine. The handler runs outside the registry lock so it can register,
// unregister, or send commands without deadlocking. Returns whether a handler
// was found.
func (r *CallbackRegistry) Invoke(id, payload string) bool {
	r.mu.Lock()
	handler, ok := r.handlers[id]
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("No callback registered for identifier", loggingpkg.LogFields{
			"callback_id": id,
		})
		return false
	}

	handler(payload)
	return true
}

// Len returns the number of registered handlers.
func (r *CallbackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// IDs returns the currently registered identifiers.
func (r *CallbackRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	return ids
}
