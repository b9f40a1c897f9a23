package bridge

import (
	"context"
	"time"

	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

// DeliveryContext provides information about a command delivery to hooks.
type DeliveryContext struct {
	// CommandType is the envelope discriminator, empty for raw sends.
	CommandType string
	// CallbackID is set for callback-directed deliveries.
	CallbackID string
	// Envelope is the serialised command being delivered.
	Envelope []byte
	// Transport is the name of the configured delivery backend.
	Transport string
	// Path is "direct" when the handle was ready at send time and "flush"
	// when the command was drained from the pending queue.
	Path string
	// Context is the context associated with the delivery.
	Context context.Context
	// StartedAt is when the delivery started.
	StartedAt time.Time
	// Duration is how long the delivery took (only set in OnDeliver and OnError).
	Duration time.Duration
}

// DeliveryHooks defines callbacks for command lifecycle events.
// All hooks are optional - nil hooks are simply not called.
type DeliveryHooks struct {
	// OnEnqueue is called when a command is buffered because the host
	// runtime is not ready yet.
	OnEnqueue func(ctx DeliveryContext)

	// OnDeliver is called after a command reaches the transport.
	// Duration will be set to how long the delivery took.
	OnDeliver func(ctx DeliveryContext)

	// OnError is called when the transport rejects a command.
	// Duration will be set to how long the delivery took before failing.
	OnError func(ctx DeliveryContext, err error)

	// OnGiveUp is called when the flusher exhausts its poll budget with
	// commands still queued. pending is the queue depth at that moment.
	OnGiveUp func(pending, attempts int)
}

// Merge combines two DeliveryHooks, creating a new DeliveryHooks that calls
// both. The hooks from 'other' are called after the hooks from 'h'.
func (h DeliveryHooks) Merge(other DeliveryHooks) DeliveryHooks {
	return DeliveryHooks{
		OnEnqueue: chainDeliveryHooks(h.OnEnqueue, other.OnEnqueue),
		OnDeliver: chainDeliveryHooks(h.OnDeliver, other.OnDeliver),
		OnError:   chainErrorHooks(h.OnError, other.OnError),
		OnGiveUp:  chainGiveUpHooks(h.OnGiveUp, other.OnGiveUp),
	}
}

func chainDeliveryHooks(a, b func(DeliveryContext)) func(DeliveryContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DeliveryContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(DeliveryContext, error)) func(DeliveryContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DeliveryContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

func chainGiveUpHooks(a, b func(int, int)) func(int, int) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(pending, attempts int) {
		a(pending, attempts)
		b(pending, attempts)
	}
}

// LoggingHooks returns pre-built hooks that log command lifecycle events.
// Any logger with the ServiceLogger Info/Error shape fits.
func LoggingHooks(logger interface {
	Info(msg string, fields loggingpkg.LogFields)
	Error(msg string, err error, fields loggingpkg.LogFields)
}) DeliveryHooks {
	return DeliveryHooks{
		OnEnqueue: func(ctx DeliveryContext) {
			logger.Info("Command queued", loggingpkg.LogFields{
				"command_type": ctx.CommandType,
				"callback_id":  ctx.CallbackID,
				"transport":    ctx.Transport,
			})
		},
		OnDeliver: func(ctx DeliveryContext) {
			logger.Info("Command delivered", loggingpkg.LogFields{
				"command_type": ctx.CommandType,
				"callback_id":  ctx.CallbackID,
				"transport":    ctx.Transport,
				"path":         ctx.Path,
				"duration_ms":  ctx.Duration.Milliseconds(),
			})
		},
		OnError: func(ctx DeliveryContext, err error) {
			logger.Error("Command delivery failed", err, loggingpkg.LogFields{
				"command_type": ctx.CommandType,
				"callback_id":  ctx.CallbackID,
				"transport":    ctx.Transport,
				"path":         ctx.Path,
				"duration_ms":  ctx.Duration.Milliseconds(),
			})
		},
		OnGiveUp: func(pending, attempts int) {
			logger.Error("Gave up waiting for host runtime", nil, loggingpkg.LogFields{
				"pending":  pending,
				"attempts": attempts,
			})
		},
	}
}

// MetricsHooks returns pre-built hooks that record delivery metrics.
func MetricsHooks(onDeliver, onError func(commandType, path string)) DeliveryHooks {
	return DeliveryHooks{
		OnDeliver: func(ctx DeliveryContext) {
			if onDeliver != nil {
				onDeliver(ctx.CommandType, ctx.Path)
			}
		},
		OnError: func(ctx DeliveryContext, err error) {
			if onError != nil {
				onError(ctx.CommandType, ctx.Path)
			}
		},
	}
}

// AlertingHooks returns pre-built hooks that trigger alerts when the flusher
// gives up on the host runtime.
func AlertingHooks(alertFunc func(pending, attempts int)) DeliveryHooks {
	return DeliveryHooks{
		OnGiveUp: alertFunc,
	}
}
