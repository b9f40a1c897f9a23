package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

// DeliverFunc hands a single command to the transport.
type DeliverFunc func(ctx context.Context, d DeliveryContext) error

// DeliveryMiddleware wraps a DeliverFunc with cross-cutting behaviour.
type DeliveryMiddleware func(DeliverFunc) DeliverFunc

// MiddlewareBuilder constructs a delivery middleware using the owning bridge.
type MiddlewareBuilder func(*Bridge) (DeliveryMiddleware, error)

// MiddlewareRegistration captures how a middleware should be registered on a
// bridge delivery chain.
type MiddlewareRegistration struct {
	Name       string
	Middleware DeliveryMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the standard middleware chain used by the Bridge
// constructor. The first registration wraps outermost.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		RecovererMiddleware(),
		LogDeliveriesMiddleware(nil),
		TracerMiddleware(),
		HooksMiddleware(),
	}
}

// RecovererMiddleware converts transport panics into delivery errors so a
// misbehaving evaluator cannot unwind through the flusher.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "recoverer",
		Middleware: func(next DeliverFunc) DeliverFunc {
			return func(ctx context.Context, d DeliveryContext) (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("jsbridge: transport panicked: %v", r)
					}
				}()
				return next(ctx, d)
			}
		},
	}
}

// LogDeliveriesMiddleware logs every command handed to the transport. When
// logger is nil the bridge's own logger is used.
func LogDeliveriesMiddleware(logger loggingpkg.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_deliveries",
		Builder: func(b *Bridge) (DeliveryMiddleware, error) {
			l := logger
			if l == nil {
				l = b.Logger
			}
			if l == nil {
				return nil, errors.New("log deliveries middleware requires a logger")
			}
			return func(next DeliverFunc) DeliverFunc {
				return func(ctx context.Context, d DeliveryContext) error {
					l.Debug("Delivering command", loggingpkg.LogFields{
						"command_type": d.CommandType,
						"callback_id":  d.CallbackID,
						"transport":    d.Transport,
						"path":         d.Path,
						"payload":      string(d.Envelope),
					})
					return next(ctx, d)
				}
			}, nil
		},
	}
}

// TracerMiddleware wraps each delivery in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Middleware: func(next DeliverFunc) DeliverFunc {
			return func(ctx context.Context, d DeliveryContext) error {
				tracer := otel.Tracer("jsbridge-delivery-tracer")
				spanCtx, span := tracer.Start(ctx, "DeliverCommand")
				defer span.End()

				span.SetAttributes(
					attribute.String("command.type", d.CommandType),
					attribute.String("command.transport", d.Transport),
					attribute.String("command.path", d.Path),
				)
				return next(spanCtx, d)
			}
		},
	}
}

// HooksMiddleware fires the bridge's delivery hooks around each delivery.
func HooksMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "hooks",
		Builder: func(b *Bridge) (DeliveryMiddleware, error) {
			return func(next DeliverFunc) DeliverFunc {
				return func(ctx context.Context, d DeliveryContext) error {
					d.StartedAt = time.Now()
					d.Context = ctx

					err := next(ctx, d)
					d.Duration = time.Since(d.StartedAt)

					if err != nil {
						if b.hooks.OnError != nil {
							b.hooks.OnError(d, err)
						}
					} else {
						if b.hooks.OnDeliver != nil {
							b.hooks.OnDeliver(d)
						}
					}
					return err
				}
			}, nil
		},
	}
}

// buildDeliverFunc resolves the registrations against the bridge and wraps
// base so that the first registration runs outermost.
func buildDeliverFunc(b *Bridge, base DeliverFunc, registrations []MiddlewareRegistration) (DeliverFunc, error) {
	resolved := make([]DeliveryMiddleware, 0, len(registrations))
	for _, reg := range registrations {
		var mw DeliveryMiddleware
		switch {
		case reg.Middleware != nil:
			mw = reg.Middleware
		case reg.Builder != nil:
			var err error
			mw, err = reg.Builder(b)
			if err != nil {
				return nil, fmt.Errorf("jsbridge: middleware %q: %w", reg.Name, err)
			}
		default:
			return nil, fmt.Errorf("jsbridge: middleware %q requires Middleware or Builder", reg.Name)
		}
		if mw != nil {
			resolved = append(resolved, mw)
		}
	}

	deliver := base
	for i := len(resolved) - 1; i >= 0; i-- {
		deliver = resolved[i](deliver)
	}
	return deliver, nil
}
