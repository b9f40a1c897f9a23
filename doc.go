// Package jsbridge is a command bridge between native Go code and a JavaScript
// host runtime (typically a WebView). It solves the startup race where native
// code is ready to send commands before the host runtime exists: sends made
// early are buffered in an ordered pending queue and replayed automatically
// once the platform attaches a transport handle, with a bounded background
// flusher that gives up after a configurable poll budget.
//
// The forward direction wraps each command in a self-describing JSON envelope
// and a dispatch-or-queue script, so the host either handles the command
// immediately or parks it in a host-local array until its dispatch function is
// installed. The reverse direction routes host-originated payloads through a
// callback registry keyed by caller-chosen identifiers, with a tolerant decode
// that accepts both native JSON objects and double-encoded strings.
//
// # Transports
//
// The bridge supports 5 delivery transports out of the box:
//   - webview: An embedder-supplied script evaluator
//   - channel: In-memory Go channels for testing
//   - nats: NATS Core publishing for out-of-process hosts
//   - http: Request/response delivery to an HTTP endpoint
//   - io: File-based envelope persistence
//
// Import individual transports via: _ "github.com/bananabit-dev/dx-use-js-bridge/transport/channel"
// or pull in the whole bundle with the transport/transports package.
//
// # Middleware
//
// The default delivery chain includes panic recovery, structured logging,
// OpenTelemetry tracing, and delivery lifecycle hooks. Custom middleware can
// be added via BridgeDependencies.Middlewares.
//
// # Hooks
//
// DeliveryHooks provides OnEnqueue, OnDeliver, OnError, and OnGiveUp callbacks
// for custom logging, metrics collection, and alerting around command
// delivery. LoggingHooks, MetricsHooks, and AlertingHooks are pre-built sets.
//
// A minimal setup involves filling Config, creating a Bridge, registering
// callbacks, and calling Send; the platform attaches its evaluator with
// SetTransport whenever it comes up. See README.md for a quick start snippet.
package jsbridge
