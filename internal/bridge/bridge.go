package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	configpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/config"
	errspkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/errors"
	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
	transportpkg "github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// EntryObject is the name of the global object callback shims post through on
// the host side.
const EntryObject = "stageBridge"

// BridgeDependencies holds the optional collaborators a Bridge can use.
// Leave fields nil to accept the defaults.
type BridgeDependencies struct {
	Hooks                     DeliveryHooks
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips the default middleware chain when true.
	TransportBuilder          transportpkg.Builder     // Overrides the registry lookup for conf.TransportSystem.
	MetricsRegisterer         prometheus.Registerer    // Defaults to prometheus.DefaultRegisterer.
}

// Bridge owns the native side of the command channel: the pending queue, the
// transport handle cell, the callback registry, and the background flusher.
type Bridge struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	cell     *HandleCell
	queue    *PendingQueue
	registry *CallbackRegistry
	flusher  *Flusher
	metrics  *Metrics
	hooks    DeliveryHooks

	deliver DeliverFunc

	flushMu sync.Mutex
	gaveUp  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	closeMu sync.Mutex
	closed  bool

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
}

// New constructs a Bridge for the supplied configuration. Transports that do
// not depend on platform readiness (channel, nats, http, io) are built and
// attached immediately; the webview transport stays unattached until the
// platform calls SetTransport.
func New(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps BridgeDependencies) (*Bridge, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log.Info("Creating command bridge", loggingpkg.LogFields{
		"transport_system": conf.TransportSystem,
		"config":           conf,
	})

	runCtx, cancel := context.WithCancel(ctx)

	b := &Bridge{
		Conf:     conf,
		Logger:   log,
		cell:     NewHandleCell(),
		queue:    NewPendingQueue(),
		registry: NewCallbackRegistry(log),
		metrics:  NewMetrics(deps.MetricsRegisterer),
		hooks:    deps.Hooks,
		ctx:      runCtx,
		cancel:   cancel,
	}

	b.flusher = NewFlusher(
		b.cell,
		conf.EffectivePollInterval(),
		conf.EffectiveMaxPollAttempts(),
		log,
		b.onFlusherReady,
		b.onFlusherGiveUp,
	)

	deliver, err := buildDeliverFunc(b, b.baseDeliver, b.configuredMiddlewares(deps))
	if err != nil {
		cancel()
		return nil, err
	}
	b.deliver = deliver

	if err := b.attachConfiguredTransport(runCtx, deps.TransportBuilder); err != nil {
		cancel()
		return nil, err
	}

	if conf.MetricsEnabled {
		if err := b.metrics.Register(); err != nil {
			cancel()
			return nil, fmt.Errorf("jsbridge: failed to register metrics: %w", err)
		}
		if conf.MetricsPort > 0 {
			b.RegisterHTTPHandler(conf.MetricsPort, "/metrics", promhttp.Handler())
		}
	}
	b.StartDebugServer()
	b.startHTTPServers()

	return b, nil
}

func (b *Bridge) configuredMiddlewares(deps BridgeDependencies) []MiddlewareRegistration {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)
	return registrations
}

// attachConfiguredTransport builds the configured backend and sets the handle
// cell for transports that are usable straight away. The webview backend (and
// an empty TransportSystem) leave the cell empty for SetTransport.
func (b *Bridge) attachConfiguredTransport(ctx context.Context, builder transportpkg.Builder) error {
	system := b.Conf.TransportSystem
	if system == "" {
		return nil
	}
	if transportpkg.GetCapabilities(system).RequiresReadiness {
		return nil
	}

	wmLogger := loggingpkg.NewWatermillAdapter(b.Logger)

	var (
		t   transportpkg.Transport
		err error
	)
	if builder != nil {
		t, err = builder(ctx, b.Conf, wmLogger)
	} else {
		t, err = transportpkg.Build(ctx, b.Conf, wmLogger)
	}
	if err != nil {
		return fmt.Errorf("jsbridge: failed to build %q transport: %w", system, err)
	}

	b.cell.Set(t)
	return nil
}

// Send encodes payload into a typed command envelope and delivers it, queueing
// when the host runtime is not ready yet.
func (b *Bridge) Send(ctx context.Context, commandType string, payload any) (*Delivery, error) {
	envelope, err := EncodeCommand(commandType, payload)
	if err != nil {
		return nil, err
	}
	return b.submit(ctx, PendingCommand{CommandType: commandType, Envelope: envelope})
}

// SendRaw delivers a pre-encoded envelope. The envelope must be valid JSON;
// everything past that is the caller's contract with the host.
func (b *Bridge) SendRaw(ctx context.Context, envelope []byte) (*Delivery, error) {
	if len(envelope) == 0 {
		return nil, errspkg.ErrPayloadRequired
	}
	if !jsoncodec.Valid(envelope) {
		return nil, fmt.Errorf("jsbridge: raw envelope is not valid JSON")
	}
	return b.submit(ctx, PendingCommand{Envelope: envelope})
}

// SendToCallback serialises data and forwards it to the host-side shim of the
// given registered callback.
func (b *Bridge) SendToCallback(ctx context.Context, callbackID string, data any) (*Delivery, error) {
	if callbackID == "" {
		return nil, errspkg.ErrCallbackIDRequired
	}
	if !ValidIdentifier(callbackID) {
		return nil, fmt.Errorf("%w: %q", errspkg.ErrInvalidIdentifier, callbackID)
	}
	payload, err := jsoncodec.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("jsbridge: failed to encode callback payload: %w", err)
	}
	envelope, err := ReplyEnvelope(callbackID, payload)
	if err != nil {
		return nil, err
	}
	return b.submit(ctx, PendingCommand{CallbackID: callbackID, Envelope: envelope})
}

// Invoke calls a named method on the host side directly. Unlike Send it never
// queues: the transport must already be attached.
func (b *Bridge) Invoke(ctx context.Context, method string, payload []byte) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if !ValidIdentifier(method) {
		return fmt.Errorf("%w: %q", errspkg.ErrInvalidIdentifier, method)
	}
	t, ok := b.cell.Get()
	if !ok {
		return errspkg.ErrNotReady
	}
	return t.Invoke(ctx, method, payload)
}

// submit is the shared send path. The returned Delivery resolves once the
// command reaches the transport; the caller's goroutine is never blocked on
// the transport call itself. Enqueue order is delivery order on both paths.
func (b *Bridge) submit(ctx context.Context, cmd PendingCommand) (*Delivery, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	cmd.delivery = newDelivery()

	if b.cell.Ready() {
		cmd.direct = true
		b.queue.Enqueue(cmd)
		b.flushAsync()
		return cmd.delivery, nil
	}

	b.queue.Enqueue(cmd)
	pending := b.queue.Len()
	b.metrics.RecordQueued(pending)

	if b.hooks.OnEnqueue != nil {
		b.hooks.OnEnqueue(DeliveryContext{
			CommandType: cmd.CommandType,
			CallbackID:  cmd.CallbackID,
			Envelope:    cmd.Envelope,
			Transport:   b.Conf.TransportSystem,
			Context:     ctx,
		})
	}

	b.Logger.Debug("Host runtime not ready, command queued", loggingpkg.LogFields{
		"command_type": cmd.CommandType,
		"pending":      pending,
	})

	b.flusher.Start(b.ctx)

	if b.cell.Ready() {
		// Readiness raced the enqueue; the flusher may already have drained
		// and exited, so trigger a drain ourselves.
		b.flushAsync()
	} else if b.gaveUp.Load() {
		// The poll budget was spent before this send. The caller gets the
		// give-up error straight away; the envelope stays queued so a later
		// SetTransport or explicit Flush can still deliver it.
		cmd.delivery.resolve(errspkg.ErrFlushGaveUp)
	}
	return cmd.delivery, nil
}

// flushAsync drains the queue on a background goroutine so send paths return
// without waiting on the transport.
func (b *Bridge) flushAsync() {
	go func() {
		if _, err := b.flush(b.ctx, 0); err != nil {
			b.Logger.Error("Background flush failed", err, nil)
		}
	}()
}

// deliverCommand pushes one command through the middleware chain and records
// the outcome.
func (b *Bridge) deliverCommand(ctx context.Context, cmd PendingCommand, path string) error {
	err := b.deliver(ctx, DeliveryContext{
		CommandType: cmd.CommandType,
		CallbackID:  cmd.CallbackID,
		Envelope:    cmd.Envelope,
		Transport:   b.Conf.TransportSystem,
		Path:        path,
	})
	if err != nil {
		b.metrics.RecordDeliveryError()
		return err
	}
	b.metrics.RecordDelivered(path)
	return nil
}

// baseDeliver is the innermost DeliverFunc: it borrows the transport from the
// cell and evaluates the appropriate script.
func (b *Bridge) baseDeliver(ctx context.Context, d DeliveryContext) error {
	t, ok := b.cell.Get()
	if !ok {
		return errspkg.ErrNotReady
	}

	var script string
	if d.CallbackID != "" {
		script = CallbackInvocation(d.CallbackID, d.Envelope)
	} else {
		script = WrapForDispatch(d.Envelope, b.Conf.EffectiveDispatchFunction(), b.Conf.EffectivePendingQueueName())
	}
	return t.Evaluate(ctx, script)
}

// SetTransport attaches the platform-provided transport. The first successful
// call wins and triggers an immediate flush of anything queued; later calls
// are idempotent no-ops and report false.
func (b *Bridge) SetTransport(ctx context.Context, t transportpkg.Transport) bool {
	if !b.cell.Set(t) {
		return false
	}

	b.Logger.Info("Transport handle attached", loggingpkg.LogFields{
		"pending": b.queue.Len(),
	})

	// The flusher wakes up on its own, but it may already have given up.
	if _, err := b.Flush(ctx); err != nil {
		b.Logger.Error("Flush on transport attach failed", err, nil)
	}
	return true
}

// Ready reports whether the transport handle has been attached.
func (b *Bridge) Ready() bool {
	return b.cell.Ready()
}

// Pending returns the number of commands waiting for the host runtime.
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Flush drains the pending queue and delivers every command in enqueue order.
// Per-command failures resolve that command's future and are collected, but
// never abort the rest of the batch. Returns the number of commands handed to
// the transport successfully.
func (b *Bridge) Flush(ctx context.Context) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	if !b.cell.Ready() {
		return 0, errspkg.ErrNotReady
	}
	return b.flush(ctx, 0)
}

// flush performs the actual drain. attempts is the flusher's readiness check
// count, zero for explicit flushes. Serialised so concurrent flushes cannot
// interleave batches.
func (b *Bridge) flush(ctx context.Context, attempts int) (int, error) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	batch := b.queue.DrainAll()
	if len(batch) == 0 {
		return 0, nil
	}

	var (
		delivered int
		errs      []error
	)
	for _, cmd := range batch {
		path := "flush"
		if cmd.direct {
			path = "direct"
		}
		err := b.deliverCommand(ctx, cmd, path)
		cmd.delivery.resolve(err)
		if err != nil {
			b.Logger.Error("Failed to deliver queued command", err, loggingpkg.LogFields{
				"command_type": cmd.CommandType,
				"callback_id":  cmd.CallbackID,
			})
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	b.metrics.RecordFlush(len(batch), attempts, b.queue.Len())
	b.Logger.Debug("Pending queue flushed", loggingpkg.LogFields{
		"batch":     len(batch),
		"delivered": delivered,
	})
	return delivered, errors.Join(errs...)
}

func (b *Bridge) onFlusherReady(ctx context.Context, attempts int) {
	if _, err := b.flush(ctx, attempts); err != nil {
		b.Logger.Error("Background flush failed", err, loggingpkg.LogFields{
			"attempts": attempts,
		})
	}
}

func (b *Bridge) onFlusherGiveUp(attempts int) {
	pending := b.queue.Len()
	b.metrics.RecordGiveUp(attempts)

	// Callers stop waiting, but the envelopes stay queued so a later
	// SetTransport or explicit Flush can still deliver them. The flag must be
	// set before ResolveAll so a concurrent send either gets resolved here or
	// sees the flag and fails fast itself.
	b.gaveUp.Store(true)
	b.queue.ResolveAll(errspkg.ErrFlushGaveUp)

	if b.hooks.OnGiveUp != nil {
		b.hooks.OnGiveUp(pending, attempts)
	}
}

// RegisterCallback stores handler under id, replacing any previous handler.
// When the transport is already attached the host-side shim is installed
// immediately; otherwise shim installation rides the regular queueing path.
func (b *Bridge) RegisterCallback(ctx context.Context, id string, handler CallbackHandler) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if id == "" {
		return errspkg.ErrCallbackIDRequired
	}
	if !ValidIdentifier(id) {
		return fmt.Errorf("%w: %q", errspkg.ErrInvalidIdentifier, id)
	}
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}

	b.registry.Register(id, handler)
	return b.evaluateShim(ctx, CallbackShim(id, EntryObject))
}

// UnregisterCallback removes the handler for id and tears down its host-side
// shim. Unknown ids are a no-op.
func (b *Bridge) UnregisterCallback(ctx context.Context, id string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if id == "" {
		return errspkg.ErrCallbackIDRequired
	}
	if !ValidIdentifier(id) {
		return fmt.Errorf("%w: %q", errspkg.ErrInvalidIdentifier, id)
	}

	b.registry.Unregister(id)
	return b.evaluateShim(ctx, RemoveCallbackShim(id))
}

// evaluateShim runs shim management scripts best effort: when the transport
// is not attached yet the script is skipped, because the dispatch wrapper on
// the host side resolves callbacks by id without needing the shim.
func (b *Bridge) evaluateShim(ctx context.Context, script string) error {
	t, ok := b.cell.Get()
	if !ok {
		return nil
	}
	return t.Evaluate(ctx, script)
}

// Callbacks returns the identifiers of the currently registered callbacks.
func (b *Bridge) Callbacks() []string {
	return b.registry.IDs()
}

// Metrics returns a point-in-time snapshot of the bridge metrics.
func (b *Bridge) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

// Close stops the flusher, fails any queued deliveries with ErrBridgeClosed,
// and closes the transport. Close is idempotent.
func (b *Bridge) Close() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.cancel()

	b.queue.ResolveAll(errspkg.ErrBridgeClosed)
	b.queue.DrainAll()

	if t, ok := b.cell.Get(); ok {
		if err := b.closeTransport(t); err != nil {
			return err
		}
	}
	b.Logger.Info("Bridge closed", nil)
	return nil
}

func (b *Bridge) closeTransport(t transportpkg.Transport) error {
	if err := t.Close(); err != nil {
		b.Logger.Error("Failed to close transport", err, nil)
		return fmt.Errorf("jsbridge: failed to close transport: %w", err)
	}
	return nil
}

func (b *Bridge) checkOpen() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if b.closed {
		return errspkg.ErrBridgeClosed
	}
	return nil
}

// RegisterHTTPHandler mounts handler on the shared mux for port. Servers are
// started once during construction.
func (b *Bridge) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	b.httpServersMu.Lock()
	defer b.httpServersMu.Unlock()

	if b.httpServers == nil {
		b.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := b.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		b.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (b *Bridge) startHTTPServers() {
	b.httpServersMu.Lock()
	defer b.httpServersMu.Unlock()

	for port, mux := range b.httpServers {
		addr := fmt.Sprintf(":%d", port)
		b.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				b.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
