package jsbridge

import (
	"context"

	bridgepkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge"
	configpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/config"
	errspkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/errors"
	idspkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/ids"
	jsoncodec "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
	transportpkg "github.com/bananabit-dev/dx-use-js-bridge/transport"
)

type (
	Config             = configpkg.Config
	Bridge             = bridgepkg.Bridge
	BridgeDependencies = bridgepkg.BridgeDependencies
	Delivery           = bridgepkg.Delivery
	CallbackHandler    = bridgepkg.CallbackHandler

	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities

	MiddlewareBuilder      = bridgepkg.MiddlewareBuilder
	MiddlewareRegistration = bridgepkg.MiddlewareRegistration
	DeliverFunc            = bridgepkg.DeliverFunc
	DeliveryMiddleware     = bridgepkg.DeliveryMiddleware

	// Delivery lifecycle hooks
	DeliveryContext = bridgepkg.DeliveryContext
	DeliveryHooks   = bridgepkg.DeliveryHooks

	MetricsSnapshot = bridgepkg.MetricsSnapshot

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	DecodeError = errspkg.DecodeError
)

var (
	New            = bridgepkg.New
	ValidateConfig = configpkg.ValidateConfig

	DefaultMiddlewares      = bridgepkg.DefaultMiddlewares
	RecovererMiddleware     = bridgepkg.RecovererMiddleware
	LogDeliveriesMiddleware = bridgepkg.LogDeliveriesMiddleware
	TracerMiddleware        = bridgepkg.TracerMiddleware
	HooksMiddleware         = bridgepkg.HooksMiddleware

	// Delivery lifecycle hooks
	LoggingHooks  = bridgepkg.LoggingHooks
	MetricsHooks  = bridgepkg.MetricsHooks
	AlertingHooks = bridgepkg.AlertingHooks

	// Envelope helpers
	EncodeCommand      = bridgepkg.EncodeCommand
	ReplyEnvelope      = bridgepkg.ReplyEnvelope
	DecodeInto         = bridgepkg.DecodeInto
	WrapForDispatch    = bridgepkg.WrapForDispatch
	CallbackShim       = bridgepkg.CallbackShim
	CallbackInvocation = bridgepkg.CallbackInvocation
	RemoveCallbackShim = bridgepkg.RemoveCallbackShim
	ValidIdentifier    = bridgepkg.ValidIdentifier

	// Transport registry
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetCapabilities          = transportpkg.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	JSONDecode    = jsoncodec.Decode
	ValidJSON     = jsoncodec.Valid

	ErrBridgeRequired      = errspkg.ErrBridgeRequired
	ErrConfigRequired      = errspkg.ErrConfigRequired
	ErrLoggerRequired      = errspkg.ErrLoggerRequired
	ErrHandlerRequired     = errspkg.ErrHandlerRequired
	ErrCallbackIDRequired  = errspkg.ErrCallbackIDRequired
	ErrCommandTypeRequired = errspkg.ErrCommandTypeRequired
	ErrTransportRequired   = errspkg.ErrTransportRequired
	ErrPayloadRequired     = errspkg.ErrPayloadRequired
	ErrInvalidIdentifier   = errspkg.ErrInvalidIdentifier
	ErrNotReady            = errspkg.ErrNotReady
	ErrFlushGaveUp         = errspkg.ErrFlushGaveUp
	ErrBridgeClosed        = errspkg.ErrBridgeClosed

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger

	CreateULID = idspkg.CreateULID

	// NewCallbackID generates a unique callback ID using ULID.
	NewCallbackID = idspkg.NewCallbackID
)

// Default flusher and envelope settings.
const (
	DefaultPollInterval     = configpkg.DefaultPollInterval
	DefaultMaxPollAttempts  = configpkg.DefaultMaxPollAttempts
	DefaultDispatchFunction = configpkg.DefaultDispatchFunction
	DefaultPendingQueueName = configpkg.DefaultPendingQueueName

	// EntryObject is the host-side global callback shims post through.
	EntryObject = bridgepkg.EntryObject
)

// Listener types for typed host-originated subscriptions.
type (
	Event[T any]    = bridgepkg.Event[T]
	Listener[T any] = bridgepkg.Listener[T]
)

// Listen registers a callback under a fresh ULID identifier and returns a
// typed listener for it.
func Listen[T any](ctx context.Context, b *Bridge) (*Listener[T], error) {
	return bridgepkg.Listen[T](ctx, b)
}

// ListenID is Listen with a caller-chosen identifier.
func ListenID[T any](ctx context.Context, b *Bridge, id string) (*Listener[T], error) {
	return bridgepkg.ListenID[T](ctx, b, id)
}

// Decode deserialises a host payload into T, tolerating payloads that arrive
// as JSON-encoded strings instead of native objects.
func Decode[T any](raw []byte) (T, error) {
	return bridgepkg.Decode[T](raw)
}
