// Package transport defines the delivery capability the bridge core is
// parameterised over. Each backend (webview, channel, nats, http, io) lives in
// its own sub-package and registers itself with the transport registry.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
)

// Transport is the platform primitive that pushes code or data into the host
// runtime. The bridge core never interprets payloads; it only hands them to a
// Transport in order.
type Transport interface {
	// Evaluate runs a script inside the host runtime.
	Evaluate(ctx context.Context, script string) error

	// Invoke calls a named method on the host side with a JSON payload, for
	// hosts that expose a message channel rather than a script evaluator.
	Invoke(ctx context.Context, method string, payload []byte) error

	// Close releases any resources held by the transport.
	Close() error
}

// Builder is the function signature for creating a transport from config.
// Each transport package should provide a Builder function that can be
// registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports. This
// interface allows transports to access only the config they need without
// depending on the full config package.
type Config interface {
	// GetTransportSystem returns the transport type name.
	GetTransportSystem() string

	// NATS
	GetNATSURL() string
	GetNATSSubjectPrefix() string

	// HTTP
	GetHTTPPublisherURL() string

	// IO
	GetIOFile() string
}

// CapabilitiesProvider is implemented by transports that can report their
// capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
