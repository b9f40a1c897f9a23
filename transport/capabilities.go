package transport

// Capabilities describes the features supported by a transport backend.
// Use this to introspect what operations are available at runtime.
type Capabilities struct {
	// SupportsEvaluate indicates the backend can execute arbitrary scripts in
	// the host runtime. When false, Evaluate wraps the script in an envelope
	// and falls back to Invoke.
	SupportsEvaluate bool

	// SupportsInvoke indicates the backend exposes a named-method message
	// channel into the host runtime.
	SupportsInvoke bool

	// SupportsOrdering indicates deliveries are observed by the host in the
	// order they were handed to the transport.
	SupportsOrdering bool

	// SupportsReverse indicates the backend can carry host→native messages
	// back to the dispatch entry point without extra wiring.
	SupportsReverse bool

	// RequiresReadiness indicates the backend is only usable once the
	// platform has signalled readiness (the usual WebView startup race).
	// Backends without this flag are usable immediately after Build.
	RequiresReadiness bool

	// MaxPayloadSize is the maximum envelope size in bytes (0 = unlimited or
	// unknown).
	MaxPayloadSize int64

	// Name is the human-readable name of the transport.
	Name string
}

// Predefined capability sets for the built-in transports.
var (
	// WebViewCapabilities for the embedder-supplied script evaluator.
	WebViewCapabilities = Capabilities{
		Name:              "webview",
		SupportsEvaluate:  true,
		SupportsInvoke:    true,
		SupportsOrdering:  true,
		SupportsReverse:   false,
		RequiresReadiness: true,
	}

	// ChannelCapabilities for the in-memory Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsEvaluate: true,
		SupportsInvoke:   true,
		SupportsOrdering: true,
		SupportsReverse:  true,
	}

	// NATSCapabilities for the NATS Core transport.
	NATSCapabilities = Capabilities{
		Name:             "nats",
		SupportsEvaluate: true,
		SupportsInvoke:   true,
		SupportsOrdering: false,
		SupportsReverse:  true,
		MaxPayloadSize:   1048576, // Default 1MB
	}

	// HTTPCapabilities for the HTTP transport.
	HTTPCapabilities = Capabilities{
		Name:             "http",
		SupportsEvaluate: true,
		SupportsInvoke:   true,
		SupportsOrdering: false,
		SupportsReverse:  false,
	}

	// IOCapabilities for the file-based record transport.
	IOCapabilities = Capabilities{
		Name:             "io",
		SupportsEvaluate: true,
		SupportsInvoke:   true,
		SupportsOrdering: true,
		SupportsReverse:  false,
	}
)

// GetCapabilities returns the capabilities for a transport by name. Uses the
// registry to look up capabilities registered by each transport package.
// Returns a zero Capabilities struct if the transport is unknown.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
