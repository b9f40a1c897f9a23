// Package webview adapts an embedder-supplied script evaluator into a bridge
// transport. The evaluator is the platform primitive ("write this string into
// the script runtime"); this package supplies everything above it.
package webview

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "webview"

// Evaluator is the platform-specific primitive that executes a script inside
// the embedded runtime. Wry, WKWebView, and the Android JNI eval hook all fit
// this shape.
type Evaluator interface {
	Eval(ctx context.Context, script string) error
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, script string) error

func (f EvaluatorFunc) Eval(ctx context.Context, script string) error { return f(ctx, script) }

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.WebViewCapabilities)
}

// Build creates a webview transport. The registry path builds an empty
// adapter; the evaluator arrives later through the readiness signal, so most
// embedders construct the transport directly with New once the platform
// hands them a live WebView.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	return &Transport{logger: logger}, nil
}

// New wraps a live evaluator in a transport.
func New(eval Evaluator, logger watermill.LoggerAdapter) *Transport {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Transport{eval: eval, logger: logger}
}

// Transport delivers scripts through the wrapped evaluator.
type Transport struct {
	eval   Evaluator
	logger watermill.LoggerAdapter
}

// Evaluate runs the script in the host runtime.
func (t *Transport) Evaluate(ctx context.Context, script string) error {
	if t.eval == nil {
		return fmt.Errorf("webview: no evaluator attached")
	}
	return t.eval.Eval(ctx, script)
}

var methodPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Invoke calls a host-side function by name with a JSON argument. The host
// sees the same call it would receive from a script, so hosts that only
// expose eval still work. The method name is interpolated into the generated
// script and must be a plain identifier.
func (t *Transport) Invoke(ctx context.Context, method string, payload []byte) error {
	if !methodPattern.MatchString(method) {
		return fmt.Errorf("webview: invalid method name %q", method)
	}
	script := fmt.Sprintf(
		"if (typeof window.%s === 'function') { window.%s(%s); }",
		method, method, string(payload),
	)
	return t.Evaluate(ctx, script)
}

// Close releases the evaluator reference. The underlying WebView belongs to
// the embedder and is not torn down here.
func (t *Transport) Close() error {
	t.eval = nil
	return nil
}

// Capabilities returns the capabilities of this transport.
func (t *Transport) Capabilities() transport.Capabilities {
	return transport.WebViewCapabilities
}
