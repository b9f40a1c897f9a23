package jsbridge

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channeltransport "github.com/bananabit-dev/dx-use-js-bridge/transport/channel"
	webviewtransport "github.com/bananabit-dev/dx-use-js-bridge/transport/webview"
)

func testLogger() ServiceLogger {
	return NewSlogServiceLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

type scriptRecorder struct {
	mu      sync.Mutex
	scripts []string
}

func (r *scriptRecorder) Eval(_ context.Context, script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, script)
	return nil
}

func (r *scriptRecorder) Scripts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := make([]string, len(r.scripts))
	copy(clone, r.scripts)
	return clone
}

func TestEndToEndChannelTransport(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	tr := channeltransport.New(pubSub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := tr.Subscribe(ctx, channeltransport.EvaluateTopic)
	require.NoError(t, err)

	b, err := New(
		&Config{TransportSystem: channeltransport.TransportName},
		testLogger(),
		ctx,
		BridgeDependencies{
			TransportBuilder: func(context.Context, TransportConfig, watermill.LoggerAdapter) (Transport, error) {
				return tr, nil
			},
		},
	)
	require.NoError(t, err)
	defer b.Close()

	require.True(t, b.Ready())

	d, err := b.Send(ctx, "navigate", map[string]any{"route": "/settings"})
	require.NoError(t, err)
	require.NoError(t, d.Wait(ctx))

	select {
	case msg := <-messages:
		msg.Ack()
		script := string(msg.Payload)
		assert.Contains(t, script, `"type":"navigate"`)
		assert.Contains(t, script, `"route":"/settings"`)
		assert.Contains(t, script, "window."+DefaultDispatchFunction)
	case <-time.After(5 * time.Second):
		t.Fatal("no script arrived on the evaluate topic")
	}
}

func TestEndToEndWebViewReadinessRace(t *testing.T) {
	ctx := context.Background()

	b, err := New(
		&Config{
			TransportSystem: webviewtransport.TransportName,
			PollInterval:    time.Millisecond,
		},
		testLogger(),
		ctx,
		BridgeDependencies{},
	)
	require.NoError(t, err)
	defer b.Close()

	// Commands sent before the WebView exists are parked.
	require.False(t, b.Ready())
	first, err := b.Send(ctx, "boot", nil)
	require.NoError(t, err)
	second, err := b.Send(ctx, "render", map[string]any{"frame": 1})
	require.NoError(t, err)

	// The platform comes up and hands over its evaluator.
	rec := &scriptRecorder{}
	require.True(t, b.SetTransport(ctx, webviewtransport.New(rec, watermill.NopLogger{})))

	require.NoError(t, first.Wait(ctx))
	require.NoError(t, second.Wait(ctx))

	scripts := rec.Scripts()
	require.Len(t, scripts, 2)
	assert.Contains(t, scripts[0], `"type":"boot"`)
	assert.Contains(t, scripts[1], `"type":"render"`)
}

func TestEndToEndCallbackRoundTrip(t *testing.T) {
	ctx := context.Background()

	b, err := New(&Config{}, testLogger(), ctx, BridgeDependencies{})
	require.NoError(t, err)
	defer b.Close()

	rec := &scriptRecorder{}
	require.True(t, b.SetTransport(ctx, webviewtransport.New(rec, watermill.NopLogger{})))

	type scorePayload struct {
		Score int `json:"score"`
	}

	l, err := Listen[scorePayload](ctx, b)
	require.NoError(t, err)
	defer l.Close(ctx)

	// The shim install landed in the host runtime.
	scripts := rec.Scripts()
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], l.ID())

	// Host posts back through the entry point, double-encoded.
	require.True(t, b.Dispatch(l.ID(), `"{\"score\":41}"`))

	select {
	case ev := <-l.Events():
		require.NoError(t, ev.Err)
		assert.Equal(t, 41, ev.Data.Score)
	case <-time.After(5 * time.Second):
		t.Fatal("no event arrived")
	}
}

func TestFacadeHelpers(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewCallbackID(), "cb_"))
	assert.Len(t, CreateULID(), 26)

	envelope, err := EncodeCommand("ping", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(envelope))

	v, err := Decode[map[string]any]([]byte(`"{\"k\":\"v\"}"`))
	require.NoError(t, err)
	assert.Equal(t, "v", v["k"])

	assert.True(t, ValidJSON([]byte(`{}`)))
	assert.False(t, ValidJSON([]byte(`{`)))
}

func TestFacadeTransportRegistry(t *testing.T) {
	assert.True(t, DefaultTransportRegistry.Has(channeltransport.TransportName))
	assert.True(t, DefaultTransportRegistry.Has(webviewtransport.TransportName))

	caps := GetCapabilities(webviewtransport.TransportName)
	assert.True(t, caps.RequiresReadiness)
}
