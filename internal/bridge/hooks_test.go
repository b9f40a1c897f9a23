package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

func TestDeliveryHooks_MergeCallsBothInOrder(t *testing.T) {
	var order []string

	a := DeliveryHooks{
		OnDeliver: func(DeliveryContext) { order = append(order, "a") },
		OnGiveUp:  func(int, int) { order = append(order, "a-giveup") },
	}
	b := DeliveryHooks{
		OnDeliver: func(DeliveryContext) { order = append(order, "b") },
		OnError:   func(DeliveryContext, error) { order = append(order, "b-error") },
	}

	merged := a.Merge(b)
	merged.OnDeliver(DeliveryContext{})
	merged.OnError(DeliveryContext{}, errors.New("x"))
	merged.OnGiveUp(1, 2)

	assert.Equal(t, []string{"a", "b", "b-error", "a-giveup"}, order)
}

func TestDeliveryHooks_MergeWithEmpty(t *testing.T) {
	var called bool
	a := DeliveryHooks{OnEnqueue: func(DeliveryContext) { called = true }}

	merged := a.Merge(DeliveryHooks{})
	require.NotNil(t, merged.OnEnqueue)
	merged.OnEnqueue(DeliveryContext{})
	assert.True(t, called)

	assert.Nil(t, merged.OnDeliver)
	assert.Nil(t, merged.OnError)
	assert.Nil(t, merged.OnGiveUp)
}

type hookLogRecorder struct {
	infos   []string
	errors  []string
	lastErr error
}

func (r *hookLogRecorder) Info(msg string, fields loggingpkg.LogFields) {
	r.infos = append(r.infos, msg)
}

func (r *hookLogRecorder) Error(msg string, err error, fields loggingpkg.LogFields) {
	r.errors = append(r.errors, msg)
	r.lastErr = err
}

func TestLoggingHooks(t *testing.T) {
	rec := &hookLogRecorder{}
	hooks := LoggingHooks(rec)

	ctx := DeliveryContext{
		CommandType: "navigate",
		Transport:   "webview",
		Path:        "flush",
		Duration:    12 * time.Millisecond,
	}

	hooks.OnEnqueue(ctx)
	hooks.OnDeliver(ctx)

	boom := errors.New("boom")
	hooks.OnError(ctx, boom)
	hooks.OnGiveUp(3, 150)

	assert.Equal(t, []string{"Command queued", "Command delivered"}, rec.infos)
	assert.Equal(t, []string{"Command delivery failed", "Gave up waiting for host runtime"}, rec.errors)
	assert.NoError(t, rec.lastErr) // give-up logs without an error value
}

func TestMetricsHooks(t *testing.T) {
	var delivered, failed []string

	hooks := MetricsHooks(
		func(commandType, path string) { delivered = append(delivered, commandType+"/"+path) },
		func(commandType, path string) { failed = append(failed, commandType+"/"+path) },
	)

	hooks.OnDeliver(DeliveryContext{CommandType: "a", Path: "direct"})
	hooks.OnError(DeliveryContext{CommandType: "b", Path: "flush"}, errors.New("x"))

	assert.Equal(t, []string{"a/direct"}, delivered)
	assert.Equal(t, []string{"b/flush"}, failed)
}

func TestMetricsHooks_NilFuncs(t *testing.T) {
	hooks := MetricsHooks(nil, nil)
	assert.NotPanics(t, func() {
		hooks.OnDeliver(DeliveryContext{})
		hooks.OnError(DeliveryContext{}, errors.New("x"))
	})
}

func TestAlertingHooks(t *testing.T) {
	var gotPending, gotAttempts int
	hooks := AlertingHooks(func(pending, attempts int) {
		gotPending = pending
		gotAttempts = attempts
	})

	require.NotNil(t, hooks.OnGiveUp)
	assert.Nil(t, hooks.OnDeliver)

	hooks.OnGiveUp(4, 150)
	assert.Equal(t, 4, gotPending)
	assert.Equal(t, 150, gotAttempts)
}
