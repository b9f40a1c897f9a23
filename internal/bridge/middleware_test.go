package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestRecovererMiddleware_CatchesPanics(t *testing.T) {
	mw := RecovererMiddleware().Middleware
	deliver := mw(func(context.Context, DeliveryContext) error {
		panic("evaluator exploded")
	})

	var err error
	assert.NotPanics(t, func() {
		err = deliver(context.Background(), DeliveryContext{})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport panicked")
}

func TestRecovererMiddleware_PassesThrough(t *testing.T) {
	mw := RecovererMiddleware().Middleware
	deliver := mw(func(context.Context, DeliveryContext) error { return nil })
	assert.NoError(t, deliver(context.Background(), DeliveryContext{}))
}

func TestTracerMiddleware_PropagatesResult(t *testing.T) {
	mw := TracerMiddleware().Middleware

	boom := errors.New("boom")
	var observed trace.Span
	deliver := mw(func(ctx context.Context, d DeliveryContext) error {
		observed = trace.SpanFromContext(ctx)
		return boom
	})

	err := deliver(context.Background(), DeliveryContext{CommandType: "x", Transport: "webview"})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, observed)
}

func TestBuildDeliverFunc_OrderIsOutsideIn(t *testing.T) {
	b := newTestBridge(t, nil)

	var order []string
	tag := func(name string) MiddlewareRegistration {
		return MiddlewareRegistration{
			Name: name,
			Middleware: func(next DeliverFunc) DeliverFunc {
				return func(ctx context.Context, d DeliveryContext) error {
					order = append(order, name)
					return next(ctx, d)
				}
			},
		}
	}

	deliver, err := buildDeliverFunc(b, func(context.Context, DeliveryContext) error {
		order = append(order, "base")
		return nil
	}, []MiddlewareRegistration{tag("outer"), tag("inner")})
	require.NoError(t, err)

	require.NoError(t, deliver(context.Background(), DeliveryContext{}))
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}

func TestBuildDeliverFunc_BuilderErrors(t *testing.T) {
	b := newTestBridge(t, nil)

	_, err := buildDeliverFunc(b, func(context.Context, DeliveryContext) error { return nil },
		[]MiddlewareRegistration{{
			Name:    "broken",
			Builder: func(*Bridge) (DeliveryMiddleware, error) { return nil, errors.New("no deps") },
		}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `middleware "broken"`)
}

func TestBuildDeliverFunc_EmptyRegistrationRejected(t *testing.T) {
	b := newTestBridge(t, nil)

	_, err := buildDeliverFunc(b, func(context.Context, DeliveryContext) error { return nil },
		[]MiddlewareRegistration{{Name: "empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires Middleware or Builder")
}

func TestBuildDeliverFunc_NilBuilderResultIsSkipped(t *testing.T) {
	b := newTestBridge(t, nil)

	deliver, err := buildDeliverFunc(b, func(context.Context, DeliveryContext) error { return nil },
		[]MiddlewareRegistration{{
			Name:    "disabled",
			Builder: func(*Bridge) (DeliveryMiddleware, error) { return nil, nil },
		}})
	require.NoError(t, err)
	assert.NoError(t, deliver(context.Background(), DeliveryContext{}))
}

func TestHooksMiddleware_FiresDeliverAndError(t *testing.T) {
	var delivered, failed []DeliveryContext
	var gotErr error

	conf := testConfig()
	b, err := New(conf, newTestLogger(), context.Background(), BridgeDependencies{
		Hooks: DeliveryHooks{
			OnDeliver: func(d DeliveryContext) { delivered = append(delivered, d) },
			OnError: func(d DeliveryContext, err error) {
				failed = append(failed, d)
				gotErr = err
			},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	tt := &testTransport{}
	b.SetTransport(context.Background(), tt)

	d, err := b.Send(context.Background(), "ok", nil)
	require.NoError(t, err)
	require.NoError(t, waitResolved(t, d))

	require.Len(t, delivered, 1)
	assert.Equal(t, "ok", delivered[0].CommandType)
	assert.Equal(t, "direct", delivered[0].Path)

	boom := errors.New("boom")
	tt.evalErr = boom
	d, err = b.Send(context.Background(), "fail", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, waitResolved(t, d), boom)

	require.Len(t, failed, 1)
	assert.Equal(t, "fail", failed[0].CommandType)
	assert.ErrorIs(t, gotErr, boom)
}

func TestCustomMiddlewareAppendedAfterDefaults(t *testing.T) {
	var seen int

	conf := testConfig()
	b, err := New(conf, newTestLogger(), context.Background(), BridgeDependencies{
		Middlewares: []MiddlewareRegistration{{
			Name: "counter",
			Middleware: func(next DeliverFunc) DeliverFunc {
				return func(ctx context.Context, d DeliveryContext) error {
					seen++
					return next(ctx, d)
				}
			},
		}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	b.SetTransport(context.Background(), &testTransport{})

	d, err := b.Send(context.Background(), "counted", nil)
	require.NoError(t, err)
	require.NoError(t, waitResolved(t, d))
	assert.Equal(t, 1, seen)
}
