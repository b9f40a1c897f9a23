package bridge

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	configpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/config"
	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

type invokeCall struct {
	method  string
	payload string
}

// testTransport records everything the bridge hands to it.
type testTransport struct {
	mu      sync.Mutex
	scripts []string
	invokes []invokeCall
	evalErr error
	// evalErrFor fails evaluation only for scripts containing the substring.
	evalErrFor string
	panicOnce  bool
	closed     bool
}

func (t *testTransport) Evaluate(_ context.Context, script string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.panicOnce {
		t.panicOnce = false
		panic("transport exploded")
	}
	if t.evalErr != nil {
		if t.evalErrFor == "" || strings.Contains(script, t.evalErrFor) {
			return t.evalErr
		}
	}
	t.scripts = append(t.scripts, script)
	return nil
}

func (t *testTransport) Invoke(_ context.Context, method string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invokes = append(t.invokes, invokeCall{method: method, payload: string(payload)})
	return nil
}

func (t *testTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *testTransport) Scripts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	clone := make([]string, len(t.scripts))
	copy(clone, t.scripts)
	return clone
}

func (t *testTransport) Invokes() []invokeCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	clone := make([]invokeCall, len(t.invokes))
	copy(clone, t.invokes)
	return clone
}

func (t *testTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// blockingTransport parks every Evaluate until release is closed.
type blockingTransport struct {
	testTransport
	release chan struct{}
}

func (t *blockingTransport) Evaluate(ctx context.Context, script string) error {
	<-t.release
	return t.testTransport.Evaluate(ctx, script)
}

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.Nop()
}

func testConfig() *configpkg.Config {
	return &configpkg.Config{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 200,
	}
}

// newTestBridge builds a bridge with no transport attached and a fast poll
// budget so give-up paths run inside test timeouts.
func newTestBridge(t *testing.T, conf *configpkg.Config) *Bridge {
	t.Helper()

	if conf == nil {
		conf = &configpkg.Config{}
	}
	if conf.PollInterval == 0 {
		conf.PollInterval = time.Millisecond
	}
	if conf.MaxPollAttempts == 0 {
		conf.MaxPollAttempts = 200
	}

	b, err := New(conf, newTestLogger(), context.Background(), BridgeDependencies{})
	if err != nil {
		t.Fatalf("bridge init failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func waitResolved(t *testing.T, d *Delivery) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.Wait(ctx)
	if ctx.Err() != nil {
		t.Fatalf("delivery did not resolve in time")
	}
	return err
}
