// Package io provides a file-based transport that appends every delivery as a
// JSON line. Useful for recording a command stream during development and
// replaying it against a real host later.
package io

import (
	"context"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
	"github.com/bananabit-dev/dx-use-js-bridge/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "io"

// DefaultFilePath is the default file path if none is specified.
const DefaultFilePath = "jsbridge.log"

// Kinds of recorded deliveries.
const (
	KindEvaluate = "evaluate"
	KindInvoke   = "invoke"
)

// Record is the JSON structure for persisted deliveries.
type Record struct {
	Kind    string `json:"kind"`
	Method  string `json:"method,omitempty"`
	Payload string `json:"payload"`
}

// Register registers the I/O transport with the default registry. This
// should be called from an init() function in an importing package, or
// explicitly before using the transport.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.IOCapabilities)
}

// Build creates a new I/O transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	filePath := cfg.GetIOFile()
	if filePath == "" {
		filePath = DefaultFilePath
	}
	return &Transport{filePath: filePath, logger: logger}, nil
}

// Transport appends deliveries to a file.
type Transport struct {
	filePath string
	logger   watermill.LoggerAdapter
	mu       sync.Mutex
}

// Evaluate appends the script as an evaluate record.
func (t *Transport) Evaluate(ctx context.Context, script string) error {
	return t.append(Record{Kind: KindEvaluate, Payload: script})
}

// Invoke appends the payload as an invoke record.
func (t *Transport) Invoke(ctx context.Context, method string, payload []byte) error {
	return t.append(Record{Kind: KindInvoke, Method: method, Payload: string(payload)})
}

func (t *Transport) append(rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := jsoncodec.Marshal(rec)
	if err != nil {
		return err
	}

	if _, err := f.Write(b); err != nil {
		return err
	}
	_, err = f.WriteString("\n")
	return err
}

// Close closes the transport. The file handle is opened per append, so there
// is nothing to release.
func (t *Transport) Close() error {
	return nil
}

// Capabilities returns the capabilities of this transport.
func (t *Transport) Capabilities() transport.Capabilities {
	return transport.IOCapabilities
}
