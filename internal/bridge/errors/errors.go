package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrBridgeRequired      = sterrors.New("jsbridge: bridge is required")
	ErrConfigRequired      = sterrors.New("jsbridge: config is required")
	ErrLoggerRequired      = sterrors.New("jsbridge: logger is required")
	ErrHandlerRequired     = sterrors.New("jsbridge: callback handler is required")
	ErrCallbackIDRequired  = sterrors.New("jsbridge: callback id is required")
	ErrCommandTypeRequired = sterrors.New("jsbridge: command type is required")
	ErrTransportRequired   = sterrors.New("jsbridge: transport is required")
	ErrPayloadRequired     = sterrors.New("jsbridge: payload is required")

	// ErrInvalidIdentifier rejects callback ids and method names that cannot
	// be interpolated into generated scripts safely.
	ErrInvalidIdentifier = sterrors.New("jsbridge: identifier must contain only letters, digits, and underscores")

	// ErrNotReady reports that the runtime handle has not been set yet. Send
	// paths treat it as a signal to queue, never as a caller-visible failure.
	ErrNotReady = sterrors.New("jsbridge: host runtime handle is not ready")

	// ErrFlushGaveUp resolves deliveries that were still queued when the
	// flusher exhausted its poll budget. The payloads stay queued and can be
	// retried with an explicit Flush.
	ErrFlushGaveUp = sterrors.New("jsbridge: flusher gave up waiting for host runtime")

	// ErrBridgeClosed reports operations against a bridge after Close.
	ErrBridgeClosed = sterrors.New("jsbridge: bridge is closed")
)

// DecodeError describes a payload that survived neither the strict decode nor
// the string-fallback decode.
type DecodeError struct {
	Strict   error
	Fallback error
}

func (e *DecodeError) Error() string {
	if e.Fallback != nil {
		return fmt.Sprintf("jsbridge: decode failed (strict: %v; string fallback: %v)", e.Strict, e.Fallback)
	}
	return fmt.Sprintf("jsbridge: decode failed: %v", e.Strict)
}

func (e *DecodeError) Unwrap() error { return e.Strict }
