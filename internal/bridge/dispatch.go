package bridge

import (
	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
	loggingpkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/logging"
)

// dispatchEnvelope is the reverse-direction wire shape: the host names the
// callback and carries an opaque payload.
type dispatchEnvelope struct {
	CallbackID string `json:"callback_id"`
	Data       any    `json:"data"`
}

// Dispatch is the entry point for host-originated messages. It hands payload
// to the callback registered under id and reports whether a handler consumed
// it. Dispatch is called from platform threads and must never unwind, so
// handler panics are caught and logged instead of propagated.
func (b *Bridge) Dispatch(id, payload string) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			b.Logger.Error("Callback handler panicked", nil, loggingpkg.LogFields{
				"callback_id": id,
				"panic":       r,
			})
			handled = false
		}
	}()

	if id == "" {
		b.Logger.Debug("Dropping dispatch with empty callback id", nil)
		b.metrics.RecordDispatch(false)
		return false
	}

	hit := b.registry.Invoke(id, payload)
	b.metrics.RecordDispatch(hit)
	return hit
}

// DispatchRaw accepts a serialised reverse envelope, tolerating hosts that
// double-encode it as a JSON string. Envelopes that decode to nothing usable
// are dropped with a log line rather than surfaced as errors, because the
// host side cannot act on a native failure anyway.
func (b *Bridge) DispatchRaw(raw []byte) bool {
	var env dispatchEnvelope
	if err := DecodeInto(raw, &env); err != nil {
		b.Logger.Error("Dropping undecodable dispatch payload", err, loggingpkg.LogFields{
			"payload": string(raw),
		})
		b.metrics.RecordDispatch(false)
		return false
	}

	payload, err := encodeDispatchData(env.Data)
	if err != nil {
		b.Logger.Error("Dropping dispatch payload that cannot be re-encoded", err, loggingpkg.LogFields{
			"callback_id": env.CallbackID,
		})
		b.metrics.RecordDispatch(false)
		return false
	}

	return b.Dispatch(env.CallbackID, payload)
}

// encodeDispatchData normalises the envelope payload back to the JSON text
// handed to callback handlers. Strings pass through untouched so handlers see
// exactly what the host sent.
func encodeDispatchData(data any) (string, error) {
	if s, ok := data.(string); ok {
		return s, nil
	}
	raw, err := jsoncodec.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
