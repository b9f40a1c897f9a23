package bridge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	errspkg "github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/errors"
	"github.com/bananabit-dev/dx-use-js-bridge/internal/bridge/jsoncodec"
)

// TypeField is the discriminator key the host uses to route envelopes.
const TypeField = "type"

// CallbackShimPrefix prefixes the per-callback function names installed on
// the host's global object.
const CallbackShimPrefix = "__bridge_"

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidIdentifier reports whether s can be interpolated into a generated
// script as a function name or name suffix without escaping. Callback ids and
// invoke method names must pass this check.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// EncodeCommand wraps a payload into the self-describing envelope the host
// expects: {"type": <commandType>, ...payload fields}. Payloads that do not
// serialise to a JSON object are carried under a "data" key so the
// discriminator always survives.
func EncodeCommand(commandType string, payload any) ([]byte, error) {
	if commandType == "" {
		return nil, errspkg.ErrCommandTypeRequired
	}

	if payload == nil {
		return jsoncodec.Marshal(map[string]any{TypeField: commandType})
	}

	raw, err := jsoncodec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jsbridge: failed to encode command payload: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := jsoncodec.Unmarshal(raw, &fields); err != nil {
		// Not an object: arrays, strings, and numbers ride under "data".
		return jsoncodec.Marshal(map[string]any{
			TypeField: commandType,
			"data":    json.RawMessage(raw),
		})
	}

	typeJSON, err := jsoncodec.Marshal(commandType)
	if err != nil {
		return nil, err
	}
	fields[TypeField] = typeJSON
	return jsoncodec.Marshal(fields)
}

// ReplyEnvelope builds the reverse-direction envelope used when forwarding a
// payload to a specific registered callback.
func ReplyEnvelope(callbackID string, data []byte) ([]byte, error) {
	if callbackID == "" {
		return nil, errspkg.ErrCallbackIDRequired
	}
	return jsoncodec.Marshal(map[string]any{
		"callback_id": callbackID,
		"data":        json.RawMessage(data),
	})
}

// DecodeInto deserialises raw into v. The strict pass is tried first; when it
// fails and raw is a JSON-encoded string, the string's contents are decoded
// instead. The fallback tolerates hosts that pass serialized-text
// representations where others pass native objects. Decoding is idempotent:
// a value that already decodes strictly is never re-interpreted.
func DecodeInto(raw []byte, v any) error {
	strictErr := jsoncodec.Unmarshal(raw, v)
	if strictErr == nil {
		return nil
	}

	var inner string
	if err := jsoncodec.Unmarshal(raw, &inner); err != nil {
		return &errspkg.DecodeError{Strict: strictErr, Fallback: err}
	}
	if err := jsoncodec.Unmarshal([]byte(inner), v); err != nil {
		return &errspkg.DecodeError{Strict: strictErr, Fallback: err}
	}
	return nil
}

// Decode is the typed variant of DecodeInto.
func Decode[T any](raw []byte) (T, error) {
	var v T
	err := DecodeInto(raw, &v)
	return v, err
}

// WrapForDispatch builds the script delivered for every command envelope. The
// host side either dispatches the envelope immediately or, when no dispatch
// function is installed yet, pushes it onto a host-local queue for replay.
func WrapForDispatch(envelope []byte, dispatchFn, queueName string) string {
	var b strings.Builder
	b.WriteString("(function () {\n")
	b.WriteString("    const c = ")
	b.Write(envelope)
	b.WriteString(";\n")
	fmt.Fprintf(&b, "    if (typeof window.%s !== 'function') {\n", dispatchFn)
	fmt.Fprintf(&b, "        window.%s = window.%s || [];\n", queueName, queueName)
	fmt.Fprintf(&b, "        window.%s.push(c);\n", queueName)
	b.WriteString("        console.log('[jsbridge] queued command:', c && c.type);\n")
	b.WriteString("    } else {\n")
	fmt.Fprintf(&b, "        window.%s(c);\n", dispatchFn)
	b.WriteString("    }\n")
	b.WriteString("})();")
	return b.String()
}

// CallbackShim builds the script that installs a per-callback forwarding
// function on the host's global object. Whatever the host hands the shim is
// serialised and posted back through the bridge entry point.
func CallbackShim(callbackID, entryObject string) string {
	name := CallbackShimPrefix + callbackID
	var b strings.Builder
	fmt.Fprintf(&b, "window.%s = function (data) {\n", name)
	fmt.Fprintf(&b, "    if (window.%s && window.%s.postMessage) {\n", entryObject, entryObject)
	fmt.Fprintf(&b, "        window.%s.postMessage('%s', JSON.stringify(data));\n", entryObject, callbackID)
	b.WriteString("        return;\n")
	b.WriteString("    }\n")
	fmt.Fprintf(&b, "    console.warn('[jsbridge] no entry object for callback %s');\n", callbackID)
	b.WriteString("};")
	return b.String()
}

// CallbackInvocation builds the script that calls a callback shim with a
// payload, guarding against the shim not being installed yet.
func CallbackInvocation(callbackID string, payload []byte) string {
	name := CallbackShimPrefix + callbackID
	return fmt.Sprintf("if (window.%s) { window.%s(%s); }", name, name, string(payload))
}

// RemoveCallbackShim builds the script that tears a callback shim down.
func RemoveCallbackShim(callbackID string) string {
	return fmt.Sprintf("delete window.%s%s;", CallbackShimPrefix, callbackID)
}
