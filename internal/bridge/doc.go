/*
Package bridge implements the native side of the host-runtime command channel.

# Architecture Overview

The bridge package solves the WebView startup race: native code wants to push
commands into a host runtime that may not exist yet. Commands sent before the
transport handle is attached are buffered in order and replayed once the
platform signals readiness.

# Package Structure

The bridge package is organized into the following components:

## Core Bridge (bridge.go)

The Bridge struct is the central orchestrator that wires together:
  - The transport handle cell (readiness state)
  - The ordered pending queue and its futures
  - The background flusher
  - The callback registry for host-originated messages
  - HTTP servers for metrics and the debug endpoint

## Envelope Codec (envelope.go)

Serialisation of typed command envelopes, the dispatch-or-queue wrapper
script, per-callback shims, and the tolerant strict-then-string decode used
on the reverse path.

## Flusher (flusher.go)

A single-shot background poller that waits for the transport handle, drains
the queue when it appears, and gives up after a bounded number of checks.

## Middleware (middleware.go)

Composable delivery processing stages:
  - Recoverer: Panic recovery around the transport
  - LogDeliveries: Debug logging of delivered envelopes
  - Tracer: OpenTelemetry distributed tracing
  - Hooks: Delivery lifecycle callbacks

## Dispatch (dispatch.go, registry.go, listener.go)

The reverse direction: platform threads hand host messages to Dispatch or
DispatchRaw, which route them to registered callback handlers. Listener
provides a typed channel-based subscription on top of the registry.

# Sub-packages

  - config/: Bridge configuration with validation
  - errors/: Sentinel errors and error types
  - ids/: ULID generation for callback IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
*/
package bridge
