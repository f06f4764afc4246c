// Package errs defines the error taxonomy shared by every subsystem.
//
// Each kind is contained to the nearest entity (one event, one layout,
// one device) and never propagates across the dispatch -> render ->
// write pipeline; callers decide locally whether to log-and-continue
// or abort, per the kind's documented policy.
package errs

import "fmt"

// ConfigError wraps a failure loading or evaluating a config document.
type ConfigError struct {
	Document string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %q: %v", e.Document, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DeviceOpenError is a backend-specific failure at device registration.
// The device is left unregistered; other devices continue operating.
type DeviceOpenError struct {
	Device string
	Backend string
	Err     error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("open device %q (%s): %v", e.Device, e.Backend, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// DeviceIOError is a transient write failure; the caller should log it
// and retry the same frame on the next tick.
type DeviceIOError struct {
	Device string
	Err    error
}

func (e *DeviceIOError) Error() string {
	return fmt.Sprintf("write device %q: %v", e.Device, e.Err)
}

func (e *DeviceIOError) Unwrap() error { return e.Err }

// RPCError covers invalid event names, oversized messages, and decode
// failures. It is translated into a gRPC status and never surfaced to
// scripts.
type RPCError struct {
	Reason string
	Err    error
}

func (e *RPCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpc: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("rpc: %s", e.Reason)
}

func (e *RPCError) Unwrap() error { return e.Err }

// ScriptError is an exception raised from a script handler or layout
// function. It is logged with a source location; the event or layout
// that triggered it is abandoned for this tick.
type ScriptError struct {
	Location string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error at %s: %v", e.Location, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// InternalError signals an invariant violation, e.g. a missing
// animation entry after pre_sync. Fatal in debug builds, logged and
// skipped in release builds.
type InternalError struct {
	Invariant string
	Err       error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal invariant violated (%s): %v", e.Invariant, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
