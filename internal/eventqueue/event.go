// Package eventqueue implements the process-wide typed event queue
// described in spec.md §4.1: a bounded FIFO fed by the RPC server, the
// keyboard poller, and the scripting layer, drained once per tick by
// the main loop.
package eventqueue

import "github.com/omniled/omniled/internal/wire"

// KeyAction is the press/release state of a Keyboard event.
type KeyAction int

const (
	KeyPress KeyAction = iota
	KeyRelease
)

// Kind discriminates the Event sum type (spec.md §3).
type Kind int

const (
	KindApplication Kind = iota
	KindKeyboard
	KindRegister
	KindScript
)

// Event is the tagged value pushed into the queue. Events are
// immutable once enqueued; only one of the per-kind fields is
// meaningful, selected by Kind.
type Event struct {
	Kind Kind

	// Application
	AppName   string
	AppFields wire.Table

	// Keyboard
	Key    string
	Action KeyAction

	// Register
	Pattern string
	Handler any // *lua.LFunction in internal/scripthost; kept opaque here

	// Script
	ScriptName  string
	ScriptValue any
}
