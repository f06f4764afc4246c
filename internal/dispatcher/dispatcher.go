// Package dispatcher routes drained events to registered handlers,
// grounded in original_source's events/dispatcher.rs. Despite spec.md
// §4.1 describing patterns as supporting a "dotted prefix", the
// reference implementation only ever compares the fully-qualified
// dotted path built by the recursive walk against literal handler
// patterns (or the wildcard "*") — there is no substring/prefix
// matching in the matcher itself. Walking every leaf path and
// dispatching each one as its own event name is what makes
// "FOO.BAR"-style patterns work; this package reproduces that exact
// walk-and-compare behaviour.
package dispatcher

import (
	"fmt"

	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/wire"
)

var log = logging.For("dispatcher")

// Handler receives a fully-qualified event name and its scalar or
// table value. Errors are logged and never stop dispatch of the
// remaining handlers (spec.md §4.1, "Failure semantics").
type Handler func(name string, value any) error

type entry struct {
	pattern string
	handler Handler
}

// Dispatcher owns an ordered list of (pattern, handler) entries,
// invoked synchronously, in registration order, on the main thread.
type Dispatcher struct {
	entries []entry
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Register appends a handler for the given pattern: a literal event
// name or the wildcard "*".
func (d *Dispatcher) Register(pattern string, h Handler) {
	d.entries = append(d.entries, entry{pattern: pattern, handler: h})
}

// Dispatch routes one drained event per spec.md §4.1:
//
//  1. Application(name, fields): dispatch the outer event under name,
//     then recurse into the tree, dispatching every leaf path as a
//     dotted event name (e.g. CLOCK.hours), passing the scalar value.
//  2. Keyboard(key, act): dispatch KEY(<key>) with "Pressed"/"Released".
//  3. Script(name, value): dispatch name with value.
//  4. Register{pattern, handler}: not handled here; Dispatch ignores
//     Register events, and handlers are added by calling Register
//     directly.
func (d *Dispatcher) Dispatch(ev eventqueue.Event) {
	switch ev.Kind {
	case eventqueue.KindApplication:
		d.dispatchApplication(ev.AppName, wire.NewTable(ev.AppFields), "")
	case eventqueue.KindKeyboard:
		action := "Pressed"
		if ev.Action == eventqueue.KeyRelease {
			action = "Released"
		}
		d.dispatchEvent(fmt.Sprintf("KEY(%s)", ev.Key), action)
	case eventqueue.KindScript:
		d.dispatchEvent(ev.ScriptName, ev.ScriptValue)
	}
}

func (d *Dispatcher) dispatchApplication(name string, value wire.Field, currentKey string) {
	key := name
	if currentKey != "" {
		key = currentKey + "." + name
	}

	d.dispatchEvent(key, fieldToScalar(value))

	if value.Kind == wire.KindTable {
		for k, v := range value.Table {
			d.dispatchApplication(k, v, key)
		}
	}
}

func (d *Dispatcher) dispatchEvent(name string, value any) {
	for _, e := range d.entries {
		if e.pattern == name || e.pattern == "*" {
			if err := e.handler(name, value); err != nil {
				log.Error("handler failed", "event", name, "err", err)
			}
		}
	}
}

// fieldToScalar converts a wire.Field to the plain Go value passed to
// handlers; tables and arrays are passed through as-is for script
// handlers that want the whole sub-tree.
func fieldToScalar(f wire.Field) any {
	switch f.Kind {
	case wire.KindBool:
		return f.Bool
	case wire.KindInt64:
		return f.Int64
	case wire.KindFloat64:
		return f.Float64
	case wire.KindString:
		return f.String
	case wire.KindArray:
		return f.Array
	case wire.KindTable:
		return f.Table
	case wire.KindImage:
		return f.Image
	default:
		return nil
	}
}
