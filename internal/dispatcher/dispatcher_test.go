package dispatcher

import (
	"errors"
	"testing"

	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/wire"
)

// TestDispatchApplicationWalksEveryLeafPath covers spec.md §4.1 point
// 1: the outer event dispatches under its own name, and every leaf
// path in the field tree dispatches again as its own dotted event
// name (e.g. "CLOCK.hours").
func TestDispatchApplicationWalksEveryLeafPath(t *testing.T) {
	d := New()

	var seen []string
	record := func(name string, value any) error {
		seen = append(seen, name)
		return nil
	}
	d.Register("CLOCK", record)
	d.Register("CLOCK.hours", record)
	d.Register("CLOCK.minutes", record)

	d.Dispatch(eventqueue.Event{
		Kind:    eventqueue.KindApplication,
		AppName: "CLOCK",
		AppFields: wire.Table{
			"hours":   wire.NewInt64(10),
			"minutes": wire.NewInt64(30),
		},
	})

	want := map[string]bool{"CLOCK": true, "CLOCK.hours": true, "CLOCK.minutes": true}
	if len(seen) != len(want) {
		t.Fatalf("expected %d dispatches, got %d: %v", len(want), len(seen), seen)
	}
	for _, name := range seen {
		if !want[name] {
			t.Fatalf("unexpected dispatch %q", name)
		}
	}
}

func TestDispatchWildcardMatchesEveryEvent(t *testing.T) {
	d := New()

	var count int
	d.Register("*", func(name string, value any) error {
		count++
		return nil
	})

	d.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "FOO", ScriptValue: 1})
	d.Dispatch(eventqueue.Event{Kind: eventqueue.KindKeyboard, Key: "a", Action: eventqueue.KeyPress})

	if count != 2 {
		t.Fatalf("expected wildcard to see both events, got %d", count)
	}
}

func TestDispatchKeyboardEventNamesAndValues(t *testing.T) {
	d := New()

	var gotName string
	var gotValue any
	d.Register("KEY(a)", func(name string, value any) error {
		gotName, gotValue = name, value
		return nil
	})

	d.Dispatch(eventqueue.Event{Kind: eventqueue.KindKeyboard, Key: "a", Action: eventqueue.KeyPress})
	if gotName != "KEY(a)" || gotValue != "Pressed" {
		t.Fatalf("expected KEY(a)/Pressed, got %q/%v", gotName, gotValue)
	}

	d.Dispatch(eventqueue.Event{Kind: eventqueue.KindKeyboard, Key: "a", Action: eventqueue.KeyRelease})
	if gotValue != "Released" {
		t.Fatalf("expected Released, got %v", gotValue)
	}
}

// TestDispatchContinuesAfterHandlerError covers spec.md §4.1's failure
// semantics: a handler error is logged and does not stop processing of
// the remaining handlers for the same event.
func TestDispatchContinuesAfterHandlerError(t *testing.T) {
	d := New()

	var secondRan bool
	d.Register("FOO", func(name string, value any) error {
		return errors.New("boom")
	})
	d.Register("FOO", func(name string, value any) error {
		secondRan = true
		return nil
	})

	d.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "FOO", ScriptValue: 1})

	if !secondRan {
		t.Fatal("expected dispatch to continue to the second handler after the first errored")
	}
}
