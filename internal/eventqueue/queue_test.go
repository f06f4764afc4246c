package eventqueue

import (
	"testing"

	"github.com/omniled/omniled/internal/wire"
)

// TestPushCoalescesApplicationEvents covers spec.md §4.1's
// back-pressure policy: once the queue is full, bursts of Application
// events from the same source name coalesce to the newest value
// instead of growing the queue.
func TestPushCoalescesApplicationEvents(t *testing.T) {
	q := New(1)

	q.Push(Event{Kind: KindApplication, AppName: "CLOCK", AppFields: wire.Table{"seconds": wire.NewInt64(1)}})
	q.Push(Event{Kind: KindApplication, AppName: "CLOCK", AppFields: wire.Table{"seconds": wire.NewInt64(2)}})
	q.Push(Event{Kind: KindApplication, AppName: "CLOCK", AppFields: wire.Table{"seconds": wire.NewInt64(3)}})

	if got := q.Len(); got != 1 {
		t.Fatalf("expected coalesced queue length 1, got %d", got)
	}
	drained := q.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected one drained event, got %d", len(drained))
	}
	if got := drained[0].AppFields["seconds"]; got.Kind != wire.KindInt64 || got.Int64 != 3 {
		t.Fatalf("expected newest value to win, got %+v", got)
	}
}

// TestPushNeverDropsKeyboardEvents covers spec.md §4.1: "oldest wins
// for Keyboard events (a press must never be dropped if its paired
// release is present)". Filling the queue with distinct Application
// events (so there is nothing to coalesce onto) and then pushing a
// Keyboard event must still enqueue the keyboard event, evicting the
// oldest Application entry to make room.
func TestPushNeverDropsKeyboardEvents(t *testing.T) {
	q := New(2)

	q.Push(Event{Kind: KindApplication, AppName: "AUDIO"})
	q.Push(Event{Kind: KindApplication, AppName: "WEATHER"})

	q.Push(Event{Kind: KindKeyboard, Key: "a", Action: KeyPress})

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected queue capacity to hold, got %d events", len(drained))
	}

	var sawKeyboard bool
	for _, ev := range drained {
		if ev.Kind == KindKeyboard && ev.Key == "a" && ev.Action == KeyPress {
			sawKeyboard = true
		}
	}
	if !sawKeyboard {
		t.Fatalf("keyboard press was dropped, drained: %+v", drained)
	}

	var sawAudio bool
	for _, ev := range drained {
		if ev.Kind == KindApplication && ev.AppName == "AUDIO" {
			sawAudio = true
		}
	}
	if sawAudio {
		t.Fatalf("expected oldest Application event to be evicted to make room for keyboard event")
	}
}

// TestPushDropsNewestApplicationWhenSaturatedWithKeyboard covers the
// remaining branch of spec.md §4.1: once the queue is saturated with
// non-evictable (Keyboard) entries, a new Application event is
// silently dropped rather than evicting a keyboard event.
func TestPushDropsNewestApplicationWhenSaturatedWithKeyboard(t *testing.T) {
	q := New(2)

	q.Push(Event{Kind: KindKeyboard, Key: "a", Action: KeyPress})
	q.Push(Event{Kind: KindKeyboard, Key: "b", Action: KeyPress})

	q.Push(Event{Kind: KindApplication, AppName: "CLOCK"})

	if got := q.Len(); got != 2 {
		t.Fatalf("expected saturated queue to stay at capacity 2, got %d", got)
	}
	drained := q.Drain()
	for _, ev := range drained {
		if ev.Kind == KindApplication {
			t.Fatalf("expected the new Application event to be dropped, found %+v", ev)
		}
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	q := New(4)
	q.Push(Event{Kind: KindScript, ScriptName: "X"})
	q.Push(Event{Kind: KindScript, ScriptName: "Y"})

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained events, got %d", len(drained))
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue empty after drain, got len %d", q.Len())
	}
	if got := q.Drain(); got != nil {
		t.Fatalf("expected nil on drain of empty queue, got %v", got)
	}
}
