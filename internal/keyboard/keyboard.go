// Package keyboard polls physical key state and emits press/release
// events into the event queue, grounded in original_source's
// keyboard/keyboard.rs.
package keyboard

import (
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/omniled/omniled/internal/eventqueue"
)

// pollInterval matches keyboard.rs's hard-coded 25ms poll cadence.
const pollInterval = 25 * time.Millisecond

// KeySource reports the set of currently pressed keys. The production
// implementation is backed by ebiten's input snapshot (already wired
// for the simulator backend); tests substitute a fake.
type KeySource func() []string

// EbitenKeySource reads ebiten's globally-tracked pressed-key set, the
// same API the teacher's EbitenOutput uses for its own input handling
// (video_backend_ebiten.go), reused here instead of introducing a
// separate OS-level global key hook.
func EbitenKeySource() []string {
	keys := ebiten.AppendPressedKeys(nil)
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, "KEY("+k.String()+")")
	}
	return names
}

// Poller drives the keyboard event source on its own goroutine until
// Stop is called, matching keyboard.rs's process_events loop governed
// by an AtomicBool running flag.
type Poller struct {
	queue   *eventqueue.Queue
	source  KeySource
	running atomic.Bool
	done    chan struct{}
}

// New builds a Poller pushing into queue using source to sample
// currently-pressed keys.
func New(queue *eventqueue.Queue, source KeySource) *Poller {
	if source == nil {
		source = EbitenKeySource
	}
	return &Poller{queue: queue, source: source, done: make(chan struct{})}
}

// Start launches the poll loop. Every tick, a Press event is pushed
// for each currently-pressed key (even if it was already pressed last
// tick — the original has no press/hold distinction at this layer,
// that is Shortcuts' job) and a Release event for every key that
// disappeared since the previous sample.
func (p *Poller) Start() {
	p.running.Store(true)
	go p.run()
}

// Stop clears the running flag; the poll loop exits after its current
// sleep completes.
func (p *Poller) Stop() {
	p.running.Store(false)
}

// Done is closed once the poll goroutine has returned, for callers
// that want to wait for a clean shutdown.
func (p *Poller) Done() <-chan struct{} { return p.done }

func (p *Poller) run() {
	defer close(p.done)

	var previous []string
	for p.running.Load() {
		current := p.source()

		for _, key := range current {
			p.queue.Push(eventqueue.Event{Kind: eventqueue.KindKeyboard, Key: key, Action: eventqueue.KeyPress})
		}
		for _, key := range previous {
			if !contains(current, key) {
				p.queue.Push(eventqueue.Event{Kind: eventqueue.KindKeyboard, Key: key, Action: eventqueue.KeyRelease})
			}
		}
		previous = current

		time.Sleep(pollInterval)
	}
}

func contains(haystack []string, needle string) bool {
	for _, k := range haystack {
		if k == needle {
			return true
		}
	}
	return false
}
