// Package shortcuts implements multi-key debounce/hold/repeat
// detection for registered keyboard chords, grounded in
// original_source's events/shortcuts.rs.
package shortcuts

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/omniled/omniled/internal/logging"
)

var log = logging.For("shortcuts")

var keyPattern = regexp.MustCompile(`^KEY\((.*)\)$`)

// Handler is invoked once a chord transitions into press or qualifies
// for a hold-repeat, matching shortcuts.rs's on_match Lua function.
type Handler func() error

type keyState struct {
	key     string
	pressed bool
}

type entry struct {
	keys           []keyState
	onMatch        Handler
	lastAllPressed bool
	lastUpdateTick int
	holdUpdates    int
}

// Shortcuts tracks every registered chord and the process-wide key
// repeat cadence loaded from settings (keyboard_ticks_repeat_delay/
// rate), exactly shortcuts.rs's Shortcuts.
type Shortcuts struct {
	entries     []*entry
	delay, rate int
	currentTick int
}

// New builds a Shortcuts tracker using the configured repeat cadence.
func New(delay, rate int) *Shortcuts {
	return &Shortcuts{delay: delay, rate: rate}
}

// Register adds a chord: every key must be named "KEY(<code>)" and the
// set is deduplicated and sorted before matching, matching
// shortcuts.rs's register. Unrecognised key names are logged as
// warnings (not rejected) but a key that doesn't match the KEY(...)
// pattern at all is an error.
func (s *Shortcuts) Register(keys []string, onMatch Handler) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	sorted = dedupe(sorted)

	states := make([]keyState, 0, len(sorted))
	errorFound := false
	for _, key := range sorted {
		m := keyPattern.FindStringSubmatch(key)
		if m == nil {
			log.Error("key name does not match pattern KEY(code)", "key", key)
			errorFound = true
			continue
		}
		states = append(states, keyState{key: key, pressed: false})
	}
	if errorFound {
		return fmt.Errorf("failed to parse some of the provided keycodes")
	}

	s.entries = append(s.entries, &entry{keys: states, onMatch: onMatch})
	return nil
}

// ProcessKey updates every registered chord's per-key pressed state
// for keyName and fires handlers per the press/hold/repeat state
// machine in shortcuts.rs's process_key.
func (s *Shortcuts) ProcessKey(keyName string, pressed bool) error {
	for _, e := range s.entries {
		position := -1
		for i, k := range e.keys {
			if k.key == keyName {
				position = i
				break
			}
		}
		if position < 0 {
			continue
		}

		e.keys[position].pressed = pressed
		allPressed := true
		for _, k := range e.keys {
			if !k.pressed {
				allPressed = false
				break
			}
		}

		press := allPressed && !e.lastAllPressed
		hold := allPressed && e.lastAllPressed

		requiredTicks := s.rate
		if e.holdUpdates == 0 {
			requiredTicks = s.delay
		}
		deltaTicks := s.currentTick - e.lastUpdateTick
		update := s.currentTick != e.lastUpdateTick && (press || (hold && deltaTicks >= requiredTicks))

		if update {
			e.lastUpdateTick = s.currentTick
			if e.onMatch != nil {
				if err := e.onMatch(); err != nil {
					return err
				}
			}
			if hold {
				e.holdUpdates++
			}
		}

		if !hold {
			e.holdUpdates = 0
		}
		e.lastAllPressed = allPressed
	}
	return nil
}

// Update advances the tick counter once per main-loop tick, matching
// shortcuts.rs's update.
func (s *Shortcuts) Update() {
	s.currentTick++
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	first := true
	for _, s := range sorted {
		if first || s != prev {
			out = append(out, s)
			prev = s
			first = false
		}
	}
	return out
}
