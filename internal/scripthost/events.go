package scripthost

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// triggerSet implements the multi-event AND-trigger supplement from
// SPEC_FULL.md §C.2, ported field-for-field from original_source's
// omni-led/src/events/events.rs Events: a handler fires at most once
// per tick, once every one of its named events has been seen within
// that tick (update clears the seen flags at each tick).
type triggerSet struct {
	entries []*triggerEntry
	tick    int
}

type triggerEntry struct {
	events          []triggerEvent
	onMatch         *lua.LFunction
	lastTriggerTick int
	hasFired        bool
}

type triggerEvent struct {
	name      string
	triggered bool
}

func newTriggerSet() *triggerSet {
	return &triggerSet{}
}

// register adds an AND-trigger entry for a deduplicated, sorted set of
// event names, matching Events::register.
func (s *triggerSet) register(events []string, onMatch *lua.LFunction) {
	sorted := append([]string(nil), events...)
	sort.Strings(sorted)
	sorted = dedupeStrings(sorted)

	states := make([]triggerEvent, len(sorted))
	for i, e := range sorted {
		states[i] = triggerEvent{name: e}
	}

	s.entries = append(s.entries, &triggerEntry{events: states, onMatch: onMatch})
}

// process marks name triggered on every entry that references it and
// invokes onMatch, with value, the first time every referenced event
// has fired this tick, matching Events::process_event.
func (s *triggerSet) process(L *lua.LState, name string, value lua.LValue) {
	for _, entry := range s.entries {
		if entry.lastTriggerTick == s.tick && entry.hasFired {
			continue
		}

		found := false
		for i := range entry.events {
			if entry.events[i].name == name {
				entry.events[i].triggered = true
				found = true
				break
			}
		}
		if !found {
			continue
		}

		allTriggered := true
		for _, e := range entry.events {
			if !e.triggered {
				allTriggered = false
				break
			}
		}
		if !allTriggered {
			continue
		}

		entry.lastTriggerTick = s.tick
		entry.hasFired = true
		if err := L.CallByParam(lua.P{Fn: entry.onMatch, NRet: 0, Protect: true}, value); err != nil {
			log.Error("EVENTS.register handler failed", "err", err)
		}
	}
}

// update advances the tick counter and clears every entry's per-event
// triggered flags, matching Events::update.
func (s *triggerSet) update() {
	s.tick++
	for _, entry := range s.entries {
		entry.hasFired = false
		for i := range entry.events {
			entry.events[i].triggered = false
		}
	}
}

func dedupeStrings(sorted []string) []string {
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

// registerEvents exposes EVENTS.register(pattern_or_names, handler) to
// the sandbox:
//
//   - a single string pattern behaves like the literal-pattern
//     dispatcher of spec.md §4.1: the handler fires every time that
//     pattern is dispatched.
//   - an array of event names installs an AND-trigger (SPEC_FULL.md
//     §C.2): the handler fires once per tick only after every named
//     event has been seen.
func (h *Host) registerEvents() {
	// Every dispatched event is also fed to the AND-trigger tracker,
	// regardless of whether any AND-trigger has been registered yet.
	h.Dispatch.Register("*", func(name string, value any) error {
		h.triggers.process(h.L, name, toLua(h.L, value))
		return nil
	})

	t := h.L.NewTable()

	t.RawSetString("register", h.L.NewFunction(func(L *lua.LState) int {
		handler := L.CheckFunction(2)

		switch arg := L.Get(1).(type) {
		case lua.LString:
			pattern := string(arg)
			h.Dispatch.Register(pattern, func(name string, value any) error {
				return L.CallByParam(lua.P{Fn: handler, NRet: 0, Protect: true}, lua.LString(name), toLua(L, value))
			})
		case *lua.LTable:
			names := stringArray(arg)
			h.triggers.register(names, handler)
		default:
			L.ArgError(1, "expected a string pattern or an array of event names")
		}
		return 0
	}))

	h.L.SetGlobal("EVENTS", t)
}
