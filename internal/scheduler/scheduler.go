// Package scheduler selects, once per tick, which registered layout
// (if any) a device should re-render, grounded in original_source's
// script_handler/script_handler.rs update_impl. The priority-ordered
// dwell/repeat algorithm below is ported field-for-field from that
// function; see spec.md §4.3 for the prose description.
package scheduler

import (
	"github.com/omniled/omniled/internal/devices"
	"github.com/omniled/omniled/internal/renderer"
)

// Predicate is a script-supplied gate a dirty layout must also satisfy
// before it is selected (spec.md §3, "Layout").
type Predicate func() bool

// LayoutFunc is the script-supplied callable that produces a frame
// when its layout is selected.
type LayoutFunc func() renderer.LayoutData

// Layout is one entry in a device's priority-ordered layout list.
type Layout struct {
	Run       LayoutFunc
	Predicate Predicate
	RunOn     map[string]bool
}

// DeviceContext is the per-device scheduling state from spec.md §3.
type DeviceContext struct {
	Device  devices.Device
	Name    string
	Index   int
	Layouts []Layout

	dirty         []bool
	timeRemaining int // ms
	lastPriority  int
	state         renderer.AnimState

	group *renderer.Renderer
}

// NewDeviceContext registers a device with its ordered layouts.
func NewDeviceContext(index int, name string, device devices.Device, layouts []Layout, r *renderer.Renderer) *DeviceContext {
	return &DeviceContext{
		Device:  device,
		Name:    name,
		Index:   index,
		Layouts: layouts,
		dirty:   make([]bool, len(layouts)),
		state:   renderer.StateFinished,
		group:   r,
	}
}

// MarkDirty flags every layout whose run_on set contains key (spec.md
// §4.3, "dirty[i]"), called once per dispatched event keyed by its
// fully-qualified dotted name.
func (ctx *DeviceContext) MarkDirty(key string) {
	for i, l := range ctx.Layouts {
		if l.RunOn[key] {
			ctx.dirty[i] = true
		}
	}
}

// Reset clears dirty flags, zeroes time_remaining, and forces
// re-selection on the next tick (spec.md §4.3, "Reset").
func (ctx *DeviceContext) Reset() {
	for i := range ctx.dirty {
		ctx.dirty[i] = false
	}
	ctx.timeRemaining = 0
	ctx.lastPriority = 0
	ctx.state = renderer.StateFinished
}

// Tick runs one scheduling pass for this device, reproducing the
// priority walk, tie-break, and dwell/repeat logic of spec.md §4.3.
// The InProgress/CanFinish/Finished state consulted for repetition is
// the animation group's lifecycle state from the layout's own last
// render (spec.md §4.4), not a script-declared hint.
func (ctx *DeviceContext) Tick(tickMS int) error {
	ctx.timeRemaining -= tickMS
	if ctx.timeRemaining < 0 {
		ctx.timeRemaining = 0
	}

	marked := ctx.dirty
	ctx.dirty = make([]bool, len(ctx.Layouts))

	toUpdate := -1
	newUpdate := false

	for priority, isMarked := range marked {
		if ctx.timeRemaining > 0 && ctx.lastPriority < priority {
			break
		}

		if isMarked && testPredicate(ctx.Layouts[priority].Predicate) {
			toUpdate = priority
			newUpdate = true
			break
		}

		if priority == ctx.lastPriority {
			repeatForDuration := ctx.timeRemaining > 0 && ctx.state == renderer.StateCanFinish
			repeatOnce := ctx.state == renderer.StateInProgress
			if repeatForDuration || repeatOnce {
				toUpdate = priority
				newUpdate = false
				break
			}
		}
	}

	if toUpdate < 0 {
		return nil
	}

	size := renderer.Size{Width: ctx.Device.Width(), Height: ctx.Device.Height()}
	layout := ctx.Layouts[toUpdate].Run()

	group := ctx.group.GroupFor(renderer.ContextKey{Script: toUpdate, Device: ctx.Index}, toUpdate, false)
	_, buf := ctx.group.Render(
		renderer.ContextKey{Script: toUpdate, Device: ctx.Index},
		toUpdate, size, layout.Widgets, ctx.Device.MemoryLayout(), group,
	)

	if err := ctx.Device.Update(buf.Bytes()); err != nil {
		return err
	}

	if newUpdate {
		ctx.timeRemaining = layout.DurationMS
	}
	ctx.lastPriority = toUpdate
	ctx.state = renderer.LayoutState(group.States())

	return nil
}

func testPredicate(p Predicate) bool {
	if p == nil {
		return true
	}
	return p()
}
