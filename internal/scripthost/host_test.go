package scripthost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniled/omniled/internal/devices"
	"github.com/omniled/omniled/internal/dispatcher"
	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/scheduler"
	"github.com/omniled/omniled/internal/shortcuts"
	"github.com/omniled/omniled/internal/wire"
)

type fakeDevice struct {
	name   string
	frames [][]byte
}

func (d *fakeDevice) Width() int                        { return 8 }
func (d *fakeDevice) Height() int                        { return 8 }
func (d *fakeDevice) MemoryLayout() renderer.MemoryLayout { return renderer.BitPerPixel }
func (d *fakeDevice) Name() string                        { return d.name }
func (d *fakeDevice) Update(buf []byte) error {
	d.frames = append(d.frames, buf)
	return nil
}
func (d *fakeDevice) Close() error { return nil }

type fakeCatalog struct {
	devices map[string]devices.Device
	loaded  map[string]bool
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{devices: map[string]devices.Device{}, loaded: map[string]bool{}}
	for _, n := range names {
		c.devices[n] = &fakeDevice{name: n}
	}
	return c
}

func (c *fakeCatalog) Status(name string) (scheduler.DeviceStatus, bool) {
	_, ok := c.devices[name]
	if !ok {
		return scheduler.DeviceAvailable, false
	}
	if c.loaded[name] {
		return scheduler.DeviceLoaded, true
	}
	return scheduler.DeviceAvailable, true
}

func (c *fakeCatalog) Load(name string) (devices.Device, error) {
	d, ok := c.devices[name]
	if !ok {
		return nil, errors.New("unknown device")
	}
	c.loaded[name] = true
	return d, nil
}

func newTestHost(t *testing.T, catalog scheduler.DeviceCatalog) *Host {
	t.Helper()
	// No layout in these tests calls Tick/Render, so a nil font manager
	// (never dereferenced) is fine; building a real one needs embedded
	// font bytes that belong to internal/config, not this package.
	r := renderer.NewRenderer(nil, renderer.NewImageCache(), renderer.ScrollingTextSettings{TicksAtEdge: 2, TicksPerMove: 1})
	h := New(
		dispatcher.New(),
		scheduler.NewRegistry(),
		catalog,
		shortcuts.New(2, 2),
		r,
		renderer.NewImageCache(),
		Platform{OS: "linux", ServerPort: 4},
		AnimationDefaults{Delay: 8, Rate: 2},
	)
	t.Cleanup(h.Close)
	return h
}

func TestPlatformAndLogGlobals(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())
	err := h.LoadString(`
		assert(PLATFORM.Os == "linux")
		assert(PLATFORM.Server.port == 4)
		LOG.Info("hello from script")
	`)
	require.NoError(t, err)
}

func TestWidgetConstructors(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())
	err := h.LoadString(`
		bar = BAR{value=50, range={min=0,max=100}, size={width=8,height=8}}
		text = TEXT{text="hi", size={width=8,height=8}}
	`)
	require.NoError(t, err)
}

func TestPredicateAlwaysNeverTimes(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())
	err := h.LoadString(`
		t = PREDICATE.Times(2)
		assert(t() == true)
		assert(t() == true)
		assert(t() == false)
	`)
	require.NoError(t, err)
}

func TestEventsAndTrigger(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())
	err := h.LoadString(`
		fired = 0
		EVENTS.register({"A", "B"}, function() fired = fired + 1 end)
	`)
	require.NoError(t, err)

	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "A", ScriptValue: int64(1)})
	require.NoError(t, h.LoadString(`assert(fired == 0)`))

	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "B", ScriptValue: int64(1)})
	require.NoError(t, h.LoadString(`assert(fired == 1)`))

	// Without an update() tick, firing again for the same tick is suppressed.
	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "A", ScriptValue: int64(1)})
	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "B", ScriptValue: int64(1)})
	require.NoError(t, h.LoadString(`assert(fired == 1)`))

	h.Tick()
	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "A", ScriptValue: int64(1)})
	h.Dispatch.Dispatch(eventqueue.Event{Kind: eventqueue.KindScript, ScriptName: "B", ScriptValue: int64(1)})
	require.NoError(t, h.LoadString(`assert(fired == 2)`))
}

func TestScreenBuilderRegistersDevice(t *testing.T) {
	catalog := newFakeCatalog("main")
	h := newTestHost(t, catalog)

	err := h.LoadString(`
		ScreenBuilder.new("main")
			:with_layout{
				layout = function()
					return {widgets = {}, duration = 10}
				end,
				run_on = {"TICK"},
			}
			:register()
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{"main"}, h.Registry.Names())
}

func TestScreenBuilderRejectsUnknownDevice(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())
	err := h.LoadString(`ScreenBuilder.new("missing")`)
	require.Error(t, err)
}

func TestHandleEventMergesStateTree(t *testing.T) {
	h := newTestHost(t, newFakeCatalog())

	h.HandleEvent(eventqueue.Event{
		Kind:    eventqueue.KindApplication,
		AppName: "CLOCK",
		AppFields: wire.Table{
			"hours":   wire.NewInt64(10),
			"minutes": wire.NewInt64(30),
		},
	})
	require.NoError(t, h.LoadString(`
		assert(STATE.CLOCK.hours == 10)
		assert(STATE.CLOCK.minutes == 30)
	`))

	// A partial update only overwrites the fields it mentions.
	h.HandleEvent(eventqueue.Event{
		Kind:      eventqueue.KindApplication,
		AppName:   "CLOCK",
		AppFields: wire.Table{"minutes": wire.NewInt64(31)},
	})
	require.NoError(t, h.LoadString(`
		assert(STATE.CLOCK.hours == 10)
		assert(STATE.CLOCK.minutes == 31)
	`))

	// An explicit-None field clears the sub-key rather than leaving it.
	h.HandleEvent(eventqueue.Event{
		Kind:      eventqueue.KindApplication,
		AppName:   "CLOCK",
		AppFields: wire.Table{"minutes": wire.NewExplicitNone()},
	})
	require.NoError(t, h.LoadString(`
		assert(STATE.CLOCK.hours == 10)
		assert(STATE.CLOCK.minutes == nil)
	`))
}
