package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniled/omniled/internal/renderer"
)

// fakeDevice is a minimal devices.Device recording every frame it is
// handed, standing in for a real backend in scheduler unit tests.
type fakeDevice struct {
	w, h   int
	layout renderer.MemoryLayout
	writes int
}

func (d *fakeDevice) Width() int                          { return d.w }
func (d *fakeDevice) Height() int                         { return d.h }
func (d *fakeDevice) MemoryLayout() renderer.MemoryLayout { return d.layout }
func (d *fakeDevice) Name() string                        { return "fake" }
func (d *fakeDevice) Update(buf []byte) error             { d.writes++; return nil }
func (d *fakeDevice) Close() error                        { return nil }

func newTestRenderer() *renderer.Renderer {
	// No Text widgets are used in these scheduling tests, so a font
	// manager with no parsed font (nil on error) is never dereferenced.
	fonts, _ := renderer.NewFontManager(nil)
	return renderer.NewRenderer(fonts, renderer.NewImageCache(), renderer.ScrollingTextSettings{TicksAtEdge: 8, TicksPerMove: 2})
}

// Scenario 1 from spec.md §8: a single layout that fires every tick
// keeps re-selecting itself and resets its dwell window each time.
func TestDeviceContextClockTick(t *testing.T) {
	dev := &fakeDevice{w: 32, h: 8}
	r := newTestRenderer()

	layout := Layout{
		RunOn: map[string]bool{"CLOCK.seconds": true},
		Run: func() renderer.LayoutData {
			return renderer.LayoutData{DurationMS: 5000}
		},
	}
	ctx := NewDeviceContext(0, "kbd", dev, []Layout{layout}, r)

	for i := 0; i < 3; i++ {
		ctx.MarkDirty("CLOCK.seconds")
		require.NoError(t, ctx.Tick(1000))
	}

	assert.Equal(t, 3, dev.writes)
	assert.Equal(t, 5000, ctx.timeRemaining)
	assert.Equal(t, 0, ctx.lastPriority)
}

// Scenario 2 from spec.md §8: a higher-priority (lower index) layout
// pre-empts a currently-dwelling lower-priority layout. Once the
// higher-priority layout's dwell window has elapsed, its (Finished,
// no-animation) state permits no further repeats, and the pre-empted
// layout is not resumed until it is marked dirty again.
func TestDeviceContextPriorityPreemption(t *testing.T) {
	dev := &fakeDevice{w: 32, h: 8}
	r := newTestRenderer()

	layoutA := Layout{
		RunOn: map[string]bool{"A": true},
		Run: func() renderer.LayoutData {
			return renderer.LayoutData{DurationMS: 200}
		},
	}
	layoutB := Layout{
		RunOn: map[string]bool{"B": true},
		Run: func() renderer.LayoutData {
			return renderer.LayoutData{DurationMS: 1000}
		},
	}
	ctx := NewDeviceContext(0, "panel", dev, []Layout{layoutA, layoutB}, r)

	// tick 0: B selected.
	ctx.MarkDirty("B")
	require.NoError(t, ctx.Tick(100))
	assert.Equal(t, 1, ctx.lastPriority)
	assert.Equal(t, 1, dev.writes)

	// tick 1: A pre-empts B immediately (higher priority, dirty+predicate).
	ctx.MarkDirty("A")
	require.NoError(t, ctx.Tick(100))
	assert.Equal(t, 0, ctx.lastPriority)
	assert.Equal(t, 2, dev.writes)
	assert.Equal(t, 200, ctx.timeRemaining)

	// tick 2: A's 200ms dwell has not yet elapsed (100ms remains); B
	// cannot be considered because last_priority(0) < priority(1) and
	// time is still remaining.
	require.NoError(t, ctx.Tick(100))
	assert.Equal(t, 2, dev.writes)

	// tick 3: A's dwell has fully elapsed (time_remaining reaches 0);
	// A itself has no animation so it does not repeat, and B is not
	// re-selected since it is neither dirty nor the last-rendered
	// priority — the device goes idle until B fires again.
	require.NoError(t, ctx.Tick(100))
	assert.Equal(t, 2, dev.writes)
}

func TestDeviceContextReset(t *testing.T) {
	dev := &fakeDevice{w: 16, h: 8}
	r := newTestRenderer()
	layout := Layout{RunOn: map[string]bool{"X": true}, Run: func() renderer.LayoutData {
		return renderer.LayoutData{DurationMS: 500}
	}}
	ctx := NewDeviceContext(0, "d", dev, []Layout{layout}, r)

	ctx.MarkDirty("X")
	require.NoError(t, ctx.Tick(10))
	assert.Equal(t, 500, ctx.timeRemaining)

	ctx.Reset()
	assert.Equal(t, 0, ctx.timeRemaining)
	assert.Equal(t, 0, ctx.lastPriority)
	assert.Equal(t, renderer.StateFinished, ctx.state)
}
