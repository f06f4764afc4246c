package renderer

import (
	"hash/fnv"
	"sync"
)

// ContextKey identifies a (script-layout, device) pair for scrolling
// text state and animation-group lookups, grounded in
// original_source's renderer/renderer.rs ContextKey.
type ContextKey struct {
	Script int
	Device int
}

// Renderer composes a widget list into a framebuffer and drives the
// per-layout scrolling-text and animation-group lifecycle, grounded in
// original_source's renderer/renderer.rs.
type Renderer struct {
	fonts           *FontManager
	images          *ImageCache
	scrollingText   *scrollingTextData
	scrollSettings  ScrollingTextSettings
	groups          map[groupKey]*AnimationGroup
	groupsMu        sync.Mutex
}

// ScrollingTextSettings configures the scrolling-text cadence. It is
// not read from settings: internal/config passes fixed values (8 ticks
// at each edge, 2 ticks per move).
type ScrollingTextSettings struct {
	TicksAtEdge  int
	TicksPerMove int
}

type groupKey struct {
	ctx      ContextKey
	priority int
}

// NewRenderer builds a Renderer bound to a font manager and image
// cache, and the scrolling-text cadence supplied by the caller.
func NewRenderer(fonts *FontManager, images *ImageCache, settings ScrollingTextSettings) *Renderer {
	return &Renderer{
		fonts:          fonts,
		images:         images,
		scrollingText:  newScrollingTextData(),
		scrollSettings: settings,
		groups:         make(map[groupKey]*AnimationGroup),
	}
}

// GroupFor returns the per-(context, priority) animation group,
// creating it (with the requested sync mode) on first use. Spec.md §3
// invariant: every (device, priority) pair has exactly one animation
// group.
func (r *Renderer) GroupFor(ctx ContextKey, priority int, keepInSync bool) *AnimationGroup {
	key := groupKey{ctx: ctx, priority: priority}
	r.groupsMu.Lock()
	defer r.groupsMu.Unlock()
	g, ok := r.groups[key]
	if !ok {
		g = NewAnimationGroup(keepInSync)
		r.groups[key] = g
	}
	return g
}

// Render rasterises widgets into a buffer of the given size and
// memory layout, in order, driving each widget's contribution to the
// layout's animation group. It returns the buffer and whether the
// layout's scrolling text has reached a wrap-eligible state
// (end_auto_repeat in original_source's terms).
func (r *Renderer) Render(ctx ContextKey, priority int, size Size, widgets []Widget, layout MemoryLayout, group *AnimationGroup) (bool, *Buffer) {
	buf := NewBuffer(size, layout)

	group.PreSync()
	endAutoRepeat, offsets := r.precalculateText(ctx, widgets)
	offsetIdx := 0

	for _, w := range widgets {
		switch w.Kind {
		case WidgetBar:
			renderBar(buf, w.Bar)
		case WidgetImage:
			r.renderImage(buf, w.Image, group)
		case WidgetText:
			var offset int
			if offsetIdx < len(offsets) {
				offset = offsets[offsetIdx]
			}
			offsetIdx++
			r.renderText(buf, w.Text, offset)
		}
	}
	group.Sync()

	return endAutoRepeat, buf
}

func clearBackground(buf *Buffer, position Point, size Size, mods Modifiers) {
	rect := Rect{Position: position, Size: size}
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			buf.Reset(x, y, rect, mods)
		}
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func renderBar(buf *Buffer, w Bar) {
	if w.Modifiers.ClearBackground {
		clearBackground(buf, w.Position, w.Size, w.Modifiers)
	}

	value := clampF(w.Value, w.Range.Min, w.Range.Max)
	var percentage float64
	if w.Range.Max != w.Range.Min {
		percentage = (value - w.Range.Min) / (w.Range.Max - w.Range.Min)
	}

	var height, width int
	if w.Vertical {
		height = roundInt(float64(w.Size.Height) * percentage)
		width = w.Size.Width
	} else {
		height = w.Size.Height
		width = roundInt(float64(w.Size.Width) * percentage)
	}

	rect := Rect{Position: w.Position, Size: w.Size}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf.Set(x, y, rect, w.Modifiers)
		}
	}
}

func roundInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

func (r *Renderer) renderImage(buf *Buffer, w Image, group *AnimationGroup) {
	if w.Size.Width == 0 || w.Size.Height == 0 {
		return
	}
	if w.Modifiers.ClearBackground {
		clearBackground(buf, w.Position, w.Size, w.Modifiers)
	}

	frame := w.ImageRef.Frames[0]
	if len(w.ImageRef.Frames) > 1 {
		hash := w.widgetHash()
		anim := group.GetOrCreate(hash, func() *Animation {
			edge := w.Delay
			step := w.Rate
			return NewAnimation(edge, step, len(w.ImageRef.Frames), w.Repeats)
		})
		frame = w.ImageRef.Frames[anim.Step()]
	}

	xFactor := float64(w.ImageRef.Size.Width) / float64(w.Size.Width)
	yFactor := float64(w.ImageRef.Size.Height) / float64(w.Size.Height)

	rect := Rect{Position: w.Position, Size: w.Size}
	for y := 0; y < w.Size.Height; y++ {
		for x := 0; x < w.Size.Width; x++ {
			imgX := clampInt(roundInt(float64(x)*xFactor), 0, w.ImageRef.Size.Width-1)
			imgY := clampInt(roundInt(float64(y)*yFactor), 0, w.ImageRef.Size.Height-1)
			if frame.Get(imgX, imgY) {
				buf.Set(x, y, rect, w.Modifiers)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (w Image) widgetHash() uint64 {
	h := fnv.New64a()
	if w.AnimationGroup != "" {
		h.Write([]byte(w.AnimationGroup))
	} else {
		h.Write([]byte{byte(w.Position.X), byte(w.Position.Y), byte(w.Size.Width), byte(w.Size.Height)})
	}
	return h.Sum64()
}

func (r *Renderer) renderText(buf *Buffer, w Text, offset int) {
	if w.Modifiers.ClearBackground {
		clearBackground(buf, w.Position, w.Size, w.Modifiers)
	}

	runes := []rune(w.Text)
	if offset > len(runes) {
		offset = len(runes)
	}
	runes = runes[offset:]

	rect := Rect{Position: w.Position, Size: w.Size}

	fontSize := w.FontSize
	mode := w.FontSizeMode
	if fontSize == 0 {
		fontSize = r.fonts.GetFontSize(rect.Size.Height, mode)
	}
	textOffset := r.fonts.GetOffset(fontSize, mode)

	cursorX := 0
	cursorY := rect.Size.Height

	for _, ch := range runes {
		character := r.fonts.GetCharacter(ch, fontSize)
		bmp := &character.Bitmap

		for by := 0; by < bmp.Rows; by++ {
			for bx := 0; bx < bmp.Cols; bx++ {
				x := cursorX + bx + bmp.OffsetX
				y := cursorY + by - bmp.OffsetY - textOffset

				if x < 0 || y < 0 || x >= rect.Size.Width || y >= rect.Size.Height {
					continue
				}
				if bmp.Get(bx, by) {
					buf.Set(x, y, rect, w.Modifiers)
				}
			}
		}

		cursorX += character.Metrics.Advance
		if cursorX > rect.Size.Width {
			break
		}
	}
}

// precalculateText computes, for every Text widget in widgets, the
// character offset to draw at this tick, and whether the layout as a
// whole is eligible to wrap. Grounded in renderer.rs's
// precalculate_text/precalculate_single and its Context/Drop lifecycle,
// reimplemented as an explicit Begin/End pair since Go has no
// destructors.
func (r *Renderer) precalculateText(ctx ContextKey, widgets []Widget) (bool, []int) {
	tctx := r.scrollingText.begin(ctx)

	offsets := make([]int, 0, len(widgets))
	for _, w := range widgets {
		if w.Kind != WidgetText {
			continue
		}
		offsets = append(offsets, r.precalculateSingle(tctx, w.Text))
	}

	var canWrap bool
	if tctx.hasNewData() {
		canWrap = false
		for i := range offsets {
			offsets[i] = 0
		}
	} else {
		canWrap = tctx.canWrap()
	}

	tctx.end()
	return canWrap, offsets
}

func (r *Renderer) precalculateSingle(ctx *scrollingTextContext, w Text) int {
	if !w.Scrolling {
		return 0
	}

	fontSize := w.FontSize
	if fontSize == 0 {
		fontSize = r.fonts.GetFontSize(w.Size.Height, w.FontSizeMode)
	}
	textWidth := w.Size.Width
	charWidth := r.fonts.GetCharacter('a', fontSize).Metrics.Advance
	if charWidth < 1 {
		charWidth = 1
	}
	maxCharacters := textWidth / charWidth
	length := len([]rune(w.Text))
	tick := ctx.getTick(w.Text)

	settings := r.scrollSettings

	if length <= maxCharacters {
		ctx.setWrap(w.Text)
		return 0
	}

	maxShifts := length - maxCharacters
	maxTicks := 2*settings.TicksAtEdge + maxShifts*settings.TicksPerMove
	if tick >= maxTicks {
		ctx.setWrap(w.Text)
	}

	switch {
	case tick <= settings.TicksAtEdge:
		return 0
	case tick >= settings.TicksAtEdge+maxShifts*settings.TicksPerMove:
		return maxShifts
	default:
		return (tick - settings.TicksAtEdge) / settings.TicksPerMove
	}
}

// -- scrolling text bookkeeping, grounded in renderer.rs's
// ScrollingTextData/Context --

type textData struct {
	tick    int
	canWrap bool
	updated bool
}

type scrollingTextData struct {
	mu       sync.Mutex
	contexts map[ContextKey]map[string]*textData
}

func newScrollingTextData() *scrollingTextData {
	return &scrollingTextData{contexts: make(map[ContextKey]map[string]*textData)}
}

func (s *scrollingTextData) begin(key ContextKey) *scrollingTextContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.contexts[key]
	if !ok {
		m = make(map[string]*textData)
		s.contexts[key] = m
	}
	return &scrollingTextContext{data: m}
}

type scrollingTextContext struct {
	data    map[string]*textData
	newData bool
}

func (c *scrollingTextContext) getTick(key string) int {
	d, ok := c.data[key]
	if !ok {
		c.newData = true
		c.data[key] = &textData{tick: 0, updated: true}
		return 0
	}
	if !d.updated {
		d.tick++
		d.updated = true
	}
	return d.tick
}

func (c *scrollingTextContext) setWrap(key string) {
	if d, ok := c.data[key]; ok {
		d.canWrap = true
	}
}

func (c *scrollingTextContext) canWrap() bool {
	if c.newData {
		return true
	}
	for _, d := range c.data {
		if !d.canWrap {
			return false
		}
	}
	return true
}

func (c *scrollingTextContext) hasNewData() bool { return c.newData }

// end reproduces renderer.rs's Context::drop: prune stale entries if
// new data arrived, reset ticks if the context can wrap, and clear the
// per-tick accessed/wrap flags.
func (c *scrollingTextContext) end() {
	if c.newData {
		for k, d := range c.data {
			if !d.updated {
				delete(c.data, k)
			}
		}
	}

	if c.canWrap() {
		for _, d := range c.data {
			d.tick = 0
		}
	}

	for _, d := range c.data {
		d.canWrap = false
		d.updated = false
	}
}
