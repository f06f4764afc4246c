package scripthost

import (
	"hash/fnv"

	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/renderer"
)

// AnimationDefaults holds the Delay and Rate that fill an Image or Text
// widget's Delay/Rate when the script omits them, matching settings.rs's
// animation_ticks_delay/animation_ticks_rate (spec.md §6).
type AnimationDefaults struct {
	Delay int
	Rate  int
}

// registerWidgets installs the BAR/IMAGE/TEXT constructors. Each
// returns an *lua.LUserData wrapping a fully-built renderer.Widget:
// widgets are resolved to their final Go representation at
// construction time rather than round-tripped through Lua tables,
// since Image widgets must carry an already-decoded DecodedImage
// (spec.md §9, "the sandbox converts into that type once, and the
// renderer never touches script values again").
func (h *Host) registerWidgets() {
	h.L.SetGlobal("BAR", h.L.NewFunction(h.luaBar))
	h.L.SetGlobal("IMAGE", h.L.NewFunction(h.luaImage))
	h.L.SetGlobal("TEXT", h.L.NewFunction(h.luaText))
}

func parsePoint(t *lua.LTable) renderer.Point {
	return renderer.Point{X: optInt(t, "x", 0), Y: optInt(t, "y", 0)}
}

func parseSize(t *lua.LTable) renderer.Size {
	return renderer.Size{Width: optInt(t, "width", 0), Height: optInt(t, "height", 0)}
}

func parseModifiers(v lua.LValue) renderer.Modifiers {
	t, ok := v.(*lua.LTable)
	if !ok {
		return renderer.Modifiers{}
	}
	return renderer.Modifiers{
		ClearBackground: optBool(t, "clear_background", false),
		FlipHorizontal:  optBool(t, "flip_h", false),
		FlipVertical:    optBool(t, "flip_v", false),
		Negative:        optBool(t, "negative", false),
	}
}

func parseRepeat(t *lua.LTable, key string) renderer.Repeat {
	if s, ok := luaToString(t.RawGetString(key)); ok && s == "ForDuration" {
		return renderer.RepeatForDuration
	}
	return renderer.RepeatOnce
}

// asTable fetches a named sub-table field, or an empty table if it is
// absent, so every field parser can be called unconditionally.
func asTable(L *lua.LState, t *lua.LTable, key string) *lua.LTable {
	if sub, ok := t.RawGetString(key).(*lua.LTable); ok {
		return sub
	}
	return L.NewTable()
}

func (h *Host) luaBar(L *lua.LState) int {
	args := L.CheckTable(1)

	rangeT := asTable(L, args, "range")
	w := renderer.Widget{
		Kind: renderer.WidgetBar,
		Bar: renderer.Bar{
			Value: optFloat(args, "value", 0),
			Range: renderer.Range{
				Min: optFloat(rangeT, "min", 0),
				Max: optFloat(rangeT, "max", 100),
			},
			Vertical:  optBool(args, "vertical", false),
			Position:  parsePoint(asTable(L, args, "position")),
			Size:      parseSize(asTable(L, args, "size")),
			Modifiers: parseModifiers(args.RawGetString("modifiers")),
		},
	}
	L.Push(&lua.LUserData{Value: w})
	return 1
}

func (h *Host) luaImage(L *lua.LState) int {
	args := L.CheckTable(1)

	imageT := asTable(L, args, "image")
	format := optString(imageT, "format", "")
	data := bytesFromTable(imageT.RawGetString("bytes"))

	var imgHash uint64
	if hv, ok := imageT.RawGetString("hash").(lua.LNumber); ok {
		imgHash = uint64(hv)
	} else {
		hasher := fnv.New64a()
		hasher.Write(data)
		imgHash = hasher.Sum64()
	}

	animated := optBool(args, "animated", false)
	threshold := uint8(optInt(args, "threshold", 128))
	size := parseSize(asTable(L, args, "size"))

	decoded, err := h.Images.Resolve(imgHash, data, size, threshold, animated)
	if err != nil {
		log.Error("IMAGE: failed to decode", "format", format, "err", err)
		decoded = renderer.DecodedImage{Size: size, Frames: []*renderer.Buffer{renderer.NewBuffer(size, renderer.BitPerPixel)}}
	}

	delay := optInt(args, "delay", h.defaults.Delay)
	rate := optInt(args, "rate", h.defaults.Rate)

	w := renderer.Widget{
		Kind: renderer.WidgetImage,
		Image: renderer.Image{
			ImageRef:       decoded,
			Animated:       animated,
			Threshold:      threshold,
			Repeats:        parseRepeat(args, "repeats"),
			AnimationGroup: optString(args, "animation_group", ""),
			Delay:          delay,
			Rate:           rate,
			Position:       parsePoint(asTable(L, args, "position")),
			Size:           size,
			Modifiers:      parseModifiers(args.RawGetString("modifiers")),
		},
	}
	L.Push(&lua.LUserData{Value: w})
	return 1
}

func (h *Host) luaText(L *lua.LState) int {
	args := L.CheckTable(1)

	mode := renderer.FontSizeExplicit
	switch optString(args, "font_size_mode", "explicit") {
	case "auto_full":
		mode = renderer.FontSizeAutoFull
	case "auto_upper":
		mode = renderer.FontSizeAutoUpper
	}

	text := optString(args, "text", "")
	hasher := fnv.New64a()
	hasher.Write([]byte(text))

	w := renderer.Widget{
		Kind: renderer.WidgetText,
		Text: renderer.Text{
			Text:           text,
			FontSize:       optInt(args, "font_size", 0),
			FontSizeMode:   mode,
			Scrolling:      optBool(args, "scrolling", false),
			Repeats:        parseRepeat(args, "repeats"),
			AnimationGroup: optString(args, "animation_group", ""),
			Delay:          optInt(args, "delay", h.defaults.Delay),
			Rate:           optInt(args, "rate", h.defaults.Rate),
			Position:       parsePoint(asTable(L, args, "position")),
			Size:           parseSize(asTable(L, args, "size")),
			Hash:           hasher.Sum64(),
			Modifiers:      parseModifiers(args.RawGetString("modifiers")),
		},
	}
	L.Push(&lua.LUserData{Value: w})
	return 1
}

// bytesFromTable reads an array-of-byte-values Lua table (as produced
// by the RPC layer's image payload decoding) or an LString holding raw
// bytes, whichever the script supplied.
func bytesFromTable(v lua.LValue) []byte {
	switch val := v.(type) {
	case lua.LString:
		return []byte(val)
	case *lua.LTable:
		out := make([]byte, 0, val.Len())
		val.ForEach(func(_, item lua.LValue) {
			if n, ok := item.(lua.LNumber); ok {
				out = append(out, byte(n))
			}
		})
		return out
	default:
		return nil
	}
}

// widgetsFromTable converts a Lua array of BAR/IMAGE/TEXT results
// (lua.LUserData wrapping renderer.Widget) into a []renderer.Widget,
// preserving script order (spec.md §4.4, "Process widgets in order").
func widgetsFromTable(t *lua.LTable) []renderer.Widget {
	widgets := make([]renderer.Widget, 0, t.Len())
	t.ForEach(func(_, v lua.LValue) {
		if ud, ok := v.(*lua.LUserData); ok {
			if w, ok := ud.Value.(renderer.Widget); ok {
				widgets = append(widgets, w)
			}
		}
	})
	return widgets
}
