package renderer

import (
	"image"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Bitmap is a rasterised glyph: a 1-bit-per-pixel mask with its
// advance metrics, cached per (character, font size) by FontManager
// (spec.md §2, "Font manager").
type Bitmap struct {
	Rows, Cols       int
	OffsetX, OffsetY int
	bits             []bool
}

// Get reports whether the pixel at (x,y) within the glyph mask is set.
func (b *Bitmap) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Cols || y >= b.Rows {
		return false
	}
	return b.bits[y*b.Cols+x]
}

// Metrics carries the horizontal advance for cursor placement.
type Metrics struct {
	Advance int
}

// Character bundles a rasterised glyph with its layout metrics.
type Character struct {
	Bitmap  Bitmap
	Metrics Metrics
}

type glyphKey struct {
	char rune
	size int
}

// FontManager rasterises glyphs on demand from an embedded sfnt.Font
// and caches them by (character, size), grounded in
// original_source's renderer/font_manager.rs via golang.org/x/image's
// sfnt/vector stack (the Go ecosystem's direct analogue of the
// original's font-kit based rasteriser).
type FontManager struct {
	mu     sync.Mutex
	font   *sfnt.Font
	buf    sfnt.Buffer
	cache  map[glyphKey]*Character
}

// NewFontManager builds a manager from raw TrueType/OpenType bytes
// (the selected FontSelector, §6, resolved by internal/config).
func NewFontManager(fontData []byte) (*FontManager, error) {
	f, err := sfnt.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return &FontManager{font: f, cache: make(map[glyphKey]*Character)}, nil
}

// GetCharacter returns the rasterised glyph for ch at the given pixel
// size, rasterising and caching it on first use.
func (fm *FontManager) GetCharacter(ch rune, size int) *Character {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	key := glyphKey{char: ch, size: size}
	if c, ok := fm.cache[key]; ok {
		return c
	}

	c := fm.rasterize(ch, size)
	fm.cache[key] = c
	return c
}

func (fm *FontManager) rasterize(ch rune, size int) *Character {
	ppem := fixed.I(size)

	gi, err := fm.font.GlyphIndex(&fm.buf, ch)
	if err != nil || gi == 0 {
		return &Character{Metrics: Metrics{Advance: size / 2}}
	}

	advance, err := fm.font.GlyphAdvance(&fm.buf, gi, ppem, 0)
	if err != nil {
		advance = ppem / 2
	}

	segs, err := fm.font.LoadGlyph(&fm.buf, gi, ppem, nil)
	if err != nil {
		return &Character{Metrics: Metrics{Advance: advance.Round()}}
	}

	rast := vector.NewRasterizer(size, size)
	var cur fixed.Point26_6
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			cur = seg.Args[0]
			rast.MoveTo(f32(cur.X), f32(cur.Y))
		case sfnt.SegmentOpLineTo:
			cur = seg.Args[0]
			rast.LineTo(f32(cur.X), f32(cur.Y))
		case sfnt.SegmentOpQuadTo:
			rast.QuadTo(f32(seg.Args[0].X), f32(seg.Args[0].Y), f32(seg.Args[1].X), f32(seg.Args[1].Y))
			cur = seg.Args[1]
		case sfnt.SegmentOpCubeTo:
			rast.CubeTo(
				f32(seg.Args[0].X), f32(seg.Args[0].Y),
				f32(seg.Args[1].X), f32(seg.Args[1].Y),
				f32(seg.Args[2].X), f32(seg.Args[2].Y),
			)
			cur = seg.Args[2]
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	bits := make([]bool, size*size)
	for i, v := range mask.Pix {
		bits[i] = v >= 128
	}

	return &Character{
		Bitmap: Bitmap{Rows: size, Cols: size, bits: bits},
		Metrics: Metrics{Advance: advance.Round()},
	}
}

func f32(x fixed.Int26_6) float32 { return float32(x) / 64 }

// GetFontSize derives a font size from a rectangle height per
// spec.md §4.4: auto-full uses the full ascender-descender scale,
// auto-upper uses the ascender-only scale. In the absence of exact
// font metrics tables this uses the conventional cap-height
// approximation (upper ~= 0.72 * full), matching the ratio the
// original's font_manager.rs derives from FreeType metrics.
func (fm *FontManager) GetFontSize(height int, mode FontSizeMode) int {
	if mode == FontSizeAutoUpper {
		return (height * 100) / 72
	}
	return height
}

// GetOffset returns the vertical baseline offset for a font size and
// mode (spec.md §4.4).
func (fm *FontManager) GetOffset(size int, mode FontSizeMode) int {
	if mode == FontSizeAutoUpper {
		return 0
	}
	return size / 5
}

