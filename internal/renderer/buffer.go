// Package renderer rasterises widgets into device framebuffers and
// drives the per-layout animation state machine, grounded in
// original_source's renderer/{buffer,animation,animation_group,
// renderer}.rs.
package renderer

// Size is a pixel extent, shared by widgets, devices, and images.
type Size struct {
	Width, Height int
}

// Point is an integer pixel coordinate; it may be negative to allow
// off-screen clipping per spec.md §3.
type Point struct {
	X, Y int
}

// Rect is a widget's drawing bound: position plus size.
type Rect struct {
	Position Point
	Size     Size
}

// Modifiers are the per-widget drawing flags from spec.md §3.
type Modifiers struct {
	ClearBackground bool
	FlipHorizontal  bool
	FlipVertical    bool
	Negative        bool
}

// MemoryLayout selects the device's pixel packing (spec.md §4.4).
type MemoryLayout int

const (
	BitPerPixel MemoryLayout = iota
	BitPerPixelVertical
	BytePerPixel
)

// Buffer is the polarity-agnostic framebuffer surface that widgets
// draw into; set/reset operate in device-local (x,y) within a widget's
// rectangle, with flips and negation applied uniformly regardless of
// the underlying packing (mirrors buffer.rs's Buffer wrapping a
// BufferTrait implementation).
type Buffer struct {
	impl bufferImpl
}

// bufferImpl is the per-layout packing strategy; buffer.rs's
// BufferTrait.
type bufferImpl interface {
	width() int
	height() int
	bytes() []byte
	rowStride() int
	get(x, y int) bool
	set(x, y int)
	reset(x, y int)
}

// NewBuffer allocates a Buffer for the given size and memory layout.
func NewBuffer(size Size, layout MemoryLayout) *Buffer {
	switch layout {
	case BitPerPixel:
		return &Buffer{impl: newBitBuffer(size)}
	case BitPerPixelVertical:
		return &Buffer{impl: newBitBufferVertical(size)}
	default:
		return &Buffer{impl: newByteBuffer(size)}
	}
}

// Bytes returns the packed framebuffer ready to write to a device.
func (b *Buffer) Bytes() []byte { return b.impl.bytes() }

// Rows returns the framebuffer split into row-stride chunks.
func (b *Buffer) Rows() [][]byte {
	data := b.impl.bytes()
	stride := b.impl.rowStride()
	if stride == 0 {
		return nil
	}
	var rows [][]byte
	for off := 0; off < len(data); off += stride {
		end := off + stride
		if end > len(data) {
			end = len(data)
		}
		rows = append(rows, data[off:end])
	}
	return rows
}

// Get reports the current pixel state at (x,y); used by round-trip
// tests (spec.md §8).
func (b *Buffer) Get(x, y int) bool { return b.impl.get(x, y) }

// Set turns a pixel on, honouring the rectangle clip and modifiers.
func (b *Buffer) Set(x, y int, area Rect, mods Modifiers) {
	b.setValue(true, x, y, area, mods)
}

// Reset turns a pixel off, honouring the rectangle clip and modifiers.
func (b *Buffer) Reset(x, y int, area Rect, mods Modifiers) {
	b.setValue(false, x, y, area, mods)
}

func (b *Buffer) setValue(value bool, x, y int, area Rect, mods Modifiers) {
	px, py, ok := b.translate(x, y, area, mods)
	if !ok {
		return
	}
	if value != mods.Negative {
		b.impl.set(px, py)
	} else {
		b.impl.reset(px, py)
	}
}

// translate maps a widget-local (x,y) into buffer-absolute coordinates,
// applying flips and the out-of-rect clip exactly as buffer.rs's
// Buffer::translate does.
func (b *Buffer) translate(x, y int, area Rect, mods Modifiers) (int, int, bool) {
	if mods.FlipVertical {
		y = area.Size.Height - 1 - y
	}
	if mods.FlipHorizontal {
		x = area.Size.Width - 1 - x
	}
	if x < 0 || y < 0 || x >= area.Size.Width || y >= area.Size.Height {
		return 0, 0, false
	}

	ax, ay := area.Position.X+x, area.Position.Y+y
	if ax < 0 || ay < 0 || ax >= b.impl.width() || ay >= b.impl.height() {
		return 0, 0, false
	}
	return ax, ay, true
}

// byteBuffer stores one byte (0x00/0xFF) per pixel (spec.md §4.4,
// "BytePerPixel").
type byteBuffer struct {
	width, height int
	data          []byte
}

func newByteBuffer(size Size) *byteBuffer {
	return &byteBuffer{width: size.Width, height: size.Height, data: make([]byte, size.Width*size.Height)}
}

func (b *byteBuffer) width() int     { return b.width }
func (b *byteBuffer) height() int    { return b.height }
func (b *byteBuffer) bytes() []byte  { return b.data }
func (b *byteBuffer) rowStride() int { return b.width }

func (b *byteBuffer) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, false
	}
	return y*b.width + x, true
}

func (b *byteBuffer) get(x, y int) bool {
	i, ok := b.index(x, y)
	return ok && b.data[i] > 0
}

func (b *byteBuffer) set(x, y int) {
	if i, ok := b.index(x, y); ok {
		b.data[i] = 0xFF
	}
}

func (b *byteBuffer) reset(x, y int) {
	if i, ok := b.index(x, y); ok {
		b.data[i] = 0x00
	}
}

// bitBuffer packs 8 pixels per byte, MSB-first, row-major, each row
// padded to a whole byte width (spec.md §4.4, "BitPerPixel").
type bitBuffer struct {
	width, height int
	paddedWidth   int
	data          []byte
}

func newBitBuffer(size Size) *bitBuffer {
	oversize := size.Width % 8
	padding := 0
	if oversize != 0 {
		padding = 8 - oversize
	}
	paddedWidth := size.Width + padding
	return &bitBuffer{
		width:       size.Width,
		height:      size.Height,
		paddedWidth: paddedWidth,
		data:        make([]byte, size.Height*paddedWidth/8),
	}
}

func (b *bitBuffer) width() int     { return b.width }
func (b *bitBuffer) height() int    { return b.height }
func (b *bitBuffer) bytes() []byte  { return b.data }
func (b *bitBuffer) rowStride() int { return b.paddedWidth / 8 }

func (b *bitBuffer) bitAt(x, y int) (int, uint, bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, 0, false
	}
	index := (y*b.paddedWidth + x) / 8
	shift := uint(7 - x%8)
	return index, shift, true
}

func (b *bitBuffer) get(x, y int) bool {
	i, shift, ok := b.bitAt(x, y)
	if !ok {
		return false
	}
	return b.data[i]&(1<<shift) != 0
}

func (b *bitBuffer) set(x, y int) {
	if i, shift, ok := b.bitAt(x, y); ok {
		b.data[i] |= 1 << shift
	}
}

func (b *bitBuffer) reset(x, y int) {
	if i, shift, ok := b.bitAt(x, y); ok {
		b.data[i] &^= 1 << shift
	}
}

// bitBufferVertical packs bit b of byte B to pixel (x, y=B*8+b), the
// BitPerPixelVertical layout spec.md §4.4 requires in addition to the
// two layouts present in original_source's older buffer.rs snapshot.
type bitBufferVertical struct {
	width, height  int
	paddedHeight   int
	data           []byte
}

func newBitBufferVertical(size Size) *bitBufferVertical {
	oversize := size.Height % 8
	padding := 0
	if oversize != 0 {
		padding = 8 - oversize
	}
	paddedHeight := size.Height + padding
	return &bitBufferVertical{
		width:        size.Width,
		height:       size.Height,
		paddedHeight: paddedHeight,
		data:         make([]byte, size.Width*paddedHeight/8),
	}
}

func (b *bitBufferVertical) width() int     { return b.width }
func (b *bitBufferVertical) height() int    { return b.height }
func (b *bitBufferVertical) bytes() []byte  { return b.data }
func (b *bitBufferVertical) rowStride() int { return b.width }

func (b *bitBufferVertical) bitAt(x, y int) (int, uint, bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, 0, false
	}
	byteRow := y / 8
	bit := uint(y % 8)
	index := byteRow*b.width + x
	return index, bit, true
}

func (b *bitBufferVertical) get(x, y int) bool {
	i, bit, ok := b.bitAt(x, y)
	if !ok {
		return false
	}
	return b.data[i]&(1<<bit) != 0
}

func (b *bitBufferVertical) set(x, y int) {
	if i, bit, ok := b.bitAt(x, y); ok {
		b.data[i] |= 1 << bit
	}
}

func (b *bitBufferVertical) reset(x, y int) {
	if i, bit, ok := b.bitAt(x, y); ok {
		b.data[i] &^= 1 << bit
	}
}
