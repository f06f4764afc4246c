package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullRect(size Size) Rect { return Rect{Size: size} }

// TestBufferSetGetRoundTrip exercises spec.md §8's round-trip property
// for every memory layout: set(x,y) then get(x,y) is true; reset(x,y)
// then get is false; other pixels are unaffected.
func TestBufferSetGetRoundTrip(t *testing.T) {
	for _, layout := range []MemoryLayout{BitPerPixel, BitPerPixelVertical, BytePerPixel} {
		size := Size{Width: 13, Height: 17}
		buf := NewBuffer(size, layout)
		rect := fullRect(size)

		buf.Set(5, 9, rect, Modifiers{})
		assert.True(t, buf.Get(5, 9), "layout %v", layout)
		assert.False(t, buf.Get(5, 8), "layout %v", layout)
		assert.False(t, buf.Get(4, 9), "layout %v", layout)

		buf.Reset(5, 9, rect, Modifiers{})
		assert.False(t, buf.Get(5, 9), "layout %v", layout)
	}
}

// TestBufferClipping confirms writes outside the rectangle leave the
// buffer unchanged (spec.md §8, "Buffer clipping").
func TestBufferClipping(t *testing.T) {
	size := Size{Width: 8, Height: 8}
	buf := NewBuffer(size, BytePerPixel)
	rect := Rect{Position: Point{X: 2, Y: 2}, Size: Size{Width: 4, Height: 4}}

	buf.Set(10, 10, rect, Modifiers{})
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.False(t, buf.Get(x, y))
		}
	}
}

// TestBufferNegativeModifier confirms the negative modifier inverts
// the set/reset operation per pixel (spec.md §4.4).
func TestBufferNegativeModifier(t *testing.T) {
	size := Size{Width: 8, Height: 8}
	buf := NewBuffer(size, BytePerPixel)
	rect := fullRect(size)

	buf.Set(3, 3, rect, Modifiers{Negative: true})
	assert.False(t, buf.Get(3, 3))

	buf.Reset(4, 4, rect, Modifiers{Negative: true})
	assert.True(t, buf.Get(4, 4))
}

func TestBitBufferPadding(t *testing.T) {
	buf := newBitBuffer(Size{Width: 5, Height: 1})
	assert.Equal(t, 8, buf.paddedWidth)
	assert.Equal(t, 1, len(buf.data))
}
