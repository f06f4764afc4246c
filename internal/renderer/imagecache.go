package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// imageCacheKey is (hash, output-size, threshold) per spec.md §3,
// "Image entry".
type imageCacheKey struct {
	hash      uint64
	size      Size
	threshold uint8
}

// ImageCache decodes, resizes, and thresholds source images into
// per-frame bit buffers, keyed so repeated widgets referencing the
// same (hash, size, threshold) reuse the decoded result (spec.md §2,
// "Image cache").
type ImageCache struct {
	mu    sync.Mutex
	cache map[imageCacheKey]DecodedImage
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{cache: make(map[imageCacheKey]DecodedImage)}
}

// Resolve returns the decoded, resized, thresholded frame sequence for
// the given source bytes, creating and caching it on first use.
// Animated is honoured only for formats that carry multiple frames
// (GIF); other formats always yield a single-frame sequence.
func (c *ImageCache) Resolve(hash uint64, data []byte, size Size, threshold uint8, animated bool) (DecodedImage, error) {
	key := imageCacheKey{hash: hash, size: size, threshold: threshold}

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	frames, err := decodeFrames(data, animated)
	if err != nil {
		return DecodedImage{}, err
	}

	decoded := DecodedImage{Size: size}
	for _, frame := range frames {
		decoded.Frames = append(decoded.Frames, thresholdToBuffer(frame, size, threshold))
	}

	c.mu.Lock()
	c.cache[key] = decoded
	c.mu.Unlock()
	return decoded, nil
}

func decodeFrames(data []byte, animated bool) ([]image.Image, error) {
	if animated {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil {
			frames := make([]image.Image, len(g.Image))
			for i, f := range g.Image {
				frames[i] = f
			}
			return frames, nil
		}
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return []image.Image{img}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return []image.Image{img}, nil
}

// thresholdToBuffer resizes a decoded frame with nearest-neighbour
// interpolation, converts to luminance, and thresholds each pixel into
// a 1-bit buffer (spec.md §4.4, "Image").
func thresholdToBuffer(img image.Image, size Size, threshold uint8) *Buffer {
	resized := imaging.Resize(img, size.Width, size.Height, imaging.NearestNeighbor)
	buf := NewBuffer(size, BitPerPixel)
	rect := Rect{Size: size}

	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			gray := color.GrayModel.Convert(resized.At(x, y)).(color.Gray)
			if gray.Y >= threshold {
				buf.Set(x, y, rect, Modifiers{})
			}
		}
	}
	return buf
}
