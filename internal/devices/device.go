// Package devices defines the uniform device contract (spec.md §4.5)
// and its concrete backends: HID, USB, cloud-engine, and a windowed
// simulator. Devices are opened once during script registration and
// closed at shutdown; they are driven exclusively from the main loop
// (spec.md §5).
package devices

import "github.com/omniled/omniled/internal/renderer"

// Device is the contract every backend implements, grounded in the
// teacher's VideoOutput interface (video_interface.go) generalised
// from a video sink to a monochrome display sink.
type Device interface {
	// Width and Height report the device's pixel size.
	Width() int
	Height() int

	// MemoryLayout reports the pixel packing this device expects.
	MemoryLayout() renderer.MemoryLayout

	// Name returns the device's configured name.
	Name() string

	// Update writes a fresh framebuffer matching the negotiated
	// layout. A transient failure should be returned as a
	// *errs.DeviceIOError; the caller retries on the next tick.
	Update(buf []byte) error

	// Close releases any resources the backend holds (USB interface
	// claims, HID handles, simulator windows).
	Close() error
}

// Transform is an optional per-frame script-supplied byte
// transformation, applied before a frame is handed to the physical
// transport (spec.md §4.5, HID and USB backends).
type Transform func(frame []byte) []byte
