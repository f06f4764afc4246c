package devices

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/renderer"
)

var simLog = logging.For("devices.simulator")

// SimulatorSettings configures the windowed simulator backend (spec.md
// §4.5, "Simulator backend"), grounded in the teacher's
// video_backend_ebiten.go EbitenOutput.
type SimulatorSettings struct {
	Name      string
	Width     int
	Height    int
	Layout    renderer.MemoryLayout
	Scale     int
	Transform Transform
}

// binarySemaphore is a 1-slot handoff channel: Post is non-blocking and
// drops the token if the slot is already full, matching spec.md §5's
// data_ready/reader_ready pair used to let the main thread skip a
// presentation rather than block on a lagging presenter.
type binarySemaphore chan struct{}

func newBinarySemaphore() binarySemaphore { return make(binarySemaphore, 1) }

func (s binarySemaphore) post() (posted bool) {
	select {
	case s <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s binarySemaphore) tryWait() (acquired bool) {
	select {
	case <-s:
		return true
	default:
		return false
	}
}

// SimulatorDevice opens an ebiten window sized to the device and
// presents frames handed off from the main loop without blocking it,
// grounded in the teacher's EbitenOutput (frameBuffer + mutex + vsync
// handshake) generalised to a two-semaphore skip-on-lag handoff per
// spec.md §5.
type SimulatorDevice struct {
	settings SimulatorSettings

	mu     sync.Mutex
	latest []byte // 1 bit per pixel, MSB-first row-packed, as negotiated

	dataReady   binarySemaphore
	readerReady binarySemaphore

	game    *simulatorGame
	started bool
}

// OpenSimulator creates the backend and launches the ebiten run loop on
// its own goroutine, matching EbitenOutput.Start's go func() { ebiten.
// RunGame(...) }() pattern.
func OpenSimulator(settings SimulatorSettings) (*SimulatorDevice, error) {
	scale := settings.Scale
	if scale < 1 {
		scale = 1
	}

	d := &SimulatorDevice{
		settings:    settings,
		dataReady:   newBinarySemaphore(),
		readerReady: newBinarySemaphore(),
	}
	d.readerReady.post()

	d.game = &simulatorGame{owner: d, scale: scale}

	ebiten.SetWindowSize(settings.Width*scale, settings.Height*scale)
	ebiten.SetWindowTitle(fmt.Sprintf("OmniLED — %s", settings.Name))
	ebiten.SetWindowResizable(false)
	ebiten.SetRunnableOnUnfocused(true)

	go func() {
		if err := ebiten.RunGame(d.game); err != nil {
			simLog.Error("simulator window terminated", "device", settings.Name, "err", err)
		}
	}()
	d.started = true

	return d, nil
}

func (d *SimulatorDevice) Width() int                         { return d.settings.Width }
func (d *SimulatorDevice) Height() int                        { return d.settings.Height }
func (d *SimulatorDevice) MemoryLayout() renderer.MemoryLayout { return d.settings.Layout }
func (d *SimulatorDevice) Name() string                       { return d.settings.Name }

// Update hands a frame off to the presenter goroutine. If the
// presenter hasn't consumed the previous frame yet (reader_ready has
// no token), the new frame is dropped rather than blocking the main
// loop, exactly the skip-on-lag policy from spec.md §5.
func (d *SimulatorDevice) Update(buf []byte) error {
	frame := buf
	if d.settings.Transform != nil {
		frame = d.settings.Transform(frame)
	}

	if !d.readerReady.tryWait() {
		simLog.Debug("presenter lagging, skipping frame", "device", d.settings.Name)
		return nil
	}

	d.mu.Lock()
	d.latest = append(d.latest[:0], frame...)
	d.mu.Unlock()

	d.dataReady.post()
	return nil
}

func (d *SimulatorDevice) Close() error {
	if d.game != nil {
		d.game.stopped.Store(true)
	}
	return nil
}

// consumeFrame is called from the ebiten Draw callback (the
// presenter). It claims the latest frame if one is ready, converts it
// to ARGB, and re-arms reader_ready for the next handoff.
func (d *SimulatorDevice) consumeFrame() ([]byte, bool) {
	if !d.dataReady.tryWait() {
		return nil, false
	}

	d.mu.Lock()
	frame := append([]byte(nil), d.latest...)
	d.mu.Unlock()

	d.readerReady.post()
	return frame, true
}

// simulatorGame implements ebiten.Game, translated from the teacher's
// EbitenOutput's Update/Draw/Layout trio.
type simulatorGame struct {
	owner   *SimulatorDevice
	scale   int
	image   *ebiten.Image
	stopped atomic.Bool
}

func (g *simulatorGame) Update() error {
	if g.stopped.Load() || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	return nil
}

func (g *simulatorGame) Draw(screen *ebiten.Image) {
	w, h := g.owner.settings.Width, g.owner.settings.Height
	if g.image == nil {
		g.image = ebiten.NewImage(w, h)
	}

	if frame, ok := g.owner.consumeFrame(); ok {
		argb, err := frameToARGB(frame, w, h, g.owner.settings.Layout)
		if err != nil {
			simLog.Warn("failed to convert frame", "device", g.owner.settings.Name, "err", err)
		} else {
			g.image.WritePixels(argb)
		}
	}

	op := &ebiten.DrawImageOptions{}
	if g.scale != 1 {
		op.GeoM.Scale(float64(g.scale), float64(g.scale))
	}
	screen.DrawImage(g.image, op)
}

func (g *simulatorGame) Layout(_, _ int) (int, int) {
	return g.owner.settings.Width * g.scale, g.owner.settings.Height * g.scale
}

// frameToARGB expands a 1-bit-per-pixel framebuffer into the 4-byte
// RGBA pixels WritePixels expects, matching spec.md §4.5's "converts
// the 1-bit framebuffer to ARGB" description. Set pixels render white
// on black, matching a monochrome OLED's on-pixel convention.
func frameToARGB(frame []byte, width, height int, layout renderer.MemoryLayout) ([]byte, error) {
	out := make([]byte, width*height*4)

	get := func(x, y int) bool {
		switch layout {
		case renderer.BitPerPixelVertical:
			byteIndex := (y/8)*width + x
			bit := uint(y % 8)
			if byteIndex >= len(frame) {
				return false
			}
			return frame[byteIndex]&(1<<bit) != 0
		case renderer.BytePerPixel:
			idx := y*width + x
			if idx >= len(frame) {
				return false
			}
			return frame[idx] != 0
		default: // BitPerPixel
			paddedWidth := width + (8-width%8)%8
			rowStride := paddedWidth / 8
			byteIndex := y*rowStride + x/8
			bit := uint(7 - x%8)
			if byteIndex >= len(frame) {
				return false
			}
			return frame[byteIndex]&(1<<bit) != 0
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v byte
			if get(x, y) {
				v = 0xFF
			}
			idx := (y*width + x) * 4
			out[idx], out[idx+1], out[idx+2], out[idx+3] = v, v, v, 0xFF
		}
	}
	return out, nil
}
