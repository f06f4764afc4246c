package devices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/omniled/omniled/internal/errs"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/renderer"
)

var cloudLog = logging.For("devices.cloud")

const (
	cloudGame            = "MBQ_OMNI_LED"
	cloudGameDisplayName = "OmniLED"
	cloudDeveloper       = "MBQ"
	cloudDeinitTimeoutMS = 60000
)

// CloudSettings configures the cloud-engine backend (spec.md §4.5,
// "Cloud-engine backend"), grounded in original_source's
// devices/steelseries_engine/{steelseries_engine_device,api}.rs.
type CloudSettings struct {
	Name      string
	Width     int
	Height    int
	Transform Transform

	// Client lets tests substitute the HTTP transport; nil uses
	// http.DefaultClient.
	Client *http.Client
}

// CloudDevice talks to a local game-integration daemon (SteelSeries
// Engine and compatible APIs) over a discovered loopback HTTP address,
// registering a per-size screen handler and posting one frame update
// per Update call. Grounded in steelseries_engine_device.rs's
// SteelSeriesEngineDevice plus its backing api.rs client.
type CloudDevice struct {
	settings CloudSettings

	mu      sync.Mutex
	client  *http.Client
	address string
	counter int
}

// OpenCloud constructs the backend. Unlike HID/USB, connecting to the
// engine is deferred to the first Update/registration attempt: the
// engine may start after OmniLED, and api.rs's try_reconnecting
// re-resolves coreProps.json on every call until it succeeds.
func OpenCloud(settings CloudSettings) (*CloudDevice, error) {
	client := settings.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &CloudDevice{settings: settings, client: client}, nil
}

func (d *CloudDevice) Width() int  { return d.settings.Width }
func (d *CloudDevice) Height() int { return d.settings.Height }

// MemoryLayout is fixed to BitPerPixel: the engine's wire format packs
// one bit per pixel regardless of physical device, per
// steelseries_engine_device.rs's memory_layout.
func (d *CloudDevice) MemoryLayout() renderer.MemoryLayout { return renderer.BitPerPixel }

func (d *CloudDevice) Name() string { return d.settings.Name }

// Update posts one frame to the engine's /game_event endpoint,
// reconnecting and (re-)registering the game/screen handler first if
// necessary. When the engine's endpoint cannot be found (NotAvailable)
// or the engine has disconnected, the condition is logged and the tick
// is a no-op that returns nil; a disconnect also clears the cached
// address so the next tick reconnects. Any other reconnect or post
// failure is returned to the caller.
func (d *CloudDevice) Update(buf []byte) error {
	frame := buf
	if d.settings.Transform != nil {
		frame = d.settings.Transform(frame)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.tryReconnectingLocked(); err != nil {
		if isNotAvailable(err) {
			cloudLog.Debug("cloud engine not available", "device", d.settings.Name, "err", err)
			return nil
		}
		return err
	}

	value := d.counter
	d.counter++

	update := map[string]any{
		"game":  cloudGame,
		"event": cloudEventName(d.settings.Width, d.settings.Height),
		"data": map[string]any{
			"value": value,
			"frame": map[string]any{
				cloudImageDataField(d.settings.Width, d.settings.Height): frame,
			},
		},
	}

	if err := d.call("/game_event", update); err != nil {
		if isDisconnected(err) {
			cloudLog.Warn("cloud engine disconnected", "device", d.settings.Name)
			d.address = ""
			return nil
		}
		return err
	}
	return nil
}

// Close unregisters the game, mirroring api.rs's Drop impl for Api.
func (d *CloudDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.address == "" {
		return nil
	}
	_ = d.call("/remove_game", map[string]any{"game": cloudGame})
	return nil
}

func (d *CloudDevice) tryReconnectingLocked() error {
	if d.address != "" {
		return nil
	}
	address, err := discoverEngineAddress()
	if err != nil {
		return err
	}
	d.address = address
	return d.registerLocked()
}

// registerLocked sends game_metadata then binds one screen handler for
// this device's size, with an empty 1-bit-per-pixel frame, per
// api.rs's register().
func (d *CloudDevice) registerLocked() error {
	metadata := map[string]any{
		"game":                      cloudGame,
		"game_display_name":         cloudGameDisplayName,
		"developer":                 cloudDeveloper,
		"deinitialize_timer_length_ms": cloudDeinitTimeoutMS,
	}
	if err := d.call("/game_metadata", metadata); err != nil {
		return err
	}

	empty := renderer.NewBuffer(renderer.Size{Width: d.settings.Width, Height: d.settings.Height}, renderer.BitPerPixel).Bytes()

	handler := map[string]any{
		"game":  cloudGame,
		"event": cloudEventName(d.settings.Width, d.settings.Height),
		"handlers": []any{
			map[string]any{
				"datas": []any{
					map[string]any{
						"has-text":   false,
						"image-data": empty,
					},
				},
				"device-type": cloudDeviceType(d.settings.Width, d.settings.Height),
				"mode":        "screen",
				"zone":        "one",
			},
		},
	}
	return d.call("/bind_game_event", handler)
}

func (d *CloudDevice) call(endpoint string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &errs.DeviceIOError{Device: d.settings.Name, Err: err}
	}

	if d.address == "" {
		return errDisconnected
	}

	url := fmt.Sprintf("http://%s%s", d.address, endpoint)
	resp, err := d.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return &errs.DeviceIOError{Device: d.settings.Name, Err: fmt.Errorf("%s: %w", endpoint, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &errs.DeviceIOError{Device: d.settings.Name, Err: fmt.Errorf("%s: unexpected status %s", endpoint, resp.Status)}
	}
	return nil
}

func cloudEventName(width, height int) string {
	return fmt.Sprintf("UPDATE-%dX%d", width, height)
}

func cloudImageDataField(width, height int) string {
	return fmt.Sprintf("image-data-%dx%d", width, height)
}

func cloudDeviceType(width, height int) string {
	return fmt.Sprintf("screened-%dx%d", width, height)
}

// errDisconnected marks "no known engine address yet"; callers unwrap
// it via isDisconnected.
var errDisconnected = &errs.DeviceIOError{Device: "cloud", Err: fmt.Errorf("disconnected")}

func isDisconnected(err error) bool { return err == errDisconnected }

// notAvailableError marks a platform/discovery failure that should not
// be retried noisily every tick, per api.rs's Error::NotAvailable.
type notAvailableError struct{ reason string }

func (e *notAvailableError) Error() string { return e.reason }

func isNotAvailable(err error) bool {
	_, ok := err.(*notAvailableError)
	return ok
}

// discoverEngineAddress reads coreProps.json from the platform-specific
// SteelSeries Engine data directory, per api.rs's read_address. Linux
// has no known engine install location, matching the original's
// target_os = "linux" stub.
func discoverEngineAddress() (string, error) {
	if runtime.GOOS == "linux" {
		return "", &notAvailableError{reason: "cloud engine integration is not available on linux"}
	}

	dir, err := engineConfigDir()
	if err != nil {
		return "", &notAvailableError{reason: err.Error()}
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", &notAvailableError{reason: fmt.Sprintf("cloud engine directory %q does not exist", dir)}
	}

	path := filepath.Join(dir, "coreProps.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &notAvailableError{reason: fmt.Sprintf("couldn't open %q: %v", path, err)}
	}

	var props struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		return "", &notAvailableError{reason: fmt.Sprintf("couldn't parse %q: %v", path, err)}
	}
	if props.Address == "" {
		return "", &notAvailableError{reason: fmt.Sprintf("%q has no 'address' field", path)}
	}
	return props.Address, nil
}

func engineConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			return "", fmt.Errorf("PROGRAMDATA environment variable not set")
		}
		return filepath.Join(programData, "SteelSeries", "SteelSeries Engine 3"), nil
	case "darwin":
		return "/Library/Application Support/SteelSeries Engine 3", nil
	default:
		return "", fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
