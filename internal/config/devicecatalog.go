package config

import (
	"fmt"

	"github.com/google/gousb"
	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/devices"
	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/scheduler"
)

// catalogEntry is one device.lua registration, grounded in devices.rs's
// DeviceEntry enum: either an unbuilt Initializer or a marker that the
// backend has already been claimed.
type catalogEntry struct {
	status scheduler.DeviceStatus
	build  func() (devices.Device, error)
}

// Catalog implements scheduler.DeviceCatalog, parsing devices.lua
// eagerly into named, lazily-constructed backend entries, matching
// devices.rs's Devices (SPEC_FULL.md §C.3). The Lua state that parsed
// the document is kept open for the catalog's lifetime because a
// device's `transform` callback (if configured) is a closure owned by
// that state.
type Catalog struct {
	L       *lua.LState
	entries map[string]*catalogEntry
}

// LoadDeviceCatalog executes path's Lua document against a sandbox
// exposing LOG, PLATFORM, and the HID/USB/CLOUD/SIMULATOR constructors,
// returning a Catalog ready for ScreenBuilder.new/Load calls.
func LoadDeviceCatalog(path string, platform PlatformConstants) (*Catalog, error) {
	c := &Catalog{
		L:       lua.NewState(lua.Options{SkipOpenLibs: true}),
		entries: make(map[string]*catalogEntry),
	}
	openSandboxLibs(c.L)
	registerPlatformConstants(c.L, platform)
	registerLog(c.L)
	c.registerConstructors()

	if err := c.L.DoFile(path); err != nil {
		c.L.Close()
		return nil, fmt.Errorf("load devices: %w", err)
	}
	return c, nil
}

// Close releases the Lua state backing any configured transform
// callbacks.
func (c *Catalog) Close() {
	c.L.Close()
}

// Status reports whether name is a known, unclaimed device name.
func (c *Catalog) Status(name string) (scheduler.DeviceStatus, bool) {
	e, ok := c.entries[name]
	if !ok {
		return scheduler.DeviceAvailable, false
	}
	return e.status, true
}

// Load builds and returns the named device's backend, matching
// Devices::load_device's remove-then-build-then-reinsert-as-Loaded
// sequence.
func (c *Catalog) Load(name string) (devices.Device, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("device %q not found", name)
	}
	if e.status == scheduler.DeviceLoaded {
		return nil, fmt.Errorf("device %q was already loaded", name)
	}

	dev, err := e.build()
	if err != nil {
		return nil, err
	}
	e.status = scheduler.DeviceLoaded
	return dev, nil
}

func (c *Catalog) addEntry(name string, build func() (devices.Device, error)) error {
	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("device configuration for %q is already registered", name)
	}
	c.entries[name] = &catalogEntry{status: scheduler.DeviceAvailable, build: build}
	log.Debug("added device config", "device", name)
	return nil
}

func (c *Catalog) registerConstructors() {
	c.L.SetGlobal("HID", c.L.NewFunction(c.luaHID))
	c.L.SetGlobal("USB", c.L.NewFunction(c.luaUSB))
	c.L.SetGlobal("CLOUD", c.L.NewFunction(c.luaCloud))
	c.L.SetGlobal("SIMULATOR", c.L.NewFunction(c.luaSimulator))
}

func parseMemoryLayout(t *lua.LTable) renderer.MemoryLayout {
	switch optString(t, "memory_layout", "bit_per_pixel") {
	case "bit_per_pixel_vertical":
		return renderer.BitPerPixelVertical
	case "byte_per_pixel":
		return renderer.BytePerPixel
	default:
		return renderer.BitPerPixel
	}
}

// parseTransform wraps a script-supplied `transform` function into a
// devices.Transform, round-tripping the frame as a Lua array of byte
// values, matching usb_device/transform.rs's post-render hook.
func parseTransform(L *lua.LState, t *lua.LTable) devices.Transform {
	fn, ok := t.RawGetString("transform").(*lua.LFunction)
	if !ok {
		return nil
	}
	return func(frame []byte) []byte {
		arg := L.NewTable()
		for i, b := range frame {
			arg.RawSetInt(i+1, lua.LNumber(b))
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg); err != nil {
			log.Error("device transform failed", "err", err)
			return frame
		}
		ret := L.Get(-1)
		L.Pop(1)
		out, ok := ret.(*lua.LTable)
		if !ok {
			return frame
		}
		result := make([]byte, 0, out.Len())
		out.ForEach(func(_, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok {
				result = append(result, byte(n))
			}
		})
		return result
	}
}

func (c *Catalog) luaHID(L *lua.LState) int {
	t := L.CheckTable(1)
	name := optString(t, "name", "")
	settings := devices.HIDSettings{
		Name:      name,
		VendorID:  uint16(optInt(t, "vendor_id", 0)),
		ProductID: uint16(optInt(t, "product_id", 0)),
		Interface: optInt(t, "interface", 0),
		Width:     optInt(t, "width", 0),
		Height:    optInt(t, "height", 0),
		Layout:    parseMemoryLayout(t),
		Transform: parseTransform(L, t),
	}
	if err := c.addEntry(name, func() (devices.Device, error) { return devices.OpenHID(settings) }); err != nil {
		return raiseConfigError(L, err)
	}
	return 0
}

func (c *Catalog) luaUSB(L *lua.LState) int {
	t := L.CheckTable(1)
	name := optString(t, "name", "")
	settings := devices.USBSettings{
		Name:             name,
		VendorID:         gousb.ID(optInt(t, "vendor_id", 0)),
		ProductID:        gousb.ID(optInt(t, "product_id", 0)),
		Interface:        optInt(t, "interface", 0),
		AlternateSetting: optInt(t, "alternate_setting", 0),
		RequestType:      uint8(optInt(t, "request_type", 0)),
		Request:          uint8(optInt(t, "request", 0)),
		Value:            uint16(optInt(t, "value", 0)),
		Index:            uint16(optInt(t, "index", 0)),
		Width:            optInt(t, "width", 0),
		Height:           optInt(t, "height", 0),
		Layout:           parseMemoryLayout(t),
		Transform:        parseTransform(L, t),
	}
	if err := c.addEntry(name, func() (devices.Device, error) { return devices.OpenUSB(settings) }); err != nil {
		return raiseConfigError(L, err)
	}
	return 0
}

func (c *Catalog) luaCloud(L *lua.LState) int {
	t := L.CheckTable(1)
	name := optString(t, "name", "")
	settings := devices.CloudSettings{
		Name:      name,
		Width:     optInt(t, "width", 0),
		Height:    optInt(t, "height", 0),
		Transform: parseTransform(L, t),
	}
	if err := c.addEntry(name, func() (devices.Device, error) { return devices.OpenCloud(settings) }); err != nil {
		return raiseConfigError(L, err)
	}
	return 0
}

func (c *Catalog) luaSimulator(L *lua.LState) int {
	t := L.CheckTable(1)
	name := optString(t, "name", "")
	settings := devices.SimulatorSettings{
		Name:      name,
		Width:     optInt(t, "width", 0),
		Height:    optInt(t, "height", 0),
		Layout:    parseMemoryLayout(t),
		Scale:     optInt(t, "scale", 4),
		Transform: parseTransform(L, t),
	}
	if err := c.addEntry(name, func() (devices.Device, error) { return devices.OpenSimulator(settings) }); err != nil {
		return raiseConfigError(L, err)
	}
	return 0
}

func raiseConfigError(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}
