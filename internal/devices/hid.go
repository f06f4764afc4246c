package devices

import (
	"fmt"

	hid "github.com/sstallion/go-hid"

	"github.com/omniled/omniled/internal/errs"
	"github.com/omniled/omniled/internal/renderer"
)

// HIDSettings configures the HID backend (spec.md §4.5).
type HIDSettings struct {
	Name         string
	VendorID     uint16
	ProductID    uint16
	Interface    int
	Width        int
	Height       int
	Layout       renderer.MemoryLayout
	Transform    Transform
}

// HIDDevice opens the first device matching (vendor_id, product_id,
// interface_number) and writes feature reports, grounded in
// original_source's devices/usb_device path generalised to HID
// (no HID-specific source survived the distillation; this follows the
// same claim/transform/write shape as the USB backend).
type HIDDevice struct {
	settings HIDSettings
	dev      *hid.Device
}

// OpenHID opens the matching HID device.
func OpenHID(settings HIDSettings) (*HIDDevice, error) {
	if err := hid.Init(); err != nil {
		return nil, &errs.DeviceOpenError{Device: settings.Name, Backend: "hid", Err: err}
	}

	var found *hid.Device
	err := hid.Enumerate(settings.VendorID, settings.ProductID, func(info *hid.DeviceInfo) error {
		if found != nil {
			return nil
		}
		if info.InterfaceNbr != settings.Interface {
			return nil
		}
		d, openErr := hid.OpenPath(info.Path)
		if openErr != nil {
			return nil
		}
		found = d
		return nil
	})
	if err != nil {
		return nil, &errs.DeviceOpenError{Device: settings.Name, Backend: "hid", Err: err}
	}
	if found == nil {
		return nil, &errs.DeviceOpenError{Device: settings.Name, Backend: "hid", Err: fmt.Errorf("no matching HID device")}
	}

	return &HIDDevice{settings: settings, dev: found}, nil
}

func (d *HIDDevice) Width() int                         { return d.settings.Width }
func (d *HIDDevice) Height() int                        { return d.settings.Height }
func (d *HIDDevice) MemoryLayout() renderer.MemoryLayout { return d.settings.Layout }
func (d *HIDDevice) Name() string                       { return d.settings.Name }

// Update prepends a zero report-ID byte and writes a feature report
// (spec.md §4.5, "HID backend").
func (d *HIDDevice) Update(buf []byte) error {
	frame := buf
	if d.settings.Transform != nil {
		frame = d.settings.Transform(frame)
	}

	report := make([]byte, len(frame)+1)
	report[0] = 0x00
	copy(report[1:], frame)

	if _, err := d.dev.SendFeatureReport(report); err != nil {
		return &errs.DeviceIOError{Device: d.settings.Name, Err: err}
	}
	return nil
}

func (d *HIDDevice) Close() error {
	return d.dev.Close()
}
