package devices

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/omniled/omniled/internal/errs"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/renderer"
)

var usbLog = logging.For("devices.usb")

// USBSettings configures the USB control-transfer backend, grounded
// in original_source's devices/usb_device/usb_device_settings.rs.
type USBSettings struct {
	Name             string
	VendorID         gousb.ID
	ProductID        gousb.ID
	Interface        int
	AlternateSetting int
	RequestType      uint8
	Request          uint8
	Value            uint16
	Index            uint16
	Width            int
	Height           int
	Layout           renderer.MemoryLayout
	Transform        Transform

	// kernelDriverWasAttached is never set or read: SetAutoDetach in
	// OpenUSB leaves kernel-driver detach and reattach to libusb.
	kernelDriverWasAttached bool
}

// USBDevice matches (vendor_id, product_id), claims an interface,
// selects an alternate setting, and writes frames via control
// transfers, exactly as usb_device.rs's USBDevice.
type USBDevice struct {
	settings USBSettings
	ctx      *gousb.Context
	dev      *gousb.Device
	intf     *gousb.Interface
	done     func()
}

// OpenUSB opens and claims the matching USB device.
func OpenUSB(settings USBSettings) (*USBDevice, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(settings.VendorID, settings.ProductID)
	if err != nil || dev == nil {
		ctx.Close()
		return nil, &errs.DeviceOpenError{Device: settings.Name, Backend: "usb", Err: fmt.Errorf("match vendor_id %#04x product_id %#04x: %w", settings.VendorID, settings.ProductID, err)}
	}

	if err := dev.SetAutoDetach(true); err != nil {
		usbLog.Warn("failed to enable auto kernel-driver detach", "device", settings.Name, "err", err)
	}

	var cfg *gousb.Config
	var intf *gousb.Interface
	cfgNum, err := dev.ActiveConfigNum()
	if err == nil {
		cfg, err = dev.Config(cfgNum)
	}
	if err == nil {
		if intf, err = cfg.Interface(settings.Interface, settings.AlternateSetting); err != nil {
			cfg.Close()
		}
	}
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, &errs.DeviceOpenError{Device: settings.Name, Backend: "usb", Err: err}
	}

	done := func() { intf.Close(); cfg.Close() }
	return &USBDevice{settings: settings, ctx: ctx, dev: dev, intf: intf, done: done}, nil
}

func (d *USBDevice) Width() int                         { return d.settings.Width }
func (d *USBDevice) Height() int                        { return d.settings.Height }
func (d *USBDevice) MemoryLayout() renderer.MemoryLayout { return d.settings.Layout }
func (d *USBDevice) Name() string                       { return d.settings.Name }

// Update sends the frame through the optional transform then a
// control transfer with the configured (request_type, request, value,
// index), matching usb_device.rs's write_bytes.
func (d *USBDevice) Update(buf []byte) error {
	frame := buf
	if d.settings.Transform != nil {
		frame = d.settings.Transform(frame)
	}

	_, err := d.dev.Control(d.settings.RequestType, d.settings.Request, d.settings.Value, d.settings.Index, frame)
	if err != nil {
		return &errs.DeviceIOError{Device: d.settings.Name, Err: err}
	}
	return nil
}

// Close releases the interface and context, mirroring usb_device.rs's
// Drop impl (release interface, let the OS reattach the kernel
// driver).
func (d *USBDevice) Close() error {
	if d.done != nil {
		d.done()
	}
	usbLog.Debug("released interface", "device", d.settings.Name)
	if err := d.dev.Close(); err != nil {
		return err
	}
	d.ctx.Close()
	return nil
}
