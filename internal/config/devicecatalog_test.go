package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniled/omniled/internal/scheduler"
)

func TestLoadDeviceCatalogRegistersEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "devices.lua", `
		HID{name="left", vendor_id=0x1038, product_id=0x1234, width=128, height=40}
		USB{name="right", vendor_id=0x1038, product_id=0x5678, width=128, height=40}
	`)

	c, err := LoadDeviceCatalog(path, PlatformConstants{OS: "linux"})
	require.NoError(t, err)
	defer c.Close()

	status, ok := c.Status("left")
	require.True(t, ok)
	assert.Equal(t, scheduler.DeviceAvailable, status)

	status, ok = c.Status("right")
	require.True(t, ok)
	assert.Equal(t, scheduler.DeviceAvailable, status)

	_, ok = c.Status("missing")
	assert.False(t, ok)
}

func TestLoadDeviceCatalogRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "devices.lua", `
		HID{name="dup", vendor_id=1, product_id=2, width=8, height=8}
		HID{name="dup", vendor_id=1, product_id=2, width=8, height=8}
	`)

	_, err := LoadDeviceCatalog(path, PlatformConstants{OS: "linux"})
	require.Error(t, err)
}

func TestCatalogLoadUnknownDeviceErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "devices.lua", ``)

	c, err := LoadDeviceCatalog(path, PlatformConstants{OS: "linux"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Load("nope")
	require.Error(t, err)
}
