package scheduler

import (
	"fmt"

	"github.com/omniled/omniled/internal/devices"
	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/shortcuts"
)

// DeviceStatus mirrors original_source's devices.rs DeviceStatus,
// supplementing spec.md with the "already claimed" fail-fast behaviour
// described in SPEC_FULL.md §C.3.
type DeviceStatus int

const (
	DeviceAvailable DeviceStatus = iota
	DeviceLoaded
)

// DeviceCatalog resolves a configured device name to its concrete,
// lazily-constructed backend. internal/config's device catalog
// implements this; ScreenBuilder depends on the interface rather than
// the concrete type so it never imports internal/config (config loads
// scripts, which register ScreenBuilders — the dependency would
// otherwise cycle).
type DeviceCatalog interface {
	Status(name string) (DeviceStatus, bool)
	Load(name string) (devices.Device, error)
}

type builderKind int

const (
	builderUnset builderKind = iota
	builderLayout
	builderLayoutGroup
)

// ScreenBuilder accumulates a device's priority-ordered layout list,
// grounded field-for-field in script_handler.rs's ScreenBuilderImpl:
// with_layout XOR with_layout_group(_toggle), optionally closed over a
// screen-switch shortcut, then register() loads the device and hands
// the finished layout list to a Registry.
type ScreenBuilder struct {
	registry  *Registry
	catalog   DeviceCatalog
	shortcuts *shortcuts.Shortcuts
	renderer  *renderer.Renderer

	deviceName   string
	layouts      []Layout
	shortcutKeys []string
	kind         builderKind
	screenCount  int
	current      *int // shared by every layout-group predicate closure
}

// NewScreenBuilder starts building device's layout list. It fails fast
// if the device is unknown or was already claimed by an earlier
// ScreenBuilder, matching ScreenBuilder::new's two error branches.
func NewScreenBuilder(registry *Registry, catalog DeviceCatalog, sc *shortcuts.Shortcuts, r *renderer.Renderer, device string) (*ScreenBuilder, error) {
	status, ok := catalog.Status(device)
	if !ok {
		return nil, fmt.Errorf("device %q not found", device)
	}
	if status == DeviceLoaded {
		return nil, fmt.Errorf("device %q already loaded", device)
	}

	current := 0
	return &ScreenBuilder{
		registry:  registry,
		catalog:   catalog,
		shortcuts: sc,
		renderer:  r,
		deviceName: device,
		current:   &current,
	}, nil
}

// WithLayout appends a single flat-priority layout. It is mutually
// exclusive with WithLayoutGroup/WithLayoutGroupToggle.
func (b *ScreenBuilder) WithLayout(l Layout) error {
	if b.kind == builderLayoutGroup {
		return fmt.Errorf("can't use with_layout after with_layout_group or with_layout_group_toggle")
	}
	b.kind = builderLayout
	b.layouts = append(b.layouts, l)
	return nil
}

// WithLayoutGroup appends a set of layouts that share one priority
// slot and rotate via a synthesised predicate consulting a shared
// screen counter, matching with_layout_group's wrapper closure.
func (b *ScreenBuilder) WithLayoutGroup(layouts []Layout) error {
	if b.kind == builderLayout {
		return fmt.Errorf("can't use with_layout_group after with_layout")
	}
	b.kind = builderLayoutGroup

	screen := b.screenCount
	b.screenCount++

	if len(layouts) == 0 {
		log.Warn("registering a layout group with 0 layouts", "device", b.deviceName)
	}

	current := b.current
	for _, l := range layouts {
		predicate := l.Predicate
		wrapped := func() bool {
			if *current != screen {
				return false
			}
			if predicate == nil {
				return true
			}
			return predicate()
		}
		l.Predicate = wrapped
		b.layouts = append(b.layouts, l)
	}
	return nil
}

// WithLayoutGroupToggle registers the shortcut (a set of "KEY(x)"
// names) that advances the shared screen counter, matching
// with_layout_group_toggle. It does not itself add layouts; subsequent
// WithLayoutGroup calls contribute the rotating set.
func (b *ScreenBuilder) WithLayoutGroupToggle(keys []string) error {
	if b.kind == builderLayout {
		return fmt.Errorf("can't use with_layout_group_toggle after with_layout")
	}
	b.kind = builderLayoutGroup
	b.shortcutKeys = keys
	return nil
}

// Register loads the device from the catalog, wires the screen-toggle
// shortcut (if any), and adds the finished DeviceContext to the
// Registry, matching ScreenBuilderImpl::register.
func (b *ScreenBuilder) Register() error {
	if len(b.shortcutKeys) > 0 {
		if b.screenCount < 2 {
			log.Warn("registering screen-toggle shortcut with few screens", "device", b.deviceName, "screens", b.screenCount)
		}

		current := b.current
		count := b.screenCount
		name := b.deviceName
		registry := b.registry
		if err := b.shortcuts.Register(b.shortcutKeys, func() error {
			*current++
			if *current >= count {
				*current = 0
			}
			registry.Reset(name)
			return nil
		}); err != nil {
			return err
		}
	}

	if b.kind == builderLayoutGroup && b.screenCount == 0 {
		log.Warn("registering device with zero screens", "device", b.deviceName)
	}

	device, err := b.catalog.Load(b.deviceName)
	if err != nil {
		return err
	}

	ctx := NewDeviceContext(0, b.deviceName, device, b.layouts, b.renderer)
	b.registry.Add(ctx)
	return nil
}
