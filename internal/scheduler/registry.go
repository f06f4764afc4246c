package scheduler

import (
	"sync"

	"github.com/samber/lo"

	"github.com/omniled/omniled/internal/logging"
)

var log = logging.For("scheduler")

// Registry owns every registered DeviceContext and drives them once
// per main-loop tick, grounded in original_source's script_handler.rs
// ScriptHandler, whose `devices: Vec<DeviceContext>` field and
// `update`/`reset` methods this mirrors as a standalone type so the
// script sandbox (internal/scripthost) does not need to reach into
// renderer/device internals directly.
type Registry struct {
	mu       sync.Mutex
	contexts []*DeviceContext
	byName   map[string]*DeviceContext
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*DeviceContext)}
}

// Add registers ctx, assigning it the next sequential device index
// used as the renderer's ContextKey.Device.
func (r *Registry) Add(ctx *DeviceContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx.Index = len(r.contexts)
	r.contexts = append(r.contexts, ctx)
	r.byName[ctx.Name] = ctx
}

// MarkDirty flags every registered device's layouts whose run_on set
// contains key, matching script_handler.rs's mark_for_update except
// spanning every device rather than one ScriptHandler-owned list.
func (r *Registry) MarkDirty(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ctx := range r.contexts {
		ctx.MarkDirty(key)
	}
}

// Reset reproduces script_handler.rs's reset(device_name): clears the
// named device's dwell/priority state, forcing re-selection on the
// next tick. Used by layout-group toggle shortcuts (spec.md §C.1).
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	ctx, ok := r.byName[name]
	r.mu.Unlock()
	if !ok {
		log.Warn("reset: device not found", "device", name)
		return
	}
	ctx.Reset()
}

// Tick runs one scheduling pass for every registered device. A single
// device's failure (a device write error) is logged and does not stop
// the others, per spec.md §7 ("each stage contains failures to the
// nearest entity").
func (r *Registry) Tick(tickMS int) {
	r.mu.Lock()
	contexts := append([]*DeviceContext(nil), r.contexts...)
	r.mu.Unlock()

	for _, ctx := range contexts {
		if err := ctx.Tick(tickMS); err != nil {
			log.Error("device tick failed", "device", ctx.Name, "err", err)
		}
	}
}

// Close releases every registered device's backend resources, in
// registration order, matching the teacher's shutdown ordering of
// peripherals opened during startup.
func (r *Registry) Close() error {
	r.mu.Lock()
	contexts := append([]*DeviceContext(nil), r.contexts...)
	r.mu.Unlock()

	var firstErr error
	for _, ctx := range contexts {
		if err := ctx.Device.Close(); err != nil {
			log.Error("device close failed", "device", ctx.Name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Names returns every registered device's name, for diagnostics
// (cmd/omniledd logs them once configuration has loaded).
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.contexts, func(ctx *DeviceContext, _ int) string { return ctx.Name })
}

// DeviceInfo is one registered device's diagnostic shape, exposed for
// internal/statusipc's snapshot without leaking the devices.Device
// interface itself past this package.
type DeviceInfo struct {
	Name   string
	Width  int
	Height int
}

// Devices returns diagnostic info for every registered device, in
// registration order.
func (r *Registry) Devices() []DeviceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.contexts, func(ctx *DeviceContext, _ int) DeviceInfo {
		return DeviceInfo{Name: ctx.Name, Width: ctx.Device.Width(), Height: ctx.Device.Height()}
	})
}
