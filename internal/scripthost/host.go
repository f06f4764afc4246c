// Package scripthost binds the core's Go objects into the embedded
// scripting language's sandbox, grounded in original_source's
// script_handler/script_handler.rs, settings/settings.rs, and
// devices/devices.rs, whose `create_table_with_defaults!`-built
// per-document environments this package reproduces with
// github.com/yuin/gopher-lua: one fresh *lua.LState per config
// document, seeded only with the globals that document is allowed to
// see (spec.md §9, "Dynamic values from scripts become a closed sum
// type at the boundary").
package scripthost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/dispatcher"
	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/scheduler"
	"github.com/omniled/omniled/internal/shortcuts"
	"github.com/omniled/omniled/internal/state"
	"github.com/omniled/omniled/internal/wire"
)

var log = logging.For("scripthost")

// Platform is the read-only PLATFORM table exposed to every document,
// grounded in constants.rs's Constants.
type Platform struct {
	ApplicationsDir string
	ConfigDir       string
	DataDir         string
	RootDir         string
	ExeExtension    string
	ExeSuffix       string
	OS              string
	PathSeparator   string
	ServerAddress   string
	ServerPort      int
}

// Host owns the Lua VM used to execute the `scripts` config document
// (spec.md §6) and every sandbox binding a layout or predicate
// function may call back into: EVENTS, SHORTCUTS, LOG, PLATFORM, the
// widget constructors, PREDICATE, and ScreenBuilder.
type Host struct {
	L *lua.LState

	Dispatch  *dispatcher.Dispatcher
	Registry  *scheduler.Registry
	Catalog   scheduler.DeviceCatalog
	Shortcuts *shortcuts.Shortcuts
	Renderer  *renderer.Renderer
	Images    *renderer.ImageCache
	Platform  Platform

	defaults AnimationDefaults
	triggers *triggerSet
	state    *state.Tree
}

// New builds a Host wired to the already-constructed core objects.
// The returned Host's Lua VM stays open after the `scripts` document
// has finished executing — layouts and predicates keep
// running against live closures captured during that execution, not
// against the VM itself (gopher-lua functions remain callable after
// DoFile returns, as long as the *lua.LState that created them stays
// open; Host therefore keeps L open for the process lifetime and
// Close is only called at shutdown).
func New(d *dispatcher.Dispatcher, registry *scheduler.Registry, catalog scheduler.DeviceCatalog, sc *shortcuts.Shortcuts, r *renderer.Renderer, images *renderer.ImageCache, platform Platform, defaults AnimationDefaults) *Host {
	h := &Host{
		L:         lua.NewState(lua.Options{SkipOpenLibs: true}),
		Dispatch:  d,
		Registry:  registry,
		Catalog:   catalog,
		Shortcuts: sc,
		Renderer:  r,
		Images:    images,
		Platform:  platform,
		defaults:  defaults,
		triggers:  newTriggerSet(),
		state:     state.New(),
	}

	// Only the base, table, string, and math libraries are opened —
	// no io/os/package/debug — matching the curated sandbox described
	// in spec.md §4.6 ("a curated set of standard functions").
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := h.L.CallByParam(lua.P{Fn: h.L.NewFunction(pair.fn), NRet: 0, Protect: true}, lua.LString(pair.name)); err != nil {
			log.Error("failed to open sandbox library", "lib", pair.name, "err", err)
		}
	}

	h.registerPlatform()
	h.registerLog()
	h.registerPredicate()
	h.registerEvents()
	h.registerShortcuts()
	h.registerWidgets()
	h.registerScreenBuilder()
	h.registerState()

	return h
}

// LoadFile executes a scripts.lua-style document against the sandbox
// built by New, matching load_config's exec_file call in
// script_handler.rs.
func (h *Host) LoadFile(path string) error {
	return h.L.DoFile(path)
}

// LoadString executes a document from memory; used by tests.
func (h *Host) LoadString(src string) error {
	return h.L.DoString(src)
}

// Close releases the Lua VM. Must only be called at process shutdown:
// every layout/predicate closure captured by registered devices and
// shortcuts stops being callable once L is closed.
func (h *Host) Close() {
	h.L.Close()
}

// StateNames returns every top-level name currently merged into the
// state tree, for diagnostics (cmd/omniledctl's status view).
func (h *Host) StateNames() []string {
	return h.state.Names()
}

// Tick advances every tick-scoped sandbox object (the AND-trigger
// tracker), matching events.rs's Events::update and
// shortcuts.rs's Shortcuts::update (the latter is driven directly by
// internal/shortcuts.Shortcuts.Update, called by the main loop).
func (h *Host) Tick() {
	h.triggers.update()
}

// HandleEvent merges an Application event's fields into the state
// tree, rebuilding STATE, before handing the event to Dispatch; every
// other kind is forwarded unchanged. Callers should route every
// drained event through HandleEvent rather than calling Dispatch
// directly, so STATE is never stale when a handler runs.
func (h *Host) HandleEvent(ev eventqueue.Event) {
	if ev.Kind == eventqueue.KindApplication {
		h.state.Assign(ev.AppName, wire.NewTable(ev.AppFields))
		h.syncState()
	}
	h.Dispatch.Dispatch(ev)
}

func raiseError(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}
