package config

import (
	"path/filepath"
	"runtime"

	"github.com/omniled/omniled/internal/dispatcher"
	"github.com/omniled/omniled/internal/renderer"
	"github.com/omniled/omniled/internal/scheduler"
	"github.com/omniled/omniled/internal/scripthost"
	"github.com/omniled/omniled/internal/shortcuts"
)

// Paths bundles the directories the original's constants.rs resolves
// from the OS, passed in by cmd/omniledd after computing them the way
// the teacher's own installer/tray layout does.
type Paths struct {
	ApplicationsDir string
	ConfigDir       string
	DataDir         string
	RootDir         string
}

func (p Paths) PlatformConstants() PlatformConstants {
	exeExt := ""
	sep := "/"
	if runtime.GOOS == "windows" {
		exeExt = ".exe"
		sep = `\`
	}
	return PlatformConstants{
		ApplicationsDir: p.ApplicationsDir,
		ConfigDir:       p.ConfigDir,
		DataDir:         p.DataDir,
		RootDir:         p.RootDir,
		ExeExtension:    exeExt,
		ExeSuffix:       exeExt,
		OS:              runtime.GOOS,
		PathSeparator:   sep,
	}
}

// Result bundles every object built while loading the three config
// documents, ready for cmd/omniledd to drive a main loop.
type Result struct {
	Settings  Settings
	Catalog   *Catalog
	Host      *scripthost.Host
	Dispatch  *dispatcher.Dispatcher
	Registry  *scheduler.Registry
	Shortcuts *shortcuts.Shortcuts
	Renderer  *renderer.Renderer
	Images    *renderer.ImageCache
}

// Close releases every resource this Result owns: the script host's
// VM, then the device catalog, then the device registry. Settings hold
// nothing to release.
func (r *Result) Close() {
	if r.Host != nil {
		r.Host.Close()
	}
	if r.Catalog != nil {
		r.Catalog.Close()
	}
	if err := r.Registry.Close(); err != nil {
		log.Error("error closing device registry", "err", err)
	}
}

// Load executes settings.lua, devices.lua, and scripts.lua from dir in
// that order, matching script_handler.rs's ScriptHandler::new sequence
// (spec.md §6). serverAddr/serverPort populate PLATFORM.Server for the
// scripts document once the RPC server has actually bound its socket.
//
// Most callers should use this directly. cmd/omniledd instead calls
// LoadSettings itself first (it needs settings.ServerPort to start the
// RPC server before PLATFORM.Server can be populated) and then calls
// LoadRest with the already-parsed Settings, avoiding a second parse
// of settings.lua.
func Load(dir string, paths Paths, serverAddr string, serverPort int) (*Result, error) {
	platform := paths.PlatformConstants()
	settingsPath := filepath.Join(dir, "settings.lua")
	settings := LoadSettings(settingsPath, platform)
	return LoadRest(dir, paths, settings, serverAddr, serverPort)
}

// LoadRest executes devices.lua and scripts.lua, given settings
// already parsed by LoadSettings. See Load's doc comment for why this
// split exists.
func LoadRest(dir string, paths Paths, settings Settings, serverAddr string, serverPort int) (*Result, error) {
	platform := paths.PlatformConstants()

	devicesPath := filepath.Join(dir, "devices.lua")
	catalog, err := LoadDeviceCatalog(devicesPath, platform)
	if err != nil {
		return nil, err
	}

	fontData, err := settings.Font.Resolve()
	var fonts *renderer.FontManager
	if err == nil {
		fonts, err = renderer.NewFontManager(fontData)
	}
	if err != nil {
		log.Error("failed to resolve configured font; text widgets will render without glyphs", "err", err)
	}

	images := renderer.NewImageCache()
	r := renderer.NewRenderer(fonts, images, renderer.ScrollingTextSettings{TicksAtEdge: 8, TicksPerMove: 2})

	d := dispatcher.New()
	registry := scheduler.NewRegistry()
	sc := shortcuts.New(settings.KeyboardTicksRepeatDelay, settings.KeyboardTicksRepeatRate)

	hostPlatform := scripthost.Platform{
		ApplicationsDir: platform.ApplicationsDir,
		ConfigDir:       platform.ConfigDir,
		DataDir:         platform.DataDir,
		RootDir:         platform.RootDir,
		ExeExtension:    platform.ExeExtension,
		ExeSuffix:       platform.ExeSuffix,
		OS:              platform.OS,
		PathSeparator:   platform.PathSeparator,
		ServerAddress:   serverAddr,
		ServerPort:      serverPort,
	}
	defaults := scripthost.AnimationDefaults{Delay: settings.AnimationTicksDelay, Rate: settings.AnimationTicksRate}

	host := scripthost.New(d, registry, catalog, sc, r, images, hostPlatform, defaults)

	scriptsPath := filepath.Join(dir, "scripts.lua")
	if err := host.LoadFile(scriptsPath); err != nil {
		host.Close()
		catalog.Close()
		return nil, err
	}

	return &Result{
		Settings:  settings,
		Catalog:   catalog,
		Host:      host,
		Dispatch:  d,
		Registry:  registry,
		Shortcuts: sc,
		Renderer:  r,
		Images:    images,
	}, nil
}
