// Package config loads the three script-based configuration documents
// (settings, devices, scripts) from a config directory, grounded in
// original_source's settings/settings.rs, devices/devices.rs, and
// script_handler/script_handler.rs's exec_file/create_table_with_defaults
// pattern (spec.md §6).
package config

import (
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/logging"
)

var log = logging.For("config")

// FontSelectorKind distinguishes the two font sources this
// implementation supports (spec.md §6's FontSelector, narrowed from
// the original's Default/Filesystem/System trio: System relies on
// font-kit-style OS font-matching with no equivalent in the example
// pack, so it is not implemented).
type FontSelectorKind int

const (
	FontDefault FontSelectorKind = iota
	FontFilesystem
)

// FontSelector picks the TrueType/OpenType font FontManager rasterises
// from, grounded in original_source's font_selector.rs FontSelector.
type FontSelector struct {
	Kind      FontSelectorKind
	Path      string
	FontIndex int
}

// defaultFontCandidates are probed in order when Kind is FontDefault;
// the original's System variant asks the OS to resolve a family name,
// which this implementation approximates by checking the handful of
// paths a Linux/Windows/macOS install is likely to have, since there is
// no embedded font asset shipped with this repository.
var defaultFontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/System/Library/Fonts/Menlo.ttc",
	`C:\Windows\Fonts\consola.ttf`,
}

// Resolve reads the selected font's raw bytes.
func (fs FontSelector) Resolve() ([]byte, error) {
	if fs.Kind == FontFilesystem {
		return os.ReadFile(fs.Path)
	}
	var lastErr error
	for _, candidate := range defaultFontCandidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Settings mirrors original_source's Settings struct field-for-field
// (spec.md §6, "settings").
type Settings struct {
	AnimationTicksDelay     int
	AnimationTicksRate      int
	Font                    FontSelector
	LogLevel                logging.Level
	KeyboardTicksRepeatDelay int
	KeyboardTicksRepeatRate int
	ServerPort              int
	UpdateInterval          time.Duration
}

// defaultSettings matches settings.rs's #[mlua(default = ...)] values.
func defaultSettings() Settings {
	return Settings{
		AnimationTicksDelay:      8,
		AnimationTicksRate:       2,
		Font:                     FontSelector{Kind: FontDefault},
		LogLevel:                 logging.LevelInfo,
		KeyboardTicksRepeatDelay: 2,
		KeyboardTicksRepeatRate:  2,
		ServerPort:               0,
		UpdateInterval:           100 * time.Millisecond,
	}
}

// LoadSettings executes path's Lua document against a sandbox exposing
// only LOG, PLATFORM, and a Settings(...) constructor. A malformed or
// missing document logs and falls back to defaultSettings, matching
// settings.rs Settings::load's "log + fall back to defaults" policy
// (SPEC_FULL.md §C.4) rather than aborting the daemon.
func LoadSettings(path string, platform PlatformConstants) Settings {
	result := defaultSettings()

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSandboxLibs(L)
	registerPlatformConstants(L, platform)
	registerLog(L)

	L.SetGlobal("Settings", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		result = Settings{
			AnimationTicksDelay:      optInt(t, "animation_ticks_delay", 8),
			AnimationTicksRate:       optInt(t, "animation_ticks_rate", 2),
			Font:                     parseFontSelector(t.RawGetString("font")),
			LogLevel:                 parseLogLevel(t.RawGetString("log_level")),
			KeyboardTicksRepeatDelay: optInt(t, "keyboard_ticks_repeat_delay", 2),
			KeyboardTicksRepeatRate:  optInt(t, "keyboard_ticks_repeat_rate", 2),
			ServerPort:               optInt(t, "server_port", 0),
			UpdateInterval:           time.Duration(optInt(t, "update_interval", 100)) * time.Millisecond,
		}
		return 0
	}))

	if err := L.DoFile(path); err != nil {
		log.Error("error loading settings, falling back to defaults", "path", path, "err", err)
		return defaultSettings()
	}

	result = applyOverlay(result, overlayPath(path))

	log.Debug("loaded settings", "settings", result)
	return result
}

// overlayPath derives settings.yaml from settings.lua's path, both
// living in the same config directory.
func overlayPath(settingsLuaPath string) string {
	dir := settingsLuaPath[:len(settingsLuaPath)-len("settings.lua")]
	return dir + "settings.yaml"
}

func parseFontSelector(v lua.LValue) FontSelector {
	t, ok := v.(*lua.LTable)
	if !ok {
		return FontSelector{Kind: FontDefault}
	}
	if path, ok := t.RawGetString("path").(lua.LString); ok {
		return FontSelector{Kind: FontFilesystem, Path: string(path), FontIndex: optInt(t, "font_index", 0)}
	}
	return FontSelector{Kind: FontDefault}
}

func parseLogLevel(v lua.LValue) logging.Level {
	s, ok := v.(lua.LString)
	if !ok {
		return logging.LevelInfo
	}
	return logging.ParseLevel(string(s))
}
