package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/omniled/omniled/internal/logging"
)

// settingsOverlay is the optional settings.yaml sibling of
// settings.lua: an ambient escape hatch letting a deployment tweak a
// handful of scalar settings (log level, update cadence, server port)
// without touching the Lua document, the way a packaged install might
// ship a read-only settings.lua alongside a per-machine override file.
// Unset fields (the YAML zero value) leave the Lua-derived setting
// untouched; there is no equivalent in original_source, this is a
// Go-native convenience the rest of the example pack reaches for
// rather than inventing another Lua table.
type settingsOverlay struct {
	LogLevel       string `yaml:"log_level"`
	UpdateInterval int    `yaml:"update_interval_ms"`
	ServerPort     *int   `yaml:"server_port"`
}

// applyOverlay reads path (if it exists) and merges any set fields
// into settings. A missing file is not an error; a malformed one is
// logged and ignored, the same fallback posture as LoadSettings'
// Lua-parse-error path.
func applyOverlay(settings Settings, path string) Settings {
	raw, err := os.ReadFile(path)
	if err != nil {
		return settings
	}

	var overlay settingsOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		logging.For("config").Error("failed to parse settings overlay, ignoring", "path", path, "err", err)
		return settings
	}

	if overlay.LogLevel != "" {
		settings.LogLevel = logging.ParseLevel(overlay.LogLevel)
	}
	if overlay.UpdateInterval > 0 {
		settings.UpdateInterval = time.Duration(overlay.UpdateInterval) * time.Millisecond
	}
	if overlay.ServerPort != nil {
		settings.ServerPort = *overlay.ServerPort
	}
	return settings
}
