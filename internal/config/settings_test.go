package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniled/omniled/internal/logging"
)

func writeDoc(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadSettingsAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "settings.lua", `Settings{}`)

	s := LoadSettings(path, PlatformConstants{OS: "linux"})
	assert.Equal(t, 8, s.AnimationTicksDelay)
	assert.Equal(t, 2, s.AnimationTicksRate)
	assert.Equal(t, logging.LevelInfo, s.LogLevel)
	assert.Equal(t, 100*time.Millisecond, s.UpdateInterval)
}

func TestLoadSettingsOverridesValues(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "settings.lua", `
		Settings{
			animation_ticks_delay = 4,
			log_level = "debug",
			server_port = 9000,
			update_interval = 250,
		}
	`)

	s := LoadSettings(path, PlatformConstants{OS: "linux"})
	assert.Equal(t, 4, s.AnimationTicksDelay)
	assert.Equal(t, logging.LevelDebug, s.LogLevel)
	assert.Equal(t, 9000, s.ServerPort)
	assert.Equal(t, 250*time.Millisecond, s.UpdateInterval)
}

func TestLoadSettingsFallsBackOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "settings.lua", `this is not valid lua {{{`)

	s := LoadSettings(path, PlatformConstants{OS: "linux"})
	assert.Equal(t, defaultSettings(), s)
}

func TestLoadSettingsMissingFileFallsBack(t *testing.T) {
	s := LoadSettings(filepath.Join(t.TempDir(), "missing.lua"), PlatformConstants{OS: "linux"})
	assert.Equal(t, defaultSettings(), s)
}
