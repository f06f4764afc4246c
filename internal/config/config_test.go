package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWiresAllThreeDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "settings.lua", `Settings{animation_ticks_delay = 5}`)
	writeDoc(t, dir, "devices.lua", ``)
	writeDoc(t, dir, "scripts.lua", `registered = true`)

	result, err := Load(dir, Paths{ConfigDir: dir}, "127.0.0.1:4500", 4500)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 5, result.Settings.AnimationTicksDelay)
	assert.Empty(t, result.Registry.Names())
}

func TestLoadReportsScriptsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "settings.lua", `Settings{}`)
	writeDoc(t, dir, "devices.lua", ``)
	writeDoc(t, dir, "scripts.lua", `not valid {{{`)

	_, err := Load(dir, Paths{ConfigDir: dir}, "", 0)
	require.Error(t, err)
}
