package apploader

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestLoadStartsConfiguredProcesses(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("spawns a Unix shell command")
	}
	dir := t.TempDir()
	writeDoc(t, dir, "applications.lua", `
		load_app{path="/bin/true", args={}}
	`)

	al, err := Load(dir, Platform{OS: "linux"})
	require.NoError(t, err)
	defer al.Close()

	assert.Len(t, al.processes, 1)
}

func TestLoadWarnsWhenNoApplicationsConfigured(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "applications.lua", ``)

	al, err := Load(dir, Platform{OS: "linux"})
	require.NoError(t, err)
	defer al.Close()

	assert.Empty(t, al.processes)
}

func TestGetDefaultPathJoinsApplicationsDir(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join("/opt/apps", "mytool")
	writeDoc(t, dir, "applications.lua", `
		path = get_default_path("mytool")
		assert(path == `+strconv.Quote(want)+`, "got " .. path)
	`)

	al, err := Load(dir, Platform{ApplicationsDir: "/opt/apps", OS: "linux"})
	require.NoError(t, err)
	defer al.Close()
}

func TestLoadFailedProcessIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "applications.lua", `
		load_app{path="/no/such/binary", args={"--flag"}}
	`)

	al, err := Load(dir, Platform{OS: "linux"})
	require.NoError(t, err)
	defer al.Close()

	assert.Empty(t, al.processes)
}
