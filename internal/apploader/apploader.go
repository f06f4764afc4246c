// Package apploader starts and supervises the external plugin
// processes named in applications.lua, grounded in original_source's
// app_loader/{app_loader,process}.rs (SPEC_FULL.md §A, "per-plugin
// instance id used in supervision logs").
package apploader

import (
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/omniled/omniled/internal/logging"
)

var log = logging.For("apploader")

// Platform mirrors scripthost.Platform's fields; applications.lua sees
// the same PLATFORM global (with its PLATFORM.Server table) every other
// config document does.
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

// AppLoader supervises every process started by applications.lua's
// load_app calls, matching app_loader.rs's AppLoader.
type AppLoader struct {
	mu        sync.Mutex
	processes []*Process
	platform  Platform
}

// Load executes applications.lua from dir, starting each process it
// requests via load_app. A process that fails to start is logged and
// skipped; the daemon continues with whichever plugins did start,
// matching start_process's log-and-continue policy. If no application
// started at all, that is logged as a warning (not an error) exactly
// as AppLoader::load does.
func Load(dir string, platform Platform) (*AppLoader, error) {
	al := &AppLoader{platform: platform}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSandboxLibs(L)
	registerPlatform(L, platform)
	registerLog(L)

	L.SetGlobal("load_app", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		config := ProcessConfig{
			Path: optString(t, "path", ""),
			Args: stringArray(asSubTable(L, t, "args")),
		}
		al.start(config)
		return 0
	}))

	L.SetGlobal("get_default_path", L.NewFunction(func(L *lua.LState) int {
		appName := L.CheckString(1)
		executable := appName + platform.ExeSuffix
		L.Push(lua.LString(filepath.Join(platform.ApplicationsDir, executable)))
		return 1
	}))

	path := filepath.Join(dir, "applications.lua")
	if err := L.DoFile(path); err != nil {
		return al, err
	}

	al.mu.Lock()
	count := len(al.processes)
	al.mu.Unlock()
	if count == 0 {
		log.Warn("app loader didn't load any applications")
	}

	return al, nil
}

func (al *AppLoader) start(config ProcessConfig) {
	p, err := Start(config)
	if err != nil {
		log.Error("failed to run application", "path", config.Path, "args", config.Args, "err", err)
		return
	}
	log.Debug("starting process", "path", config.Path, "instance", p.ID)

	al.mu.Lock()
	al.processes = append(al.processes, p)
	al.mu.Unlock()
}

// Close stops every supervised process, matching Process's Drop impl
// running for each entry the original's Vec<Process> held.
func (al *AppLoader) Close() {
	al.mu.Lock()
	processes := append([]*Process(nil), al.processes...)
	al.mu.Unlock()

	for _, p := range processes {
		if err := p.Stop(); err != nil {
			log.Error("failed to stop application", "instance", p.ID, "err", err)
		}
	}
}
