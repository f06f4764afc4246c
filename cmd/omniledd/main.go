// Command omniledd is the OmniLED host daemon: it loads the three Lua
// config documents (settings, devices, scripts), starts the plugin RPC
// server and keyboard poller, and drives the main scheduling loop,
// grounded in original_source's main.rs wiring order.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/omniled/omniled/internal/apploader"
	"github.com/omniled/omniled/internal/config"
	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/keyboard"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/rpcserver"
	"github.com/omniled/omniled/internal/statusipc"
)

var log = logging.For("omniledd")

const banner = `
   ____             _  _   ____________
  / __ \___  ___  (_)| | / / __/ __/ _ \
 / /_/ / _ \/ _ \/ / | |/ / /_/ /_/ // /
 \____/_//_/_//_/_/  |___/___/___/____/

OmniLED host daemon
`

func main() {
	configDir := flag.String("config-dir", ".", "directory containing settings.lua, devices.lua, scripts.lua, applications.lua")
	dataDir := flag.String("data-dir", ".", "directory server.json and other runtime state is written to")
	appsDir := flag.String("applications-dir", "", "default base directory for get_default_path in applications.lua")
	rootDir := flag.String("root-dir", ".", "installation root carried into PLATFORM.RootDir")
	port := flag.Int("port", -1, "override settings.server_port (0 lets the OS pick a free port, -1 uses settings)")
	flag.Parse()

	fmt.Print(banner)

	paths := config.Paths{
		ApplicationsDir: *appsDir,
		ConfigDir:       *configDir,
		DataDir:         *dataDir,
		RootDir:         *rootDir,
	}

	platform := paths.PlatformConstants()

	settingsPath := filepath.Join(*configDir, "settings.lua")
	settings := config.LoadSettings(settingsPath, platform)
	logging.SetLevel(settings.LogLevel)

	serverPort := settings.ServerPort
	if *port >= 0 {
		serverPort = *port
	}

	queue := eventqueue.New(eventqueue.DefaultCapacity)

	srv, err := rpcserver.Start(queue, serverPort, settings.LogLevel, *dataDir)
	if err != nil {
		log.Error("failed to start rpc server", "err", err)
		os.Exit(1)
	}
	defer srv.Stop()

	result, err := config.LoadRest(*configDir, paths, settings, srv.Info.Address, srv.Info.Port)
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	defer result.Close()

	al, err := apploader.Load(*configDir, apploader.Platform{
		ApplicationsDir: platform.ApplicationsDir,
		ConfigDir:       platform.ConfigDir,
		DataDir:         platform.DataDir,
		RootDir:         platform.RootDir,
		ExeExtension:    platform.ExeExtension,
		ExeSuffix:       platform.ExeSuffix,
		OS:              platform.OS,
		PathSeparator:   platform.PathSeparator,
		ServerAddress:   srv.Info.Address,
		ServerPort:      srv.Info.Port,
	})
	if err != nil {
		log.Error("failed to load applications", "err", err)
		os.Exit(1)
	}
	defer al.Close()

	poller := keyboard.New(queue, nil)
	poller.Start()
	defer poller.Stop()

	statusStore := statusipc.NewStore()
	statusSrv, err := statusipc.Listen(statusipc.DefaultSocketPath(*dataDir), statusStore)
	if err != nil {
		log.Warn("status socket unavailable, cmd/omniledctl will not be able to attach", "err", err)
	} else {
		defer statusSrv.Stop()
	}

	log.Info("daemon ready", "devices", result.Registry.Names(), "rpc", srv.Info.Address)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(settings.UpdateInterval)
	defer ticker.Stop()
	tickMS := int(settings.UpdateInterval.Milliseconds())

	for {
		select {
		case <-sigCh:
			log.Info("shutting down")
			return
		case <-ticker.C:
			runTick(queue, result, tickMS)
			publishStatus(statusStore, queue, result, srv, tickMS)
		}
	}
}

// runTick drains the queue and drives one scheduling pass, matching
// main.rs's per-tick sequence: dispatch every drained event, advance
// the shortcut and trigger state machines, then let the registry
// render and write whichever devices came due.
func runTick(queue *eventqueue.Queue, result *config.Result, tickMS int) {
	for _, ev := range queue.Drain() {
		if ev.Kind == eventqueue.KindKeyboard {
			if err := result.Shortcuts.ProcessKey(ev.Key, ev.Action == eventqueue.KeyPress); err != nil {
				log.Error("shortcut processing failed", "key", ev.Key, "err", err)
			}
		}
		result.Host.HandleEvent(ev)
	}

	result.Shortcuts.Update()
	result.Host.Tick()
	result.Registry.Tick(tickMS)
}

// publishStatus refreshes the statusipc snapshot cmd/omniledctl polls,
// kept out of runTick so a status-reporting failure never touches the
// render/dispatch path.
func publishStatus(store *statusipc.Store, queue *eventqueue.Queue, result *config.Result, srv *rpcserver.Server, tickMS int) {
	devices := result.Registry.Devices()
	snap := statusipc.Snapshot{
		RPCAddress: srv.Info.Address,
		QueueLen:   queue.Len(),
		TickMS:     tickMS,
		Devices:    make([]statusipc.DeviceStatus, len(devices)),
		StateNames: result.Host.StateNames(),
	}
	for i, d := range devices {
		snap.Devices[i] = statusipc.DeviceStatus{Name: d.Name, Width: d.Width, Height: d.Height}
	}
	store.Update(snap)
}
