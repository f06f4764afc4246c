package apploader

import (
	"os"
	"os/exec"

	"github.com/google/uuid"
)

// ProcessConfig is a supervised plugin process's launch configuration,
// grounded in original_source's app_loader/process.rs Config.
type ProcessConfig struct {
	Path string
	Args []string
}

// Process supervises one spawned plugin, grounded field-for-field in
// process.rs's Process: stdin closed, stdout/stderr inherited, killed
// when Stop is called (the Go analogue of Process's Drop).
type Process struct {
	ID      uuid.UUID
	config  ProcessConfig
	cmd     *exec.Cmd
}

// Start spawns config.Path with config.Args, matching Process::new.
func Start(config ProcessConfig) (*Process, error) {
	cmd := exec.Command(config.Path, config.Args...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	applyExtraConfiguration(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &Process{ID: uuid.New(), config: config, cmd: cmd}, nil
}

// Stop kills the supervised process, matching Process's Drop impl.
// Errors are returned rather than logged so the caller (AppLoader,
// which has its own per-instance log context) decides how to report
// them.
func (p *Process) Stop() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
