//go:build windows

package apploader

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// applyExtraConfiguration matches process.rs's Windows
// extra_configuration: suppress the console window a plugin's own
// process would otherwise pop up.
func applyExtraConfiguration(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
