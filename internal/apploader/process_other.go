//go:build !windows

package apploader

import "os/exec"

// applyExtraConfiguration matches process.rs's Linux
// extra_configuration: no extra configuration required.
func applyExtraConfiguration(cmd *exec.Cmd) {}
