//go:build windows

package launcher

import (
	"os/exec"
	"syscall"
)

// isolate detaches the worker from the console's CTRL+C handling so only
// the supervisor's explicit termination stops it.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
