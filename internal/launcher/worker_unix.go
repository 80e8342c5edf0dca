//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// isolate puts the worker in its own process group so a terminal
// interrupt aimed at the supervisor never reaches it. Workers stop only
// when the supervisor terminates them.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
