//go:build unix

package execution

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group and makes context
// cancellation kill the entire group, so grandchildren die with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// Kill the process group (negative PID)
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
