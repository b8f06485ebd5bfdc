//go:build windows

package procgroup

import (
	"os/exec"
	"syscall"
)

// Set is a no-op on Windows for process groups in this context.
func Set(cmd *exec.Cmd) {
	// No-op
}

// Kill maps SIGKILL to Process.Kill on Windows. SIGTERM is ignored as
// Windows does not support graceful termination reliably via signals.
func Kill(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if sig == syscall.SIGKILL {
		return cmd.Process.Kill()
	}

	return nil
}
