//go:build unix && !windows

package procgroup

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestSetMarksGroupLeader(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatal("Set must configure Setpgid")
	}
}

func TestKillNilSafe(t *testing.T) {
	if err := Kill(nil, syscall.SIGKILL); err != nil {
		t.Errorf("Kill(nil) = %v, want nil", err)
	}
	if err := Kill(&exec.Cmd{}, syscall.SIGKILL); err != nil {
		t.Errorf("Kill on unstarted command = %v, want nil", err)
	}
}

func TestKillExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := Kill(cmd, syscall.SIGKILL); err != nil {
		t.Errorf("Kill after exit = %v, want nil", err)
	}
}
