//go:build !windows

package tools

import (
	"context"
	"os/exec"
	"syscall"
	"time"
)

// shellCommand starts command in its own process group so the whole tree
// can be killed when ctx expires.
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = 2 * time.Second
	return cmd
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	// negative pid targets the group
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
