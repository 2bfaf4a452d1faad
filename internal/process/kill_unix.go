//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// KillProcessGroup sends SIGKILL to the process group led by pid so the
// browser's renderer and GPU children go down with it.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// NewGroup makes cmd start as the leader of a new process group.
func NewGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
