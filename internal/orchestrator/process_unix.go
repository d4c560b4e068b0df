//go:build !windows

package orchestrator

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// ProcessAlive 发送 0 号信号探测进程是否存在
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	// EPERM 说明进程存在但属于其他用户
	return err == nil || errors.Is(err, syscall.EPERM)
}

func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
