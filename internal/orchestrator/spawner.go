package orchestrator

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

// ProcessSpawner 以独立进程组启动 worker：[interpreter] bin <task-id>。
// 标准输入输出全部丢弃，worker 通过任务表与事件日志回报进度。
type ProcessSpawner struct {
	Bin         string
	Interpreter string
	// Env 追加到继承的环境变量之后
	Env      []string
	Registry *workers.Registry
	// OnExit 子进程退出（被回收）后回调
	OnExit func(taskID int64, pid int, err error)
}

func (p *ProcessSpawner) command(taskID int64) (*exec.Cmd, error) {
	bin := strings.TrimSpace(p.Bin)
	if bin == "" {
		return nil, errors.New("worker binary is not configured")
	}
	name := bin
	var args []string
	if interp := strings.TrimSpace(p.Interpreter); interp != "" {
		name = interp
		args = append(args, bin)
	}
	args = append(args, strconv.FormatInt(taskID, 10))

	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = append(os.Environ(), p.Env...)
	configureDetached(cmd)
	return cmd, nil
}

// Spawn 启动进程后立即返回，不等待其结束
func (p *ProcessSpawner) Spawn(_ context.Context, taskID int64) (int, error) {
	cmd, err := p.command(taskID)
	if err != nil {
		return 0, err
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid

	if p.Registry != nil {
		if err := p.Registry.Add(workers.Process{
			TaskID:    taskID,
			PID:       pid,
			Command:   cmd.String(),
			StartedAt: time.Now().UTC(),
		}); err != nil {
			logger.Warn().Err(err).Int64("task_id", taskID).Msg("登记子进程失败")
		}
	}
	go p.reap(taskID, pid, cmd)
	return pid, nil
}

// reap 回收子进程，避免僵尸进程让存活探测误判
func (p *ProcessSpawner) reap(taskID int64, pid int, cmd *exec.Cmd) {
	err := cmd.Wait()
	if p.Registry != nil {
		p.Registry.Remove(taskID)
	}
	log := logger.WithTaskID(taskID)
	log.Debug().Int("pid", pid).Err(err).Msg("worker 进程已退出")
	if p.OnExit != nil {
		p.OnExit(taskID, pid, err)
	}
}
