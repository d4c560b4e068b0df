// Package sdk 是 worker 进程侧的运行框架：确认启动、维持心跳、上报事件，并保证任务只写入一次终态。
package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second

	RunningMessage   = "Worker running."
	CompletedMessage = "Task completed."

	// finishTimeout 收到退出信号后仍然留给终态写入的时间
	finishTimeout = 30 * time.Second
)

var (
	// ErrNotRunnable 任务已结束或已被回收
	ErrNotRunnable = errors.New("task is not runnable")
	// ErrLost 运行期间任务被回收（心跳写入不再生效）
	ErrLost = errors.New("task was recovered while running")
)

// TaskStore worker 需要的任务存储能力
type TaskStore interface {
	GetTask(ctx context.Context, id int64) (*repository.Task, error)
	MarkRunning(ctx context.Context, id int64, now time.Time) (bool, error)
	Heartbeat(ctx context.Context, id int64, now time.Time) (bool, error)
	Finish(ctx context.Context, id int64, status model.TaskStatus, message string, now time.Time) (bool, error)
}

// Notifier 终态写入后通知编排进程（可选）
type Notifier interface {
	PublishFinished(ctx context.Context, taskID int64) error
}

// JobFunc 执行实际的下载；返回 error 表示任务失败
type JobFunc func(ctx context.Context, task *repository.Task, rep *Reporter) error

// Runner 驱动单个任务的生命周期
type Runner struct {
	Tasks    TaskStore
	Events   EventWriter
	Redactor *redact.Redactor
	Notifier Notifier

	HeartbeatInterval time.Duration
	ProgressGap       time.Duration
	Retry             RetryConfig
	Now               func() time.Time
}

// NewRunner 创建 Runner，未设置的参数取默认值
func NewRunner(tasks TaskStore, events EventWriter, redactor *redact.Redactor) *Runner {
	return &Runner{
		Tasks:             tasks,
		Events:            events,
		Redactor:          redactor,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ProgressGap:       DefaultProgressGap,
		Retry:             DefaultRetryConfig(),
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Run 执行任务并写入唯一终态，返回最终状态
func (r *Runner) Run(ctx context.Context, taskID int64, job JobFunc) (model.TaskStatus, error) {
	log := logger.WithTaskID(taskID)

	var task *repository.Task
	err := withRetry(ctx, "get task", r.Retry, func(ctx context.Context) error {
		var err error
		task, err = r.Tasks.GetTask(ctx, taskID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return "", err
	}
	if task == nil {
		return "", fmt.Errorf("task %d: %w", taskID, repository.ErrNotFound)
	}
	if task.Status.IsTerminal() {
		return task.Status, ErrNotRunnable
	}

	ok, err := r.Tasks.MarkRunning(ctx, taskID, r.now())
	if err != nil {
		return "", fmt.Errorf("mark running: %w", err)
	}
	if !ok {
		return "", ErrNotRunnable
	}
	started := time.Now()

	rep := NewReporter(r.Events, task, r.ProgressGap, r.now)
	if err := rep.append(ctx, model.EventLevelStatus, RunningMessage, nil); err != nil {
		log.Warn().Err(err).Msg("写入 running 事件失败")
	}
	log.Info().Str("source", string(task.Source)).Msg("任务开始执行")

	jobCtx, cancel := context.WithCancel(ctx)
	var lost atomic.Bool
	hb := NewHeartbeatManager(r.Tasks, taskID, r.HeartbeatInterval, r.now, func() {
		lost.Store(true)
		cancel()
	})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hb.Start(jobCtx)
	}()

	jobErr := runJob(jobCtx, job, task, rep)
	hb.Stop()
	cancel()
	wg.Wait()

	if lost.Load() {
		log.Warn().Msg("任务已被回收，放弃写入终态")
		return model.TaskStatusFailed, ErrLost
	}

	status, message := r.outcome(ctx, jobErr, rep)

	// 进程收到退出信号时 ctx 已取消，终态仍需写入
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer finishCancel()

	var finished bool
	err = withRetry(finishCtx, "finish", r.Retry, func(ctx context.Context) error {
		var err error
		finished, err = r.Tasks.Finish(ctx, taskID, status, message, r.now())
		return err
	})
	if err != nil {
		return status, err
	}
	if !finished {
		log.Warn().Str("status", string(status)).Msg("任务已不在 running，终态未写入")
		return status, ErrLost
	}

	r.finalEvent(finishCtx, rep, status, message)
	metrics.RecordTaskFinished(string(status), "worker", time.Since(started).Seconds())
	log.Info().Str("status", string(status)).Dur("duration(ms)", time.Since(started)).Msg("任务结束")

	if r.Notifier != nil {
		if err := r.Notifier.PublishFinished(finishCtx, taskID); err != nil {
			log.Warn().Err(err).Msg("发布完成通知失败")
		}
	}
	return status, nil
}

// outcome 根据执行结果确定终态与（脱敏后的）错误信息
func (r *Runner) outcome(ctx context.Context, jobErr error, rep *Reporter) (model.TaskStatus, string) {
	total, failed := rep.Tracks()
	switch {
	case jobErr != nil:
		msg := jobErr.Error()
		if ctx.Err() != nil {
			msg = "Worker interrupted: " + msg
		}
		return model.TaskStatusFailed, r.Redactor.Message(msg, redact.DefaultMaxMessage)
	case failed > 0 && failed == total:
		return model.TaskStatusFailed, fmt.Sprintf("All %d tracks failed.", total)
	case failed > 0:
		return model.TaskStatusCompletedWithErrors, fmt.Sprintf("%d of %d tracks failed.", failed, total)
	default:
		return model.TaskStatusCompleted, ""
	}
}

func (r *Runner) finalEvent(ctx context.Context, rep *Reporter, status model.TaskStatus, message string) {
	var err error
	switch status {
	case model.TaskStatusFailed:
		err = rep.append(ctx, model.EventLevelError, "Task failed: "+message, map[string]string{"stage": "worker"})
	case model.TaskStatusCompletedWithErrors:
		err = rep.append(ctx, model.EventLevelStatus, "Task completed with errors: "+message, nil)
	default:
		err = rep.append(ctx, model.EventLevelStatus, CompletedMessage, nil)
	}
	if err != nil {
		log := logger.WithTaskID(rep.taskID)
		log.Warn().Err(err).Msg("写入终态事件失败")
	}
}

// runJob 执行 job，panic 视为失败
func runJob(ctx context.Context, job JobFunc, task *repository.Task, rep *Reporter) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panic: %v", p)
		}
	}()
	return job(ctx, task, rep)
}
