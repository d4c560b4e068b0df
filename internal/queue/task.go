package asynqx

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeRecoverStale 周期性回收僵死任务
	TypeRecoverStale = "maintenance:recover_stale"
	// QueueMaintenance 维护任务所在队列
	QueueMaintenance = "fetchhub:maintenance"
)

// RecoverParams 回收任务参数
type RecoverParams struct {
	Timeout time.Duration
	// Unique > 0 时同一窗口内只保留一个待执行任务
	Unique time.Duration
}

func NewRecoverStaleTask() *asynq.Task {
	return asynq.NewTask(TypeRecoverStale, nil)
}

func RecoverOptions(p RecoverParams) []asynq.Option {
	opts := []asynq.Option{
		asynq.Queue(QueueMaintenance),
		// 下一个周期会再次执行，失败不重试
		asynq.MaxRetry(0),
	}
	if p.Timeout > 0 {
		opts = append(opts, asynq.Timeout(p.Timeout))
	}
	if p.Unique > 0 {
		opts = append(opts, asynq.Unique(p.Unique))
	}
	return opts
}
