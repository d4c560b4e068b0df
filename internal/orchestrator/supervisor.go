package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// bookkeepingTimeout 启动前后落库的超时，不随调用方取消
const bookkeepingTimeout = 10 * time.Second

// spawn 启动已认领任务的 worker 进程并记录 PID。
// 进程一旦启动即视为成功，PID 记录失败只记日志，由 reconciler 按心跳窗口兜底。
func (s *Service) spawn(ctx context.Context, t *repository.Task) error {
	log := logger.WithTaskID(t.ID)

	pid, err := s.spawner.Spawn(ctx, t.ID)

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()
	ctx = bctx

	if err != nil {
		metrics.RecordSpawn(false)
		serr := &SpawnError{TaskID: t.ID, Err: err}
		s.failSpawn(ctx, t, serr)
		return serr
	}
	metrics.RecordSpawn(true)

	ok, err := s.tasks.MarkSpawned(ctx, t.ID, pid, s.now())
	if err != nil {
		log.Error().Err(err).Int("pid", pid).Msg("记录 worker PID 失败")
		return nil
	}
	if !ok {
		// worker 已经把任务推进到终态
		log.Debug().Int("pid", pid).Msg("任务已结束，跳过 PID 记录")
	}
	if err := s.log.Info(ctx, t.ID, t.UserID, fmt.Sprintf("Worker started (pid %d).", pid)); err != nil {
		log.Error().Err(err).Msg("写入启动事件失败")
	}
	log.Info().Int("pid", pid).Msg("worker 已启动")
	return nil
}

// failSpawn 任务直接置为 failed，清除保留 PID 并写入 error 事件
func (s *Service) failSpawn(ctx context.Context, t *repository.Task, serr *SpawnError) {
	log := logger.WithTaskID(t.ID)
	msg := s.log.Redactor().Message("Failed to start worker: "+serr.Err.Error(), redact.DefaultMaxMessage)

	ok, err := s.tasks.FailSpawn(ctx, t.ID, msg, s.now())
	if err != nil {
		log.Error().Err(err).Msg("标记启动失败出错")
		return
	}
	if !ok {
		return
	}
	metrics.RecordTaskFinished(string(model.TaskStatusFailed), "spawn", 0)
	if err := s.log.Error(ctx, t.ID, t.UserID, msg, map[string]any{"stage": "spawn"}); err != nil {
		log.Error().Err(err).Msg("写入启动失败事件出错")
	}
	log.Warn().Str("error", msg).Msg("worker 启动失败")
}
