package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// 僵死原因
const (
	StaleReasonDeadProcess = "dead_process"
	StaleReasonHeartbeat   = "stale_heartbeat"
	StaleReasonNoHeartbeat = "no_heartbeat"
)

// RecoverStale 把进程已死或心跳超时的 running 任务置为 failed，返回回收数量。
// 可重复执行，也可与正常调度并发执行。
func (s *Service) RecoverStale(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.staleAfter)

	running, err := s.tasks.ListRunning(ctx)
	if err != nil {
		return 0, fmt.Errorf("list running tasks: %w", err)
	}

	var (
		recovered int
		errs      []error
	)
	for i := range running {
		t := running[i]
		guard, reason, stale := s.staleGuard(t, cutoff)
		if !stale {
			continue
		}
		ok, err := s.tasks.ForceFail(ctx, t.ID, guard, StaleMessage, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("force fail task %d: %w", t.ID, err))
			continue
		}
		if !ok {
			// 已被 worker 或其它回收方处理
			continue
		}
		recovered++
		s.recordRecovered(ctx, t, reason, now)
	}

	if err := s.releaseStaleClaims(ctx, cutoff); err != nil {
		errs = append(errs, err)
	}
	metrics.RecordRecovered(recovered)
	if recovered > 0 {
		logger.Info().Int("recovered", recovered).Msg("已回收僵死任务")
	}
	return recovered, errors.Join(errs...)
}

// staleGuard 判断任务是否僵死，并给出写入时需要再次满足的条件
func (s *Service) staleGuard(t repository.Task, cutoff time.Time) (repository.StaleGuard, string, bool) {
	if t.WorkerPID != nil && *t.WorkerPID > 0 && !s.prober.Alive(*t.WorkerPID) {
		pid := *t.WorkerPID
		return repository.StaleGuard{PID: &pid}, StaleReasonDeadProcess, true
	}
	if t.HeartbeatAt != nil {
		if t.HeartbeatAt.Before(cutoff) {
			return repository.StaleGuard{HeartbeatBefore: &cutoff}, StaleReasonHeartbeat, true
		}
		return repository.StaleGuard{}, "", false
	}
	if t.StartedAt == nil || t.StartedAt.Before(cutoff) {
		return repository.StaleGuard{NoHeartbeatStartedBefore: &cutoff}, StaleReasonNoHeartbeat, true
	}
	return repository.StaleGuard{}, "", false
}

func (s *Service) recordRecovered(ctx context.Context, t repository.Task, reason string, now time.Time) {
	log := logger.WithTaskID(t.ID)
	payload := map[string]any{"reason": reason}
	if t.WorkerPID != nil {
		payload["pid"] = *t.WorkerPID
	}
	if t.HeartbeatAt != nil {
		payload["heartbeat_at"] = t.HeartbeatAt.UTC().Format(time.RFC3339)
	}
	if err := s.log.Error(ctx, t.ID, t.UserID, StaleMessage, payload); err != nil {
		log.Error().Err(err).Msg("写入回收事件失败")
	}

	var duration float64
	if t.StartedAt != nil {
		duration = now.Sub(*t.StartedAt).Seconds()
	}
	metrics.RecordTaskFinished(string(model.TaskStatusFailed), "stale", duration)
	log.Warn().Str("reason", reason).Msg("任务已被回收")
}

// releaseStaleClaims 认领后长时间未启动（保留 PID 或进程已死）的任务退回队列
func (s *Service) releaseStaleClaims(ctx context.Context, cutoff time.Time) error {
	claims, err := s.tasks.ListStaleClaims(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale claims: %w", err)
	}
	var errs []error
	for _, t := range claims {
		if t.WorkerPID == nil {
			continue
		}
		pid := *t.WorkerPID
		if pid != model.PendingPID && s.prober.Alive(pid) {
			continue
		}
		ok, err := s.tasks.ReleaseClaim(ctx, t.ID, pid)
		if err != nil {
			errs = append(errs, fmt.Errorf("release claim %d: %w", t.ID, err))
			continue
		}
		if ok {
			log := logger.WithTaskID(t.ID)
			log.Warn().Int("pid", pid).Msg("认领超时，任务退回队列")
		}
	}
	return errors.Join(errs...)
}
