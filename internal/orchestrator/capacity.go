package orchestrator

import (
	"context"
	"fmt"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
)

// DrainResult 一次 drain 的结果
type DrainResult struct {
	Active  int `json:"active"`
	Slots   int `json:"slots"`
	Started int `json:"started"`
	Failed  int `json:"failed"`
}

// ActiveWorkerCount running 任务 + 已认领尚未确认启动的 queued 任务
func (s *Service) ActiveWorkerCount(ctx context.Context) (int, error) {
	return s.tasks.CountActive(ctx)
}

// Claim 原子认领：只有一个调用方能成功
func (s *Service) Claim(ctx context.Context, taskID int64) (bool, error) {
	ok, err := s.tasks.Claim(ctx, taskID, s.now())
	if err != nil {
		return false, fmt.Errorf("claim task %d: %w", taskID, err)
	}
	metrics.RecordClaim(ok)
	return ok, nil
}

// DrainQueued 按剩余名额认领最早的排队任务并启动 worker。
// 单个任务启动失败不影响其它任务。
func (s *Service) DrainQueued(ctx context.Context) (DrainResult, error) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	var res DrainResult
	active, err := s.ActiveWorkerCount(ctx)
	if err != nil {
		return res, fmt.Errorf("count active workers: %w", err)
	}
	metrics.UpdateActiveWorkers(active)
	res.Active = active
	res.Slots = s.maxWorkers - active
	if res.Slots <= 0 {
		return res, nil
	}

	candidates, err := s.tasks.ListClaimable(ctx, res.Slots)
	if err != nil {
		return res, fmt.Errorf("list claimable: %w", err)
	}
	for i := range candidates {
		t := candidates[i]
		ok, err := s.Claim(ctx, t.ID)
		if err != nil {
			log := logger.WithTaskID(t.ID)
			log.Error().Err(err).Msg("认领失败")
			continue
		}
		if !ok {
			continue
		}
		if err := s.spawn(ctx, &t); err != nil {
			res.Failed++
			continue
		}
		res.Started++
	}
	if res.Started > 0 || res.Failed > 0 {
		logger.Info().
			Int("active", res.Active).
			Int("started", res.Started).
			Int("failed", res.Failed).
			Msg("drain 完成")
	}
	return res, nil
}
