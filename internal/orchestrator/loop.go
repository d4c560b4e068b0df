package orchestrator

import (
	"context"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
)

// Nudge 请求后台循环尽快执行一次 drain（非阻塞，合并重复请求）
func (s *Service) Nudge() {
	select {
	case s.drainCh <- struct{}{}:
	default:
	}
}

// NotifyExit 子进程退出：回收僵死任务后再 drain
func (s *Service) NotifyExit() {
	select {
	case s.exitCh <- struct{}{}:
	default:
	}
}

// RecoverAndDrain 先回收再 drain（启动时、运维触发与定时任务共用）
func (s *Service) RecoverAndDrain(ctx context.Context) (int, DrainResult, error) {
	recovered, rerr := s.RecoverStale(ctx)
	if rerr != nil {
		logger.Error().Err(rerr).Msg("回收僵死任务失败")
	}
	res, err := s.DrainQueued(ctx)
	if err != nil {
		return recovered, res, err
	}
	if rerr != nil {
		return recovered, res, &RecoverError{Err: rerr}
	}
	return recovered, res, nil
}

// Run 后台调度循环，直到 ctx 取消
func (s *Service) Run(ctx context.Context) error {
	drainTicker := time.NewTicker(s.drainInterval)
	defer drainTicker.Stop()

	var recoverC <-chan time.Time
	if s.recoverInterval > 0 {
		t := time.NewTicker(s.recoverInterval)
		defer t.Stop()
		recoverC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-drainTicker.C:
			s.drainLogged(ctx)
		case <-s.drainCh:
			s.drainLogged(ctx)
		case <-s.exitCh:
			if _, _, err := s.RecoverAndDrain(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("退出回收失败")
			}
		case <-recoverC:
			if _, _, err := s.RecoverAndDrain(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("定时回收失败")
			}
		}
	}
}

func (s *Service) drainLogged(ctx context.Context) {
	if _, err := s.DrainQueued(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("drain 失败")
	}
}
