package asynqx

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
)

// Recoverer 执行回收 + drain
type Recoverer interface {
	RecoverAndDrain(ctx context.Context) (int, orchestrator.DrainResult, error)
}

// Maintenance 基于 asynq 的周期维护：scheduler 负责按 cron 入队，server 负责执行
type Maintenance struct {
	scheduler *asynq.Scheduler
	server    *asynq.Server
	mux       *asynq.ServeMux
	schedule  string
	params    RecoverParams
}

// NewMaintenance 创建维护组件；schedule 为 cron 表达式（如 "@every 1m"）
func NewMaintenance(connOpt asynq.RedisConnOpt, schedule string, params RecoverParams, rec Recoverer) *Maintenance {
	m := &Maintenance{
		scheduler: asynq.NewScheduler(connOpt, &asynq.SchedulerOpts{
			Logger:   zerologAdapter{},
			LogLevel: asynq.WarnLevel,
		}),
		server: asynq.NewServer(connOpt, asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{QueueMaintenance: 1},
			Logger:      zerologAdapter{},
			LogLevel:    asynq.WarnLevel,
		}),
		mux:      asynq.NewServeMux(),
		schedule: schedule,
		params:   params,
	}
	m.mux.HandleFunc(TypeRecoverStale, RecoverHandler(rec))
	return m
}

// RecoverHandler 处理 maintenance:recover_stale
func RecoverHandler(rec Recoverer) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		recovered, res, err := rec.RecoverAndDrain(ctx)
		if err != nil {
			return fmt.Errorf("recover stale: %w", err)
		}
		logger.Debug().
			Int("recovered", recovered).
			Int("started", res.Started).
			Dur("took", time.Since(start)).
			Msg("周期回收完成")
		return nil
	}
}

// Start 注册周期任务并启动（非阻塞）
func (m *Maintenance) Start() error {
	if _, err := m.scheduler.Register(m.schedule, NewRecoverStaleTask(), RecoverOptions(m.params)...); err != nil {
		return fmt.Errorf("register %s: %w", TypeRecoverStale, err)
	}
	if err := m.server.Start(m.mux); err != nil {
		return fmt.Errorf("start maintenance server: %w", err)
	}
	if err := m.scheduler.Start(); err != nil {
		m.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	logger.Info().Str("schedule", m.schedule).Msg("周期回收已启动")
	return nil
}

// Shutdown 停止 scheduler 与 server
func (m *Maintenance) Shutdown() {
	m.scheduler.Shutdown()
	m.server.Shutdown()
}

// zerologAdapter 把 asynq 日志接到全局 logger
type zerologAdapter struct{}

func (zerologAdapter) Debug(args ...interface{}) { logger.Debug().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Info(args ...interface{})  { logger.Info().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Warn(args ...interface{})  { logger.Warn().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Error(args ...interface{}) { logger.Error().Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Fatal(args ...interface{}) { logger.Fatal().Msg(fmt.Sprint(args...)) }
