// Package orchestrator 负责任务的准入、认领、worker 进程监管、僵死任务回收与重试。
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

const (
	DefaultMaxWorkers    = 4
	MinMaxWorkers        = 1
	MaxMaxWorkers        = 32
	DefaultStaleAfter    = 5 * time.Minute
	DefaultDrainInterval = 10 * time.Second

	// QueuedMessage 任务创建后的第一条事件
	QueuedMessage = "Task queued."
	// StaleMessage 回收僵死任务时写入的固定错误信息
	StaleMessage = "Worker process died or stopped responding."
)

// Spawner 启动一个独立的 worker 进程，返回其 PID
type Spawner interface {
	Spawn(ctx context.Context, taskID int64) (int, error)
}

// Prober 判断 PID 对应的进程是否存活
type Prober interface {
	Alive(pid int) bool
}

// ProberFunc 函数形式的 Prober
type ProberFunc func(pid int) bool

func (f ProberFunc) Alive(pid int) bool { return f(pid) }

// Deps 服务依赖
type Deps struct {
	Tasks       repository.TaskRepository
	Events      repository.EventRepository
	Collections repository.CollectionRepository
	Log         *eventlog.Log
	Spawner     Spawner
	Prober      Prober
}

// Options 调度参数
type Options struct {
	MaxWorkers    int
	StaleAfter    time.Duration
	DrainInterval time.Duration
	// RecoverInterval > 0 时后台循环也会定期回收僵死任务
	RecoverInterval time.Duration
	Now             func() time.Time
}

// Service 任务编排服务
type Service struct {
	tasks       repository.TaskRepository
	events      repository.EventRepository
	collections repository.CollectionRepository
	log         *eventlog.Log
	spawner     Spawner
	prober      Prober

	maxWorkers      int
	staleAfter      time.Duration
	drainInterval   time.Duration
	recoverInterval time.Duration
	now             func() time.Time

	// drainMu 同一进程内的 drain 串行执行
	drainMu sync.Mutex
	drainCh chan struct{}
	exitCh  chan struct{}
}

// New 创建编排服务
func New(deps Deps, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Service{
		tasks:           deps.Tasks,
		events:          deps.Events,
		collections:     deps.Collections,
		log:             deps.Log,
		spawner:         deps.Spawner,
		prober:          deps.Prober,
		maxWorkers:      ClampMaxWorkers(opts.MaxWorkers),
		staleAfter:      opts.StaleAfter,
		drainInterval:   opts.DrainInterval,
		recoverInterval: opts.RecoverInterval,
		now:             func() time.Time { return now().UTC() },
		drainCh:         make(chan struct{}, 1),
		exitCh:          make(chan struct{}, 1),
	}
	if s.staleAfter <= 0 {
		s.staleAfter = DefaultStaleAfter
	}
	if s.drainInterval <= 0 {
		s.drainInterval = DefaultDrainInterval
	}
	if s.prober == nil {
		s.prober = ProberFunc(ProcessAlive)
	}
	return s
}

// ClampMaxWorkers 限制在 [1, 32]，未配置时取默认值
func ClampMaxWorkers(n int) int {
	switch {
	case n == 0:
		return DefaultMaxWorkers
	case n < MinMaxWorkers:
		return MinMaxWorkers
	case n > MaxMaxWorkers:
		return MaxMaxWorkers
	default:
		return n
	}
}

// MaxWorkers 当前并发上限
func (s *Service) MaxWorkers() int { return s.maxWorkers }

// StaleAfter 僵死判定窗口
func (s *Service) StaleAfter() time.Duration { return s.staleAfter }
