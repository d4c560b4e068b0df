package sdk

import (
	"context"
	"sync"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
)

// heartbeatTimeout 单次心跳写入的超时时间
const heartbeatTimeout = 5 * time.Second

// HeartbeatManager 任务心跳：周期刷新 heartbeat_at，写入不再生效时回调 onLost
type HeartbeatManager struct {
	tasks    TaskStore
	taskID   int64
	interval time.Duration
	now      func() time.Time
	onLost   func()

	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewHeartbeatManager 创建心跳管理器
func NewHeartbeatManager(tasks TaskStore, taskID int64, interval time.Duration, now func() time.Time, onLost func()) *HeartbeatManager {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if now == nil {
		now = time.Now
	}
	return &HeartbeatManager{
		tasks:    tasks,
		taskID:   taskID,
		interval: interval,
		now:      now,
		onLost:   onLost,
		stopCh:   make(chan struct{}),
	}
}

// Start 阻塞运行，直到 ctx 取消、Stop 或任务丢失
func (h *HeartbeatManager) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			if !h.beat(ctx) {
				if h.onLost != nil {
					h.onLost()
				}
				return
			}
		}
	}
}

// Stop 停止心跳
func (h *HeartbeatManager) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.stopped {
		close(h.stopCh)
		h.stopped = true
	}
}

// beat 写入一次心跳；只有确认任务已不在 running 时返回 false，写入错误留给下一次重试
func (h *HeartbeatManager) beat(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, heartbeatTimeout)
	defer cancel()

	ok, err := h.tasks.Heartbeat(ctx, h.taskID, h.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			log := logger.WithTaskID(h.taskID)
			log.Warn().Err(err).Msg("心跳写入失败")
		}
		return true
	}
	return ok
}
