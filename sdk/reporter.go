package sdk

import (
	"context"
	"sync"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// DefaultProgressGap 两条 progress 事件的最小间隔
const DefaultProgressGap = time.Second

// EventWriter 事件日志写入
type EventWriter interface {
	Append(ctx context.Context, e eventlog.Entry) (*repository.TaskEvent, error)
}

// ProgressPayload progress 事件载荷
type ProgressPayload struct {
	Percent float64 `json:"percent"`
	Stage   string  `json:"stage,omitempty"`
}

// TrackPayload track 事件载荷
type TrackPayload struct {
	Title string `json:"title"`
	OK    bool   `json:"ok"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// Reporter 某个任务的事件上报器。progress 事件按间隔节流，避免挤掉保留窗口里的其它事件。
type Reporter struct {
	events EventWriter
	taskID int64
	userID int64
	gap    time.Duration
	now    func() time.Time

	mu           sync.Mutex
	lastProgress time.Time
	tracks       int
	trackErrors  int
}

// NewReporter 创建上报器；gap 为 0 时不节流
func NewReporter(events EventWriter, task *repository.Task, gap time.Duration, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{events: events, taskID: task.ID, userID: task.UserID, gap: gap, now: now}
}

func (r *Reporter) append(ctx context.Context, level model.EventLevel, msg string, payload any) error {
	_, err := r.events.Append(ctx, eventlog.Entry{
		TaskID:  r.taskID,
		UserID:  r.userID,
		Level:   level,
		Message: msg,
		Payload: payload,
	})
	return err
}

// Progress 上报进度（0-100）；100% 与阶段切换总是写入
func (r *Reporter) Progress(ctx context.Context, percent float64, stage, message string) error {
	r.mu.Lock()
	now := r.now()
	if percent < 100 && r.gap > 0 && !r.lastProgress.IsZero() && now.Sub(r.lastProgress) < r.gap {
		r.mu.Unlock()
		return nil
	}
	r.lastProgress = now
	r.mu.Unlock()
	return r.append(ctx, model.EventLevelProgress, message, ProgressPayload{Percent: percent, Stage: stage})
}

// Track 上报单个曲目的结果；失败的曲目会让任务以 completed_with_errors 结束
func (r *Reporter) Track(ctx context.Context, t TrackPayload) error {
	r.mu.Lock()
	r.tracks++
	if !t.OK {
		r.trackErrors++
	}
	r.mu.Unlock()

	msg := "Track finished: " + t.Title
	if !t.OK {
		msg = "Track failed: " + t.Title
	}
	return r.append(ctx, model.EventLevelTrack, msg, t)
}

// Info 普通信息
func (r *Reporter) Info(ctx context.Context, message string) error {
	return r.append(ctx, model.EventLevelInfo, message, nil)
}

// Error 非致命错误
func (r *Reporter) Error(ctx context.Context, message string, payload any) error {
	return r.append(ctx, model.EventLevelError, message, payload)
}

// Tracks 曲目总数与失败数
func (r *Reporter) Tracks() (total, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracks, r.trackErrors
}
