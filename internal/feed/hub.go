// Package feed 实现实时任务状态推送：定时重算快照，只在内容变化时推送。
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
)

// 推送帧名称
const (
	EventTasks = "tasks"
	EventError = "error"
)

const (
	DefaultInterval       = 5 * time.Second
	MinInterval           = 2 * time.Second
	DefaultKeepalive      = 25 * time.Second
	DefaultMaxConnections = 20
)

// ErrTooManyConnections 超过连接上限
var ErrTooManyConnections = errors.New("too many live feed connections")

// Sink 推送通道（SSE 连接）
type Sink interface {
	Event(name string, data []byte) error
	Comment(text string) error
}

// Source 计算某个调用者的序列化快照
type Source interface {
	Snapshot(ctx context.Context, userID int64, q orchestrator.ListQuery) ([]byte, error)
}

// Options 推送参数
type Options struct {
	Interval       time.Duration
	Keepalive      time.Duration
	MaxConnections int
}

// Hub 管理所有推送连接
type Hub struct {
	source    Source
	interval  time.Duration
	keepalive time.Duration
	slots     chan struct{}
}

// NewHub 创建推送中心；Interval 的下限在配置加载时处理
func NewHub(source Source, opts Options) *Hub {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Keepalive <= 0 {
		opts.Keepalive = DefaultKeepalive
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = DefaultMaxConnections
	}
	return &Hub{
		source:    source,
		interval:  opts.Interval,
		keepalive: opts.Keepalive,
		slots:     make(chan struct{}, opts.MaxConnections),
	}
}

// Acquire 占用一个连接名额；返回的 release 必须调用
func (h *Hub) Acquire() (release func(), err error) {
	select {
	case h.slots <- struct{}{}:
	default:
		return nil, ErrTooManyConnections
	}
	metrics.FeedConnected(1)
	var released bool
	return func() {
		if released {
			return
		}
		released = true
		<-h.slots
		metrics.FeedConnected(-1)
	}, nil
}

// Connections 当前连接数
func (h *Hub) Connections() int { return len(h.slots) }

// Serve 推送循环，直到 ctx 取消、写入失败或快照计算出错。
// 调用方需先 Acquire。
func (h *Hub) Serve(ctx context.Context, sink Sink, userID int64, q orchestrator.ListQuery) error {
	interval := time.NewTicker(h.interval)
	defer interval.Stop()
	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	var last []byte
	push := func() error {
		snap, err := h.source.Snapshot(ctx, userID, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Int64("user_id", userID).Msg("计算推送快照失败")
			frame, _ := json.Marshal(map[string]string{"error": "failed to compute snapshot"})
			_ = sink.Event(EventError, frame)
			metrics.RecordFeedFrame(EventError)
			return err
		}
		if last != nil && bytes.Equal(snap, last) {
			return nil
		}
		if err := sink.Event(EventTasks, snap); err != nil {
			return err
		}
		metrics.RecordFeedFrame(EventTasks)
		last = snap
		return nil
	}

	if err := push(); err != nil {
		return ignoreCanceled(err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-interval.C:
			if err := push(); err != nil {
				return ignoreCanceled(err)
			}
		case <-keepalive.C:
			if err := sink.Comment("ping"); err != nil {
				return ignoreCanceled(err)
			}
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
