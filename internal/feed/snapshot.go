package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/cache"
	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
)

// Lister 分页任务列表
type Lister interface {
	ListTasks(ctx context.Context, userID int64, q orchestrator.ListQuery) (*orchestrator.TaskPage, error)
}

// Snapshotter 计算快照，并让相同 (调用者, 过滤条件) 的连接共享短期缓存
type Snapshotter struct {
	lister Lister
	cache  cache.SnapshotCache
	ttl    time.Duration
}

// NewSnapshotter c 为 nil 时不缓存；ttl 应小于推送间隔
func NewSnapshotter(lister Lister, c cache.SnapshotCache, ttl time.Duration) *Snapshotter {
	return &Snapshotter{lister: lister, cache: c, ttl: ttl}
}

func (s *Snapshotter) Snapshot(ctx context.Context, userID int64, q orchestrator.ListQuery) ([]byte, error) {
	key := cache.CacheKey("feed",
		strconv.FormatInt(userID, 10), q.Status, q.Source,
		strconv.Itoa(q.Limit), strconv.Itoa(q.Offset))

	if s.cache != nil && s.ttl > 0 {
		b, err := s.cache.Get(ctx, key)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("读取快照缓存失败")
		}
	}

	page, err := s.lister.ListTasks(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			logger.Warn().Err(err).Msg("写入快照缓存失败")
		}
	}
	return b, nil
}
