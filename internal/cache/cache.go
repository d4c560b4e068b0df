package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = fmt.Errorf("cache miss")

// SnapshotCache 序列化快照的短期缓存
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// LocalCache 进程内缓存（未配置 Redis 时使用）
type LocalCache struct {
	c *gocache.Cache
}

// NewLocalCache 创建进程内缓存
func NewLocalCache(defaultExpiration time.Duration) *LocalCache {
	return &LocalCache{c: gocache.New(defaultExpiration, 10*time.Minute)}
}

func (l *LocalCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (l *LocalCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	l.c.Set(key, value, expiration)
	return nil
}

func (l *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.c.Delete(k)
	}
	return nil
}

// CacheKey 生成缓存 key
func CacheKey(prefix string, parts ...string) string {
	key := "fetchhub:" + prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
