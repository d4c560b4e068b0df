package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/logger"
)

// RetryConfig 写库重试配置（终态写入不能因为一次连接抖动而丢失）
type RetryConfig struct {
	MaxRetries     int           // 最大重试次数，默认 3
	InitialBackoff time.Duration // 初始退避时间，默认 500ms
	MaxBackoff     time.Duration // 最大退避时间，默认 10s
	BackoffFactor  float64       // 退避因子，默认 2.0
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}
}

// withRetry 指数退避重试 fn
func withRetry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn().Err(err).Str("op", name).Int("attempt", attempt+1).Int("max", cfg.MaxRetries+1).Msg("写入失败")
	}
	return fmt.Errorf("%s: 已达最大重试次数: %w", name, lastErr)
}
