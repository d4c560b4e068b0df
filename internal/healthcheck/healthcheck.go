package healthcheck

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Pinger 可探测的依赖
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker 健康检查器
type HealthChecker struct {
	dbName string
	db     Pinger
	redis  *redis.Client
}

// NewHealthChecker 创建健康检查器；redisClient 为 nil 时跳过 Redis 检查
func NewHealthChecker(dbName string, db Pinger, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{dbName: dbName, db: db, redis: redisClient}
}

// CheckResult 健康检查结果
type CheckResult struct {
	Status string            `json:"status"` // "ok" or "error"
	Checks map[string]string `json:"checks"`
}

// OK 是否全部通过
func (r CheckResult) OK() bool { return r.Status == "ok" }

// LivenessCheck 存活检查（不检查依赖）
func (h *HealthChecker) LivenessCheck() CheckResult {
	return CheckResult{
		Status: "ok",
		Checks: map[string]string{"service": "running"},
	}
}

// ReadinessCheck 就绪检查（检查数据库与可选的 Redis）
func (h *HealthChecker) ReadinessCheck(ctx context.Context) CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := CheckResult{Status: "ok", Checks: make(map[string]string)}

	record := func(name string, err error) {
		if err != nil {
			result.Checks[name] = "error: " + err.Error()
			result.Status = "error"
			return
		}
		result.Checks[name] = "ok"
	}

	if h.db != nil {
		record(h.name(), h.ping(ctx, h.db.PingContext))
	}
	if h.redis != nil {
		record("redis", h.ping(ctx, func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		}))
	}
	return result
}

func (h *HealthChecker) name() string {
	if h.dbName == "" {
		return "database"
	}
	return h.dbName
}

func (h *HealthChecker) ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return fn(ctx)
}
