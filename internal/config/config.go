package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置（编排服务与 worker 共用）
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Database     DatabaseConfig
	DBPool       DBPoolConfig
	Redis        RedisConfig
	Orchestrator OrchestratorConfig
	Worker       WorkerConfig
	Feed         FeedConfig
	Auth         AuthConfig
	Redact       RedactConfig
}

// AppConfig 运行环境与日志
type AppConfig struct {
	Env      string
	LogLevel string
	LogFile  string
}

// Production 是否生产环境
func (a AppConfig) Production() bool { return a.Env == "production" }

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver        string // postgres | sqlite
	PostgresDSN   string
	SQLitePath    string
	MigrationsDir string
}

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig Redis 配置（可选）
type RedisConfig struct {
	Addr string
}

// Enabled 是否配置了 Redis
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// OrchestratorConfig 调度配置
type OrchestratorConfig struct {
	MaxWorkers      int
	StaleAfter      time.Duration
	DrainInterval   time.Duration
	RecoverSchedule string
	EventRetention  int
}

// WorkerConfig worker 进程配置
type WorkerConfig struct {
	Bin               string
	Interpreter       string
	HeartbeatInterval time.Duration
	DownloadDir       string
	// YtdlpBin 为空时使用 PATH 中的 yt-dlp
	YtdlpBin          string
}

// FeedConfig 实时推送配置
type FeedConfig struct {
	Interval       time.Duration
	Keepalive      time.Duration
	MaxConnections int
	CacheTTL       time.Duration
}

// AuthConfig 鉴权配置；JWTSecret 为空时为单用户模式
type AuthConfig struct {
	JWTSecret     string
	DefaultUserID int64
}

// RedactConfig 脱敏配置
type RedactConfig struct {
	Secrets []string
}

const (
	minWorkers      = 1
	maxWorkers      = 32
	minFeedInterval = 2 * time.Second
)

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// 允许从环境变量读取（优先级最高）
	v.AutomaticEnv()

	// 读取配置文件（如果存在）
	_ = v.ReadInConfig() // 忽略错误，因为可能只使用环境变量

	setDefaults(v)

	cfg := &Config{}

	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")
	cfg.App.LogFile = v.GetString("LOG_FILE")

	cfg.HTTP.Addr = v.GetString("HTTP_ADDR")

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER")))
	cfg.Database.PostgresDSN = v.GetString("POSTGRES_DSN")
	cfg.Database.SQLitePath = v.GetString("SQLITE_PATH")
	cfg.Database.MigrationsDir = v.GetString("MIGRATIONS_DIR")

	cfg.DBPool.MaxConns = v.GetInt("DB_MAX_CONNS")
	cfg.DBPool.MinConns = v.GetInt("DB_MIN_CONNS")
	cfg.DBPool.MaxConnLifetime = v.GetDuration("DB_MAX_CONN_LIFETIME")
	cfg.DBPool.MaxConnIdleTime = v.GetDuration("DB_MAX_CONN_IDLE_TIME")

	cfg.Redis.Addr = strings.TrimSpace(v.GetString("REDIS_ADDR"))

	cfg.Orchestrator.MaxWorkers = clamp(v.GetInt("MAX_WORKERS"), minWorkers, maxWorkers)
	cfg.Orchestrator.StaleAfter = v.GetDuration("STALE_AFTER")
	cfg.Orchestrator.DrainInterval = v.GetDuration("DRAIN_INTERVAL")
	cfg.Orchestrator.RecoverSchedule = strings.TrimSpace(v.GetString("RECOVER_SCHEDULE"))
	cfg.Orchestrator.EventRetention = v.GetInt("EVENT_RETENTION")

	cfg.Worker.Bin = v.GetString("WORKER_BIN")
	cfg.Worker.Interpreter = v.GetString("WORKER_INTERPRETER")
	cfg.Worker.HeartbeatInterval = v.GetDuration("HEARTBEAT_INTERVAL")
	cfg.Worker.DownloadDir = v.GetString("DOWNLOAD_DIR")
	cfg.Worker.YtdlpBin = strings.TrimSpace(v.GetString("YTDLP_BIN"))

	cfg.Feed.Interval = v.GetDuration("FEED_INTERVAL")
	if cfg.Feed.Interval < minFeedInterval {
		cfg.Feed.Interval = minFeedInterval
	}
	cfg.Feed.Keepalive = v.GetDuration("FEED_KEEPALIVE")
	cfg.Feed.MaxConnections = v.GetInt("FEED_MAX_CONNECTIONS")
	cfg.Feed.CacheTTL = v.GetDuration("FEED_CACHE_TTL")
	if cfg.Feed.CacheTTL >= cfg.Feed.Interval {
		cfg.Feed.CacheTTL = cfg.Feed.Interval / 2
	}

	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Auth.DefaultUserID = v.GetInt64("DEFAULT_USER_ID")

	cfg.Redact.Secrets = splitList(v.GetString("REDACT_SECRETS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":28080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "data/fetchhub.db")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", 5*time.Minute)
	v.SetDefault("MAX_WORKERS", 4)
	v.SetDefault("STALE_AFTER", 5*time.Minute)
	v.SetDefault("DRAIN_INTERVAL", 10*time.Second)
	v.SetDefault("RECOVER_SCHEDULE", "@every 1m")
	v.SetDefault("EVENT_RETENTION", 500)
	v.SetDefault("WORKER_BIN", "fetchhub-worker")
	v.SetDefault("HEARTBEAT_INTERVAL", 30*time.Second)
	v.SetDefault("DOWNLOAD_DIR", "data/media")
	v.SetDefault("FEED_INTERVAL", 5*time.Second)
	v.SetDefault("FEED_KEEPALIVE", 25*time.Second)
	v.SetDefault("FEED_MAX_CONNECTIONS", 20)
	v.SetDefault("FEED_CACHE_TTL", time.Second)
	v.SetDefault("DEFAULT_USER_ID", 1)
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Orchestrator.StaleAfter <= 0 {
		return fmt.Errorf("STALE_AFTER must be positive")
	}
	if c.Worker.HeartbeatInterval <= 0 || c.Worker.HeartbeatInterval >= c.Orchestrator.StaleAfter {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive and shorter than STALE_AFTER")
	}
	if c.Orchestrator.EventRetention <= 0 {
		return fmt.Errorf("EVENT_RETENTION must be positive")
	}
	if c.Feed.MaxConnections <= 0 {
		return fmt.Errorf("FEED_MAX_CONNECTIONS must be positive")
	}
	if c.Auth.JWTSecret == "" && c.Auth.DefaultUserID <= 0 {
		return fmt.Errorf("DEFAULT_USER_ID must be positive when JWT_SECRET is empty")
	}
	return nil
}

// RedactSecrets 需要从持久化文本中屏蔽的所有密钥
func (c *Config) RedactSecrets() []string {
	out := append([]string(nil), c.Redact.Secrets...)
	if c.Auth.JWTSecret != "" {
		out = append(out, c.Auth.JWTSecret)
	}
	if u, err := url.Parse(c.Database.PostgresDSN); err == nil && u.User != nil {
		if pw, ok := u.User.Password(); ok && pw != "" {
			out = append(out, pw)
		}
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
