package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/azhengyongqin/fetchhub/docs" // Swagger docs
	"github.com/azhengyongqin/fetchhub/internal/auth"
	"github.com/azhengyongqin/fetchhub/internal/cache"
	"github.com/azhengyongqin/fetchhub/internal/config"
	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/feed"
	"github.com/azhengyongqin/fetchhub/internal/healthcheck"
	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	asynqx "github.com/azhengyongqin/fetchhub/internal/queue"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	httpserver "github.com/azhengyongqin/fetchhub/internal/server"
	"github.com/azhengyongqin/fetchhub/internal/storage"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

const (
	// localRecoverInterval 未配置 Redis 时由后台循环定期回收
	localRecoverInterval = time.Minute
	poolStatsInterval    = 15 * time.Second
)

// 说明：
// - 单进程同时运行 HTTP API、调度循环与（可选的）asynq 周期维护。
// - worker 是独立进程，通过数据库回报状态；Redis 只用于加速，不是必需。

func main() {
	// 配置加载前先用默认参数初始化，保证错误可见
	if err := logger.Init(logger.Options{Level: "info"}); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.L.Fatal().Err(err).Msg("加载配置失败")
	}

	if err := logger.Init(logger.Options{
		Production: cfg.App.Production(),
		Level:      cfg.App.LogLevel,
		File:       cfg.App.LogFile,
	}); err != nil {
		logger.L.Fatal().Err(err).Msg("初始化日志失败")
	}

	logger.L.Info().
		Str("http", cfg.HTTP.Addr).
		Str("db", cfg.Database.Driver).
		Bool("redis", cfg.Redis.Enabled()).
		Int("max_workers", cfg.Orchestrator.MaxWorkers).
		Msg("服务启动")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, storage.DBConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.PostgresDSN,
		SQLitePath:      cfg.Database.SQLitePath,
		MaxOpenConns:    cfg.DBPool.MaxConns,
		MaxIdleConns:    cfg.DBPool.MinConns,
		ConnMaxLifetime: cfg.DBPool.MaxConnLifetime,
		ConnMaxIdleTime: cfg.DBPool.MaxConnIdleTime,
	})
	if err != nil {
		logger.L.Fatal().Err(err).Msg("连接数据库失败")
	}
	defer db.Close()

	if err := migrate(ctx, cfg, db); err != nil {
		logger.L.Fatal().Err(err).Msg("数据库迁移失败")
	}

	sqlDB, err := db.SqlDB()
	if err != nil {
		logger.L.Fatal().Err(err).Msg("获取数据库连接失败")
	}

	taskRepo := repository.NewTaskRepo(db.DB)
	eventRepo := repository.NewEventRepo(db.DB)
	collectionRepo := repository.NewCollectionRepo(db.DB)
	redactor := redact.New(cfg.RedactSecrets()...)
	events := eventlog.New(eventRepo, redactor, cfg.Orchestrator.EventRetention)
	registry := workers.NewRegistry()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.L.Fatal().Err(err).Msg("连接 Redis 失败")
		}
		defer redisClient.Close()
	}

	spawner := &orchestrator.ProcessSpawner{
		Bin:         cfg.Worker.Bin,
		Interpreter: cfg.Worker.Interpreter,
		Registry:    registry,
	}
	opts := orchestrator.Options{
		MaxWorkers:    cfg.Orchestrator.MaxWorkers,
		StaleAfter:    cfg.Orchestrator.StaleAfter,
		DrainInterval: cfg.Orchestrator.DrainInterval,
	}
	if redisClient == nil || cfg.Orchestrator.RecoverSchedule == "" {
		opts.RecoverInterval = localRecoverInterval
	}
	svc := orchestrator.New(orchestrator.Deps{
		Tasks:       taskRepo,
		Events:      eventRepo,
		Collections: collectionRepo,
		Log:         events,
		Spawner:     spawner,
	}, opts)
	spawner.OnExit = func(int64, int, error) { svc.NotifyExit() }

	recovered, res, err := svc.RecoverAndDrain(ctx)
	if err != nil {
		logger.L.Error().Err(err).Msg("启动回收失败")
	}
	logger.L.Info().Int("recovered", recovered).Int("started", res.Started).Msg("启动回收完成")

	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L.Error().Err(err).Msg("调度循环退出")
		}
	}()

	recoverParams := asynqx.RecoverParams{Timeout: time.Minute, Unique: 30 * time.Second}
	var (
		snapshotCache cache.SnapshotCache = cache.NewLocalCache(cfg.Feed.CacheTTL)
		maintenance   *asynqx.Maintenance
		queueClient   *asynqx.Client
	)
	if redisClient != nil {
		snapshotCache = cache.NewRedisCache(redisClient)

		go func() {
			if err := asynqx.SubscribeFinished(ctx, redisClient, func(int64) { svc.Nudge() }); err != nil {
				logger.L.Warn().Err(err).Msg("完成通知订阅退出")
			}
		}()

		queueClient, err = asynqx.NewClient(cfg.Redis.Addr)
		if err != nil {
			logger.L.Fatal().Err(err).Msg("创建 asynq client 失败")
		}
		defer queueClient.Close()

		if cfg.Orchestrator.RecoverSchedule != "" {
			connOpt, err := asynqx.NewRedisConnOpt(cfg.Redis.Addr)
			if err != nil {
				logger.L.Fatal().Err(err).Msg("解析 Redis URI 失败")
			}
			maintenance = asynqx.NewMaintenance(connOpt, cfg.Orchestrator.RecoverSchedule, recoverParams, svc)
			if err := maintenance.Start(); err != nil {
				logger.L.Fatal().Err(err).Msg("启动周期回收失败")
			}
		}
	}

	hub := feed.NewHub(feed.NewSnapshotter(svc, snapshotCache, cfg.Feed.CacheTTL), feed.Options{
		Interval:       cfg.Feed.Interval,
		Keepalive:      cfg.Feed.Keepalive,
		MaxConnections: cfg.Feed.MaxConnections,
	})

	var tokens *auth.JWTService
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewJWTService(cfg.Auth.JWTSecret, auth.DefaultTTL)
	}

	deps := httpserver.Deps{
		Service:       svc,
		Feed:          hub,
		Registry:      registry,
		RecoverParams: recoverParams,
		Tokens:        tokens,
		DefaultUserID: cfg.Auth.DefaultUserID,
		Redactor:      redactor,
		HealthChecker: healthcheck.NewHealthChecker(db.Driver, sqlDB, redisClient),
	}
	if queueClient != nil {
		deps.Maintenance = queueClient
	}

	go reportPoolStats(ctx, sqlDB.Stats)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpserver.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.L.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP 服务监听")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal().Err(err).Msg("HTTP 服务错误")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// SSE 连接不会自行结束，超时后强制关闭
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		_ = httpSrv.Close()
	}
	if maintenance != nil {
		maintenance.Shutdown()
	}
	// worker 是独立进程组，编排进程退出不影响它们，重启后由回收逻辑接管
	logger.L.Info().Int("workers", registry.Len()).Msg("服务已优雅关闭")
}

// migrate 配置了 MIGRATIONS_DIR 时执行 SQL 迁移（仅 postgres），否则使用 gorm AutoMigrate
func migrate(ctx context.Context, cfg *config.Config, db *storage.DB) error {
	if cfg.Database.MigrationsDir == "" || db.Driver != storage.DriverPostgres {
		return repository.AutoMigrate(db.DB)
	}
	sqlDB, err := storage.OpenStdlib(cfg.Database.PostgresDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := storage.ApplyMigrationsFromDir(ctx, sqlDB, cfg.Database.MigrationsDir); err != nil {
		return err
	}
	logger.L.Info().Str("dir", cfg.Database.MigrationsDir).Msg("SQL 迁移完成")
	return nil
}

func reportPoolStats(ctx context.Context, stats func() sql.DBStats) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := stats()
			metrics.UpdateDBPoolStats(s.InUse, s.Idle, s.MaxOpenConnections)
		}
	}
}
