package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/azhengyongqin/fetchhub/internal/cache"
	"github.com/azhengyongqin/fetchhub/internal/config"
	"github.com/azhengyongqin/fetchhub/internal/downloader"
	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/logger"
	asynqx "github.com/azhengyongqin/fetchhub/internal/queue"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/internal/storage"
	"github.com/azhengyongqin/fetchhub/sdk"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var downloadDir string

	cmd := &cobra.Command{
		Use:           "fetchhub-worker <task-id>",
		Short:         "执行单个下载任务",
		Long:          "由编排进程以独立进程启动，下载指定任务并把进度与结果写回数据库",
		Version:       "1.0.0",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || taskID <= 0 {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return run(cmd.Context(), taskID, downloadDir)
		},
	}
	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "覆盖 DOWNLOAD_DIR")
	return cmd
}

func run(parent context.Context, taskID int64, downloadDir string) error {
	sdk.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// 标准输出被编排进程丢弃，需要排查时配置 LOG_FILE
	if err := logger.Init(logger.Options{
		Production: true,
		Level:      cfg.App.LogLevel,
		File:       cfg.App.LogFile,
	}); err != nil {
		return err
	}
	log := logger.WithTaskID(taskID)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, storage.DBConfig{
		Driver:     cfg.Database.Driver,
		DSN:        cfg.Database.PostgresDSN,
		SQLitePath: cfg.Database.SQLitePath,
		// 每个 worker 只需要少量连接
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		log.Error().Err(err).Msg("连接数据库失败")
		return err
	}
	defer db.Close()

	redactor := redact.New(cfg.RedactSecrets()...)
	events := eventlog.New(repository.NewEventRepo(db.DB), redactor, cfg.Orchestrator.EventRetention)

	runner := sdk.NewRunner(repository.NewTaskRepo(db.DB), events, redactor)
	runner.HeartbeatInterval = cfg.Worker.HeartbeatInterval

	if cfg.Redis.Enabled() {
		var client *redis.Client
		client, err = cache.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			// 通知只是加速，编排进程的 drain 定时器会兜底
			log.Warn().Err(err).Msg("连接 Redis 失败，跳过完成通知")
		} else {
			defer client.Close()
			runner.Notifier = asynqx.FinishedPublisher{Client: client}
		}
	}

	if downloadDir == "" {
		downloadDir = cfg.Worker.DownloadDir
	}
	dl := downloader.New(downloadDir, cfg.Worker.YtdlpBin)

	status, err := runner.Run(ctx, taskID, dl.Job())
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("worker 退出")
		return err
	}
	return nil
}
