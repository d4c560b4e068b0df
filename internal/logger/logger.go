package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L 全局 logger
	L zerolog.Logger
)

// Options 日志初始化参数
type Options struct {
	Production bool   // JSON 输出
	Level      string // debug / info / warn / error
	File       string // 非空时同时写入滚动日志文件
}

// Init 初始化日志器
func Init(opts Options) error {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer
	if opts.Production {
		// 生产环境：JSON 格式输出
		out = os.Stdout
	} else {
		// 开发环境：控制台友好格式
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			FieldsOrder: []string{
				"request_id",
				"task_id",
				"pid",
				"method",
				"path",
				"status",
				"duration(ms)",
				"client_ip",
				"errors",
			},
		}
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	L = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()

	SetLevel(opts.Level)
	return nil
}

// SetLevel 设置日志级别
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// WithRequestID 添加 request_id
func WithRequestID(requestID string) zerolog.Logger {
	return L.With().Str("request_id", requestID).Logger()
}

// WithTaskID 添加 task_id
func WithTaskID(taskID int64) zerolog.Logger {
	return L.With().Int64("task_id", taskID).Logger()
}

// Debug 输出 debug 级别日志
func Debug() *zerolog.Event {
	return L.Debug()
}

// Info 输出 info 级别日志
func Info() *zerolog.Event {
	return L.Info()
}

// Warn 输出 warn 级别日志
func Warn() *zerolog.Event {
	return L.Warn()
}

// Error 输出 error 级别日志
func Error() *zerolog.Event {
	return L.Error()
}

// Fatal 输出 fatal 级别日志并退出
func Fatal() *zerolog.Event {
	return L.Fatal()
}
