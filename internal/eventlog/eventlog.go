// Package eventlog 是任务事件日志的唯一写入入口：写入前统一脱敏、截断并执行保留策略。
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// DefaultRetention 每个任务保留的事件条数
const DefaultRetention = 500

// Entry 待写入的事件
type Entry struct {
	TaskID  int64
	UserID  int64
	Level   model.EventLevel
	Message string
	// Payload 可为 json.RawMessage、[]byte 或任意可 JSON 序列化的值
	Payload any
}

// Log 事件日志
type Log struct {
	repo       repository.EventRepository
	redactor   *redact.Redactor
	retention  int
	maxMessage int
	maxPayload int
}

// New 创建事件日志；retention <= 0 时使用默认值
func New(repo repository.EventRepository, redactor *redact.Redactor, retention int) *Log {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Log{
		repo:       repo,
		redactor:   redactor,
		retention:  retention,
		maxMessage: redact.DefaultMaxMessage,
		maxPayload: redact.DefaultMaxPayload,
	}
}

// Redactor 返回共享的脱敏器
func (l *Log) Redactor() *redact.Redactor { return l.redactor }

// Append 脱敏后追加一条事件
func (l *Log) Append(ctx context.Context, e Entry) (*repository.TaskEvent, error) {
	if !e.Level.Valid() {
		return nil, fmt.Errorf("invalid event level %q", e.Level)
	}
	raw, err := encodePayload(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	ev := &repository.TaskEvent{
		TaskID:  e.TaskID,
		UserID:  e.UserID,
		Level:   e.Level,
		Message: l.redactor.Message(e.Message, l.maxMessage),
		Payload: l.redactor.Payload(raw, l.maxPayload),
	}
	if err := l.repo.AppendEvent(ctx, ev, l.retention); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	metrics.RecordEventAppended(string(e.Level))
	return ev, nil
}

// Status 追加 status 事件
func (l *Log) Status(ctx context.Context, taskID, userID int64, message string) error {
	_, err := l.Append(ctx, Entry{TaskID: taskID, UserID: userID, Level: model.EventLevelStatus, Message: message})
	return err
}

// Info 追加 info 事件
func (l *Log) Info(ctx context.Context, taskID, userID int64, message string) error {
	_, err := l.Append(ctx, Entry{TaskID: taskID, UserID: userID, Level: model.EventLevelInfo, Message: message})
	return err
}

// Error 追加 error 事件
func (l *Log) Error(ctx context.Context, taskID, userID int64, message string, payload any) error {
	_, err := l.Append(ctx, Entry{TaskID: taskID, UserID: userID, Level: model.EventLevelError, Message: message, Payload: payload})
	return err
}

func encodePayload(p any) (json.RawMessage, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	default:
		return json.Marshal(v)
	}
}
