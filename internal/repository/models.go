package repository

import (
	"encoding/json"
	"time"

	"github.com/azhengyongqin/fetchhub/internal/model"
)

// TaskModel GORM 模型 - 对应 task 表
type TaskModel struct {
	ID              int64      `gorm:"primaryKey;autoIncrement;column:id"`
	UserID          int64      `gorm:"column:user_id;not null;index:idx_task_user_created"`
	Source          string     `gorm:"column:source;type:text;not null"`
	SourceURL       string     `gorm:"column:source_url;type:text;not null"`
	Format          string     `gorm:"column:format;type:text;not null"`
	Quality         string     `gorm:"column:quality;type:text;not null"`
	CodecPreference string     `gorm:"column:codec_preference;type:text;not null"`
	CollectionID    *int64     `gorm:"column:collection_id"`
	Status          string     `gorm:"column:status;type:text;not null;index:idx_task_status_pid"`
	WorkerPID       *int       `gorm:"column:worker_pid;index:idx_task_status_pid"`
	ClaimedAt       *time.Time `gorm:"column:claimed_at"`
	HeartbeatAt     *time.Time `gorm:"column:heartbeat_at"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	ErrorMessage    *string    `gorm:"column:error_message;type:text"`
	RetryOf         *int64     `gorm:"column:retry_of"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_task_user_created,sort:desc"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName 指定表名
func (TaskModel) TableName() string { return "task" }

// ToTask 转换为 Task 实体
func (m *TaskModel) ToTask() Task {
	t := Task{
		ID:              m.ID,
		UserID:          m.UserID,
		Source:          model.SourceKind(m.Source),
		SourceURL:       m.SourceURL,
		Format:          model.Format(m.Format),
		Quality:         model.Quality(m.Quality),
		CodecPreference: model.CodecPreference(m.CodecPreference),
		CollectionID:    m.CollectionID,
		Status:          model.TaskStatus(m.Status),
		WorkerPID:       m.WorkerPID,
		ClaimedAt:       m.ClaimedAt,
		HeartbeatAt:     m.HeartbeatAt,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		RetryOf:         m.RetryOf,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ErrorMessage != nil {
		t.ErrorMessage = *m.ErrorMessage
	}
	return t
}

// TaskToModel 从 Task 实体创建模型
func TaskToModel(t Task) TaskModel {
	m := TaskModel{
		ID:              t.ID,
		UserID:          t.UserID,
		Source:          string(t.Source),
		SourceURL:       t.SourceURL,
		Format:          string(t.Format),
		Quality:         string(t.Quality),
		CodecPreference: string(t.CodecPreference),
		CollectionID:    t.CollectionID,
		Status:          string(t.Status),
		WorkerPID:       t.WorkerPID,
		ClaimedAt:       t.ClaimedAt,
		HeartbeatAt:     t.HeartbeatAt,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
		RetryOf:         t.RetryOf,
	}
	if t.ErrorMessage != "" {
		m.ErrorMessage = &t.ErrorMessage
	}
	return m
}

// TaskEventModel GORM 模型 - 对应 task_event 表（只追加）
type TaskEventModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement;column:id"`
	TaskID    int64           `gorm:"column:task_id;not null;index:idx_event_task_id"`
	UserID    int64           `gorm:"column:user_id;not null;index"`
	Level     string          `gorm:"column:level;type:text;not null"`
	Message   string          `gorm:"column:message;type:text;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName 指定表名
func (TaskEventModel) TableName() string { return "task_event" }

// ToEvent 转换为 TaskEvent 实体
func (m *TaskEventModel) ToEvent() TaskEvent {
	return TaskEvent{
		ID:        m.ID,
		TaskID:    m.TaskID,
		UserID:    m.UserID,
		Level:     model.EventLevel(m.Level),
		Message:   m.Message,
		Payload:   m.Payload,
		CreatedAt: m.CreatedAt,
	}
}

// EventToModel 从 TaskEvent 实体创建模型
func EventToModel(e TaskEvent) TaskEventModel {
	return TaskEventModel{
		TaskID:  e.TaskID,
		UserID:  e.UserID,
		Level:   string(e.Level),
		Message: e.Message,
		Payload: e.Payload,
	}
}

// CollectionModel GORM 模型 - 对应 collection 表（专辑/播放列表）
type CollectionModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_collection_user_name"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex:idx_collection_user_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName 指定表名
func (CollectionModel) TableName() string { return "collection" }

// ToCollection 转换为 Collection 实体
func (m *CollectionModel) ToCollection() Collection {
	return Collection{ID: m.ID, UserID: m.UserID, Name: m.Name, CreatedAt: m.CreatedAt}
}

// Models 返回需要迁移的全部模型
func Models() []any {
	return []any{&TaskModel{}, &TaskEventModel{}, &CollectionModel{}}
}
