package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/azhengyongqin/fetchhub/internal/model"
)

// ErrNotFound 记录不存在（或不属于调用者）
var ErrNotFound = errors.New("record not found")

// Task 表示下载任务实体
type Task struct {
	ID              int64                 `json:"id"`
	UserID          int64                 `json:"user_id"`
	Source          model.SourceKind      `json:"source"`
	SourceURL       string                `json:"source_url"`
	Format          model.Format          `json:"format"`
	Quality         model.Quality         `json:"quality"`
	CodecPreference model.CodecPreference `json:"codec_preference"`
	CollectionID    *int64                `json:"collection_id,omitempty"`
	Status          model.TaskStatus      `json:"status"`
	WorkerPID       *int                  `json:"worker_pid,omitempty"`
	ClaimedAt       *time.Time            `json:"claimed_at,omitempty"`
	HeartbeatAt     *time.Time            `json:"heartbeat_at,omitempty"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	ErrorMessage    string                `json:"error_message,omitempty"`
	RetryOf         *int64                `json:"retry_of,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TaskEvent 表示任务事件日志中的一行
type TaskEvent struct {
	ID        int64            `json:"id"`
	TaskID    int64            `json:"task_id"`
	UserID    int64            `json:"user_id"`
	Level     model.EventLevel `json:"level"`
	Message   string           `json:"message"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Collection 表示目标专辑/播放列表
type Collection struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTasksFilter 任务列表查询过滤条件
type ListTasksFilter struct {
	UserID int64
	Status string
	Source string
	Limit  int
	Offset int
}

// StaleGuard 强制失败时的条件，保证只有在判定依据仍然成立时才写入
type StaleGuard struct {
	// PID 记录的 PID 必须仍然等于该值
	PID *int
	// HeartbeatBefore 心跳必须早于该时间
	HeartbeatBefore *time.Time
	// NoHeartbeatStartedBefore 没有心跳且启动时间早于该时间
	NoHeartbeatStartedBefore *time.Time
}

// TaskRepository 任务仓储接口
type TaskRepository interface {
	// CreateTask 新建任务，回填 ID 与时间戳
	CreateTask(ctx context.Context, task *Task) error

	// GetTask 根据 id 获取任务详情
	GetTask(ctx context.Context, id int64) (*Task, error)

	// ListTasks 查询任务列表（支持分页和过滤）
	ListTasks(ctx context.Context, filter ListTasksFilter) ([]Task, error)

	// CountTasks 统计任务总数
	CountTasks(ctx context.Context, filter ListTasksFilter) (int, error)

	// CountActive 统计占用 worker 名额的任务数
	CountActive(ctx context.Context) (int, error)

	// ListClaimable 最早的、未被认领的排队任务
	ListClaimable(ctx context.Context, limit int) ([]Task, error)

	// Claim 条件更新：仅当任务仍为 queued 且 worker_pid 为空时写入保留 PID
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)

	// MarkSpawned 记录 worker 进程 PID，并把 queued 迁移为 running
	MarkSpawned(ctx context.Context, id int64, pid int, now time.Time) (bool, error)

	// FailSpawn 进程启动失败：任务置为 failed 并释放名额
	FailSpawn(ctx context.Context, id int64, message string, now time.Time) (bool, error)

	// ListRunning 所有 running 任务
	ListRunning(ctx context.Context) ([]Task, error)

	// ForceFail 回收：在 guard 仍成立时把 running 任务置为 failed
	ForceFail(ctx context.Context, id int64, guard StaleGuard, message string, now time.Time) (bool, error)

	// ListStaleClaims 认领时间早于 before 但仍停留在 queued 的任务
	ListStaleClaims(ctx context.Context, before time.Time) ([]Task, error)

	// ReleaseClaim 清除认领，任务重新回到可调度状态
	ReleaseClaim(ctx context.Context, id int64, pid int) (bool, error)

	// MarkRunning worker 确认启动（幂等）
	MarkRunning(ctx context.Context, id int64, now time.Time) (bool, error)

	// Heartbeat 更新心跳时间
	Heartbeat(ctx context.Context, id int64, now time.Time) (bool, error)

	// Finish worker 写入唯一的终态
	Finish(ctx context.Context, id int64, status model.TaskStatus, message string, now time.Time) (bool, error)
}

// EventRepository 任务事件仓储接口
type EventRepository interface {
	// AppendEvent 追加事件，并按 retention 裁剪最旧的事件
	AppendEvent(ctx context.Context, event *TaskEvent, retention int) error

	// ListEvents 按插入顺序列出 afterID 之后的事件
	ListEvents(ctx context.Context, taskID, afterID int64, limit int) ([]TaskEvent, error)

	// RecentEvents 最新的 limit 条事件，按插入顺序返回
	RecentEvents(ctx context.Context, taskID int64, limit int) ([]TaskEvent, error)

	// LatestEvents 每个任务最新的一条事件
	LatestEvents(ctx context.Context, taskIDs []int64) (map[int64]TaskEvent, error)

	// CountEvents 统计任务事件数
	CountEvents(ctx context.Context, taskID int64) (int, error)
}

// CollectionRepository 专辑/播放列表仓储接口
type CollectionRepository interface {
	// GetCollection 获取属于 userID 的专辑
	GetCollection(ctx context.Context, userID, id int64) (*Collection, error)

	// GetOrCreateCollection 按名称获取或创建（并发创建冲突时重新读取）
	GetOrCreateCollection(ctx context.Context, userID int64, name string) (*Collection, error)
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
