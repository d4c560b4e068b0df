package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/azhengyongqin/fetchhub/internal/model"
)

// TaskRepo 基于 GORM 的任务仓储
type TaskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建任务仓储
func NewTaskRepo(db *gorm.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) CreateTask(ctx context.Context, t *Task) error {
	if t.UserID <= 0 {
		return errors.New("user_id 不能为空")
	}
	if t.Status == "" {
		t.Status = model.TaskStatusQueued
	}
	m := TaskToModel(*t)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*t = m.ToTask()
	return nil
}

func (r *TaskRepo) GetTask(ctx context.Context, id int64) (*Task, error) {
	var m TaskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	t := m.ToTask()
	return &t, nil
}

func (r *TaskRepo) filtered(ctx context.Context, f ListTasksFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&TaskModel{})
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	return q
}

func (r *TaskRepo) ListTasks(ctx context.Context, f ListTasksFilter) ([]Task, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var models []TaskModel
	if err := r.filtered(ctx, f).Order("id desc").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, err
	}
	return toTasks(models), nil
}

func (r *TaskRepo) CountTasks(ctx context.Context, f ListTasksFilter) (int, error) {
	var n int64
	if err := r.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountActive running 任务加上已认领但尚未启动的 queued 任务
func (r *TaskRepo) CountActive(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("status = ? OR (status = ? AND worker_pid IS NOT NULL)", model.TaskStatusRunning, model.TaskStatusQueued).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *TaskRepo) ListClaimable(ctx context.Context, limit int) ([]Task, error) {
	if limit <= 0 {
		return nil, nil
	}
	var models []TaskModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND worker_pid IS NULL", model.TaskStatusQueued).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toTasks(models), nil
}

func (r *TaskRepo) Claim(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ? AND worker_pid IS NULL", id, model.TaskStatusQueued).
		Updates(map[string]any{
			"worker_pid": model.PendingPID,
			"claimed_at": now,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) MarkSpawned(ctx context.Context, id int64, pid int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status IN ?", id, []string{string(model.TaskStatusQueued), string(model.TaskStatusRunning)}).
		Updates(map[string]any{
			"worker_pid": pid,
			"status":     gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END", model.TaskStatusQueued, model.TaskStatusRunning),
			"started_at": gorm.Expr("COALESCE(started_at, ?)", now),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) FailSpawn(ctx context.Context, id int64, message string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, model.TaskStatusQueued).
		Updates(map[string]any{
			"status":        model.TaskStatusFailed,
			"worker_pid":    nil,
			"error_message": message,
			"completed_at":  now,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) ListRunning(ctx context.Context) ([]Task, error) {
	var models []TaskModel
	if err := r.db.WithContext(ctx).Where("status = ?", model.TaskStatusRunning).Order("id asc").Find(&models).Error; err != nil {
		return nil, err
	}
	return toTasks(models), nil
}

func (r *TaskRepo) ForceFail(ctx context.Context, id int64, g StaleGuard, message string, now time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, model.TaskStatusRunning)
	switch {
	case g.PID != nil:
		q = q.Where("worker_pid = ?", *g.PID)
	case g.HeartbeatBefore != nil:
		q = q.Where("heartbeat_at IS NOT NULL AND heartbeat_at < ?", *g.HeartbeatBefore)
	case g.NoHeartbeatStartedBefore != nil:
		q = q.Where("heartbeat_at IS NULL AND (started_at IS NULL OR started_at < ?)", *g.NoHeartbeatStartedBefore)
	default:
		return false, errors.New("stale guard 不能为空")
	}
	res := q.Updates(map[string]any{
		"status":        model.TaskStatusFailed,
		"worker_pid":    nil,
		"error_message": message,
		"completed_at":  now,
	})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) ListStaleClaims(ctx context.Context, before time.Time) ([]Task, error) {
	var models []TaskModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND worker_pid IS NOT NULL AND claimed_at < ?", model.TaskStatusQueued, before).
		Order("id asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toTasks(models), nil
}

func (r *TaskRepo) ReleaseClaim(ctx context.Context, id int64, pid int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ? AND worker_pid = ?", id, model.TaskStatusQueued, pid).
		Updates(map[string]any{
			"worker_pid": nil,
			"claimed_at": nil,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) MarkRunning(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status IN ?", id, []string{string(model.TaskStatusQueued), string(model.TaskStatusRunning)}).
		Updates(map[string]any{
			"status":       model.TaskStatusRunning,
			"heartbeat_at": now,
			"started_at":   gorm.Expr("COALESCE(started_at, ?)", now),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) Heartbeat(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, model.TaskStatusRunning).
		Update("heartbeat_at", now)
	return res.RowsAffected == 1, res.Error
}

func (r *TaskRepo) Finish(ctx context.Context, id int64, status model.TaskStatus, message string, now time.Time) (bool, error) {
	if !status.IsTerminal() {
		return false, errors.New("finish 只接受终态: " + string(status))
	}
	updates := map[string]any{
		"status":       status,
		"completed_at": now,
		"heartbeat_at": now,
	}
	if message != "" {
		updates["error_message"] = message
	}
	res := r.db.WithContext(ctx).Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, model.TaskStatusRunning).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func toTasks(models []TaskModel) []Task {
	out := make([]Task, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToTask())
	}
	return out
}
