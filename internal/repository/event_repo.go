package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// EventRepo 基于 GORM 的任务事件仓储
type EventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建事件仓储
func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

// AppendEvent 在同一事务内插入事件并裁剪超出 retention 的旧事件
func (r *EventRepo) AppendEvent(ctx context.Context, e *TaskEvent, retention int) error {
	if e.TaskID <= 0 {
		return errors.New("task_id 不能为空")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := EventToModel(*e)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*e = m.ToEvent()
		if retention <= 0 {
			return nil
		}

		// 第 retention+1 新的事件及更旧的都删除
		var cutoff []int64
		err := tx.Model(&TaskEventModel{}).
			Where("task_id = ?", e.TaskID).
			Order("id desc").
			Offset(retention).
			Limit(1).
			Pluck("id", &cutoff).Error
		if err != nil {
			return err
		}
		if len(cutoff) == 0 {
			return nil
		}
		return tx.Where("task_id = ? AND id <= ?", e.TaskID, cutoff[0]).Delete(&TaskEventModel{}).Error
	})
}

func (r *EventRepo) ListEvents(ctx context.Context, taskID, afterID int64, limit int) ([]TaskEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var models []TaskEventModel
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND id > ?", taskID, afterID).
		Order("id asc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]TaskEvent, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToEvent())
	}
	return out, nil
}

func (r *EventRepo) RecentEvents(ctx context.Context, taskID int64, limit int) ([]TaskEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	var models []TaskEventModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id desc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]TaskEvent, len(models))
	for i := range models {
		out[len(models)-1-i] = models[i].ToEvent()
	}
	return out, nil
}

func (r *EventRepo) LatestEvents(ctx context.Context, taskIDs []int64) (map[int64]TaskEvent, error) {
	out := make(map[int64]TaskEvent, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	sub := r.db.WithContext(ctx).Model(&TaskEventModel{}).
		Select("MAX(id)").
		Where("task_id IN ?", taskIDs).
		Group("task_id")

	var models []TaskEventModel
	if err := r.db.WithContext(ctx).Where("id IN (?)", sub).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		out[models[i].TaskID] = models[i].ToEvent()
	}
	return out, nil
}

func (r *EventRepo) CountEvents(ctx context.Context, taskID int64) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&TaskEventModel{}).Where("task_id = ?", taskID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
