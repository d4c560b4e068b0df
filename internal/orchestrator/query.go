package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListQuery 任务列表查询参数（实时推送与列表接口共用）
type ListQuery struct {
	Status string `json:"status,omitempty"`
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Normalize 校验过滤条件并补齐分页默认值
func (q ListQuery) Normalize() (ListQuery, error) {
	if q.Status != "" && !model.TaskStatus(q.Status).Valid() {
		return q, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", q.Status)}
	}
	if q.Source != "" && !model.SourceKind(q.Source).Valid() {
		return q, &ValidationError{Field: "source", Message: fmt.Sprintf("unknown source %q", q.Source)}
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}

// TaskView 附带最新一条事件的任务
type TaskView struct {
	repository.Task
	LatestEvent *repository.TaskEvent `json:"latest_event,omitempty"`
}

// TaskPage 分页结果
type TaskPage struct {
	Items  []TaskView `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ListTasks 调用者的任务列表，每个任务附带最新事件
func (s *Service) ListTasks(ctx context.Context, userID int64, q ListQuery) (*TaskPage, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	filter := repository.ListTasksFilter{
		UserID: userID,
		Status: q.Status,
		Source: q.Source,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	items, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	total, err := s.tasks.CountTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	ids := make([]int64, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ID)
	}
	latest, err := s.events.LatestEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("latest events: %w", err)
	}

	page := &TaskPage{Items: make([]TaskView, 0, len(items)), Total: total, Limit: q.Limit, Offset: q.Offset}
	for _, t := range items {
		view := TaskView{Task: t}
		if ev, ok := latest[t.ID]; ok {
			view.LatestEvent = &ev
		}
		page.Items = append(page.Items, view)
	}
	return page, nil
}

// GetTask 获取调用者的任务
func (s *Service) GetTask(ctx context.Context, userID, taskID int64) (*repository.Task, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && t.UserID != userID) {
		return nil, &NotFoundError{Resource: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListEvents 调用者任务的事件（按插入顺序）
func (s *Service) ListEvents(ctx context.Context, userID, taskID, afterID int64, limit int) ([]repository.TaskEvent, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	events, err := s.events.ListEvents(ctx, taskID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// RecentEvents 调用者任务最新的 limit 条事件
func (s *Service) RecentEvents(ctx context.Context, userID, taskID int64, limit int) ([]repository.TaskEvent, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	events, err := s.events.RecentEvents(ctx, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}
