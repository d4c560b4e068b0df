package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// Retry 为终态任务创建一个参数相同的新任务；原任务保持不变
func (s *Service) Retry(ctx context.Context, userID, taskID int64) (*repository.Task, error) {
	orig, err := s.tasks.GetTask(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && orig.UserID != userID) {
		return nil, &NotFoundError{Resource: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if !orig.Status.IsTerminal() {
		return nil, &ConflictError{Message: fmt.Sprintf("task %d is %s; only finished tasks can be retried", taskID, orig.Status)}
	}

	retryOf := orig.ID
	clone := &repository.Task{
		UserID:          orig.UserID,
		Source:          orig.Source,
		SourceURL:       orig.SourceURL,
		Format:          orig.Format,
		Quality:         orig.Quality,
		CodecPreference: orig.CodecPreference,
		CollectionID:    orig.CollectionID,
		RetryOf:         &retryOf,
	}
	return s.admit(ctx, clone, "retry")
}
