package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// EnqueueRequest 提交下载任务的参数
type EnqueueRequest struct {
	Source          string
	URL             string
	Format          string
	Quality         string
	CodecPreference string
	CollectionID    *int64
	CollectionName  string
}

// Enqueue 校验请求、创建 queued 任务并立即尝试调度。
// 进程启动失败不会作为错误返回，结果体现在返回任务的状态与事件上。
func (s *Service) Enqueue(ctx context.Context, userID int64, req EnqueueRequest) (*repository.Task, error) {
	if userID <= 0 {
		return nil, &ValidationError{Field: "user_id", Message: "caller is required"}
	}
	kind, u, err := model.ParseSourceURL(model.SourceKind(strings.ToLower(strings.TrimSpace(req.Source))), req.URL)
	if err != nil {
		return nil, &ValidationError{Field: "source_url", Message: err.Error()}
	}
	collectionID, err := s.resolveCollection(ctx, userID, req.CollectionID, req.CollectionName)
	if err != nil {
		return nil, err
	}

	task := &repository.Task{
		UserID:          userID,
		Source:          kind,
		SourceURL:       u.String(),
		Format:          model.NormalizeFormat(req.Format),
		Quality:         model.NormalizeQuality(req.Quality),
		CodecPreference: model.NormalizeCodecPreference(req.CodecPreference),
		CollectionID:    collectionID,
		Status:          model.TaskStatusQueued,
	}
	return s.admit(ctx, task, "submit")
}

// admit 落库、写入首条事件并触发一次 drain
func (s *Service) admit(ctx context.Context, task *repository.Task, origin string) (*repository.Task, error) {
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	metrics.RecordTaskCreated(string(task.Source), origin)

	log := logger.WithTaskID(task.ID)
	if err := s.log.Status(ctx, task.ID, task.UserID, QueuedMessage); err != nil {
		log.Error().Err(err).Msg("写入 queued 事件失败")
	}
	if task.RetryOf != nil {
		if err := s.log.Info(ctx, task.ID, task.UserID, fmt.Sprintf("Retry of task #%d.", *task.RetryOf)); err != nil {
			log.Error().Err(err).Msg("写入 retry 事件失败")
		}
	}
	log.Info().Str("source", string(task.Source)).Str("origin", origin).Msg("任务已入队")

	if _, err := s.DrainQueued(ctx); err != nil {
		log.Error().Err(err).Msg("drain 失败")
	}

	fresh, err := s.tasks.GetTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return fresh, nil
}

func (s *Service) resolveCollection(ctx context.Context, userID int64, id *int64, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if id != nil && name != "" {
		return nil, &ConflictError{Message: "collection_id and collection_name are mutually exclusive"}
	}
	if id != nil {
		c, err := s.collections.GetCollection(ctx, userID, *id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "collection", ID: *id}
		}
		if err != nil {
			return nil, fmt.Errorf("get collection: %w", err)
		}
		return &c.ID, nil
	}
	if name != "" {
		c, err := s.collections.GetOrCreateCollection(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("get or create collection: %w", err)
		}
		return &c.ID, nil
	}
	return nil, nil
}
