package dto

import (
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// CreateTaskRequest 提交下载任务
type CreateTaskRequest struct {
	Source          string `json:"source" example:"youtube"` // 可省略，按域名推断
	URL             string `json:"url" binding:"required" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	Format          string `json:"format" example:"mp3"`
	Quality         string `json:"quality" example:"high"`
	CodecPreference string `json:"codec_preference" example:"any"`
	CollectionID    *int64 `json:"collection_id,omitempty"`
	CollectionName  string `json:"collection_name,omitempty" example:"Road Trip"`
}

// ToEnqueueRequest 转换为编排层参数
func (r CreateTaskRequest) ToEnqueueRequest() orchestrator.EnqueueRequest {
	return orchestrator.EnqueueRequest{
		Source:          r.Source,
		URL:             r.URL,
		Format:          r.Format,
		Quality:         r.Quality,
		CodecPreference: r.CodecPreference,
		CollectionID:    r.CollectionID,
		CollectionName:  r.CollectionName,
	}
}

// TaskListRequest 任务列表/实时推送的查询参数
type TaskListRequest struct {
	Status string `form:"status" example:"running"`
	Source string `form:"source" example:"youtube"`
	Limit  int    `form:"limit" example:"20"`
	Offset int    `form:"offset" example:"0"`
}

// ToListQuery 转换为编排层查询
func (r TaskListRequest) ToListQuery() orchestrator.ListQuery {
	return orchestrator.ListQuery{Status: r.Status, Source: r.Source, Limit: r.Limit, Offset: r.Offset}
}

// TaskListResponse 任务列表响应
type TaskListResponse = orchestrator.TaskPage

// TaskDetailResponse 任务详情，附带最近的事件
type TaskDetailResponse struct {
	Task   *repository.Task       `json:"task"`
	Events []repository.TaskEvent `json:"events"`
}

// EventListRequest 事件分页参数
type EventListRequest struct {
	AfterID int64 `form:"after_id" example:"0"`
	Limit   int   `form:"limit" example:"200"`
}

// EventListResponse 事件列表；next_after_id 用于下一页
type EventListResponse struct {
	Items       []repository.TaskEvent `json:"items"`
	NextAfterID int64                  `json:"next_after_id"`
}
