package dto

import (
	"time"

	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

// RecoverResponse 同步回收结果
type RecoverResponse struct {
	Recovered int `json:"recovered" example:"1"`
	Started   int `json:"started" example:"2"`
	Failed    int `json:"failed" example:"0"`
	Active    int `json:"active" example:"3"`
	// Errors 回收阶段的逐任务错误（drain 仍已执行）
	Errors []string `json:"errors,omitempty"`
}

// RecoverEnqueuedResponse 异步回收已入队
type RecoverEnqueuedResponse struct {
	AsynqTaskID string `json:"asynq_task_id"`
	Queue       string `json:"queue" example:"fetchhub:maintenance"`
}

// WorkerListResponse 本机 worker 子进程
type WorkerListResponse struct {
	Items      []workers.Process `json:"items"`
	Total      int               `json:"total"`
	MaxWorkers int               `json:"max_workers" example:"4"`
}

// MaintenanceStatsResponse 维护队列统计
type MaintenanceStatsResponse struct {
	Queue     string    `json:"queue" example:"fetchhub:maintenance"`
	Size      int       `json:"size"`
	Pending   int       `json:"pending"`
	Active    int       `json:"active"`
	Scheduled int       `json:"scheduled"`
	Retry     int       `json:"retry"`
	Archived  int       `json:"archived"`
	Completed int       `json:"completed"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// TokenRequest 签发令牌
type TokenRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0" example:"1"`
	Admin  bool  `json:"admin"`
}

// TokenResponse 令牌
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
}
