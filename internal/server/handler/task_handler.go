package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/internal/server/dto"
)

// detailEvents 详情接口附带的最近事件数
const detailEvents = 20

// TaskService 任务相关的编排能力
type TaskService interface {
	Enqueue(ctx context.Context, userID int64, req orchestrator.EnqueueRequest) (*repository.Task, error)
	Retry(ctx context.Context, userID, taskID int64) (*repository.Task, error)
	ListTasks(ctx context.Context, userID int64, q orchestrator.ListQuery) (*orchestrator.TaskPage, error)
	GetTask(ctx context.Context, userID, taskID int64) (*repository.Task, error)
	RecentEvents(ctx context.Context, userID, taskID int64, limit int) ([]repository.TaskEvent, error)
	ListEvents(ctx context.Context, userID, taskID, afterID int64, limit int) ([]repository.TaskEvent, error)
}

// TaskHandler Task 相关 API Handler
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// CreateTask godoc
// @Summary 提交下载任务
// @Description 校验来源 URL 并创建 queued 任务，名额充足时立即启动 worker
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "任务提交请求"
// @Success 201 {object} repository.Task
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	task, err := h.svc.Enqueue(c.Request.Context(), userID, req.ToEnqueueRequest())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks godoc
// @Summary 查询任务列表
// @Description 调用者的任务，按创建时间倒序，每个任务附带最新事件
// @Tags Tasks
// @Produce json
// @Param status query string false "任务状态"
// @Param source query string false "来源"
// @Param limit query int false "每页数量" default(20)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} dto.TaskListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	page, err := h.svc.ListTasks(c.Request.Context(), userID, req.ToListQuery())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTask godoc
// @Summary 查询任务详情
// @Tags Tasks
// @Produce json
// @Param task_id path int true "任务 ID"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{task_id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	task, err := h.svc.GetTask(ctx, userID, taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	events, err := h.svc.RecentEvents(ctx, userID, taskID, detailEvents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TaskDetailResponse{Task: task, Events: events})
}

// ListEvents godoc
// @Summary 查询任务事件
// @Description 按插入顺序分页返回 after_id 之后的事件
// @Tags Tasks
// @Produce json
// @Param task_id path int true "任务 ID"
// @Param after_id query int false "起始事件 ID（不含）" default(0)
// @Param limit query int false "数量" default(200)
// @Success 200 {object} dto.EventListResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{task_id}/events [get]
func (h *TaskHandler) ListEvents(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	events, err := h.svc.ListEvents(c.Request.Context(), userID, taskID, req.AfterID, req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	next := req.AfterID
	if n := len(events); n > 0 {
		next = events[n-1].ID
	}
	c.JSON(http.StatusOK, dto.EventListResponse{Items: events, NextAfterID: next})
}

// RetryTask godoc
// @Summary 重试任务
// @Description 基于已结束的任务创建新的 queued 任务，原任务保持不变
// @Tags Tasks
// @Produce json
// @Param task_id path int true "任务 ID"
// @Success 201 {object} repository.Task
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /tasks/{task_id}/retry [post]
func (h *TaskHandler) RetryTask(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.svc.Retry(c.Request.Context(), userID, taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}
