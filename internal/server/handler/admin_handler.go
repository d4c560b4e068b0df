package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/fetchhub/internal/auth"
	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/middleware"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	asynqx "github.com/azhengyongqin/fetchhub/internal/queue"
	"github.com/azhengyongqin/fetchhub/internal/server/dto"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

// Recoverer 同步回收并调度
type Recoverer interface {
	RecoverAndDrain(ctx context.Context) (int, orchestrator.DrainResult, error)
	MaxWorkers() int
}

// MaintenanceQueue asynq 维护队列（Redis 未配置时为 nil）
type MaintenanceQueue interface {
	EnqueueRecover(p asynqx.RecoverParams) (*asynq.TaskInfo, error)
	QueueStats() (*asynq.QueueInfo, error)
}

// AdminHandler 运维接口
type AdminHandler struct {
	rec      Recoverer
	registry *workers.Registry
	queue    MaintenanceQueue
	tokens   *auth.JWTService
	params   asynqx.RecoverParams
}

// NewAdminHandler 创建 AdminHandler；queue 与 tokens 可为 nil
func NewAdminHandler(rec Recoverer, registry *workers.Registry, queue MaintenanceQueue, tokens *auth.JWTService, params asynqx.RecoverParams) *AdminHandler {
	return &AdminHandler{rec: rec, registry: registry, queue: queue, tokens: tokens, params: params}
}

// Recover godoc
// @Summary 回收僵死任务
// @Description 立即回收僵死任务并调度排队任务；async=true 时改为投递到 asynq 维护队列
// @Tags Admin
// @Produce json
// @Param async query bool false "异步执行"
// @Success 200 {object} dto.RecoverResponse
// @Success 202 {object} dto.RecoverEnqueuedResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /admin/recover [post]
func (h *AdminHandler) Recover(c *gin.Context) {
	if c.Query("async") == "true" {
		h.enqueueRecover(c)
		return
	}

	recovered, res, err := h.rec.RecoverAndDrain(c.Request.Context())
	var partial *orchestrator.RecoverError
	if err != nil && !errors.As(err, &partial) {
		writeError(c, err)
		return
	}
	resp := dto.RecoverResponse{
		Recovered: recovered,
		Started:   res.Started,
		Failed:    res.Failed,
		Active:    res.Active + res.Started,
	}
	if partial != nil {
		log := logger.WithRequestID(middleware.GetRequestID(c))
		log.Warn().Err(partial).Msg("部分任务回收失败")
		for _, cause := range partial.Causes() {
			resp.Errors = append(resp.Errors, cause.Error())
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) enqueueRecover(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "redis not configured"})
		return
	}
	info, err := h.queue.EnqueueRecover(h.params)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "a recovery task is already queued"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.RecoverEnqueuedResponse{AsynqTaskID: info.ID, Queue: info.Queue})
}

// ListWorkers godoc
// @Summary 本机 worker 子进程
// @Description 当前编排进程启动且尚未退出的 worker 进程
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.WorkerListResponse
// @Router /admin/workers [get]
func (h *AdminHandler) ListWorkers(c *gin.Context) {
	items := h.registry.List()
	c.JSON(http.StatusOK, dto.WorkerListResponse{
		Items:      items,
		Total:      len(items),
		MaxWorkers: h.rec.MaxWorkers(),
	})
}

// MaintenanceStats godoc
// @Summary 维护队列统计
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.MaintenanceStatsResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /admin/maintenance [get]
func (h *AdminHandler) MaintenanceStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "redis not configured"})
		return
	}
	info, err := h.queue.QueueStats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MaintenanceStatsResponse{
		Queue:     info.Queue,
		Size:      info.Size,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Completed: info.Completed,
		Processed: info.Processed,
		Failed:    info.Failed,
		Timestamp: info.Timestamp,
	})
}

// IssueToken godoc
// @Summary 签发访问令牌
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "令牌请求"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Router /auth/token [post]
func (h *AdminHandler) IssueToken(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusNotImplemented, dto.ErrorResponse{Error: "single-user mode, JWT_SECRET not configured"})
		return
	}
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	token, err := h.tokens.GenerateToken(req.UserID, req.Admin)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token, ExpiresIn: int64(h.tokens.TTL() / time.Second)})
}
