package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/fetchhub/internal/healthcheck"
)

// Capacity 调度容量视图
type Capacity interface {
	ActiveWorkerCount(ctx context.Context) (int, error)
	MaxWorkers() int
}

// HealthHandler 健康检查 Handler
type HealthHandler struct {
	checker  *healthcheck.HealthChecker
	capacity Capacity
}

// NewHealthHandler checker 为 nil 时只返回纯文本 ok
func NewHealthHandler(checker *healthcheck.HealthChecker, capacity Capacity) *HealthHandler {
	return &HealthHandler{checker: checker, capacity: capacity}
}

// Liveness godoc
// @Summary Liveness 检查
// @Description 进程存活即返回 200
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	c.JSON(http.StatusOK, h.checker.LivenessCheck())
}

// Readiness godoc
// @Summary Readiness 检查
// @Description 检查数据库、Redis（如已配置），并附带 worker 占用情况
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Failure 503 {object} healthcheck.CheckResult
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	ctx := c.Request.Context()
	result := h.checker.ReadinessCheck(ctx)
	if h.capacity != nil {
		// 满载不算未就绪，任务会排队
		if active, err := h.capacity.ActiveWorkerCount(ctx); err == nil {
			result.Checks["workers"] = fmt.Sprintf("%d/%d", active, h.capacity.MaxWorkers())
		}
	}

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
