package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/metrics"
	"github.com/azhengyongqin/fetchhub/internal/middleware"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	"github.com/azhengyongqin/fetchhub/internal/server/dto"
)

// writeError 把领域错误映射为 HTTP 状态码；其它错误一律 500，细节只写日志
func writeError(c *gin.Context, err error) {
	var (
		validation *orchestrator.ValidationError
		notFound   *orchestrator.NotFoundError
		conflict   *orchestrator.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: conflict.Error()})
	default:
		_ = c.Error(err)
		log := logger.WithRequestID(middleware.GetRequestID(c))
		log.Error().Err(err).Str("path", c.FullPath()).Msg("请求处理失败")
		metrics.RecordError("http", "internal")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

// callerID 当前调用者；鉴权中间件缺失时返回 401
func callerID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthenticated"})
	}
	return id, ok
}

// taskIDParam 路径中的 task_id（格式已由 ValidateTaskIDParam 校验）
func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "task_id must be a positive integer", Field: "task_id"})
		return 0, false
	}
	return id, true
}
