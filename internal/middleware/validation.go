package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// MaxPayloadSize 最大请求体大小（64KB，提交请求只包含 URL 与少量参数）
	MaxPayloadSize = 64 * 1024
)

// TaskIDRegex 任务 ID：正整数
var TaskIDRegex = regexp.MustCompile(`^[1-9][0-9]{0,18}$`)

// PayloadSizeLimit 请求体大小限制中间件
func PayloadSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body too large, max %d bytes", maxSize),
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}

// ValidateTaskID 验证任务 ID
func ValidateTaskID(taskID string) bool {
	if !TaskIDRegex.MatchString(taskID) {
		return false
	}
	_, err := strconv.ParseInt(taskID, 10, 64)
	return err == nil
}

// ValidateTaskIDParam 验证路径参数中的 task_id
func ValidateTaskIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("task_id")
		if taskID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "task_id is required"})
			return
		}
		if !ValidateTaskID(taskID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "task_id must be a positive integer"})
			return
		}
		c.Next()
	}
}

// CORSMiddleware CORS 中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
