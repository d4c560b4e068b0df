package handler

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/fetchhub/internal/feed"
	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/server/dto"
)

// FeedHandler 实时任务状态推送（SSE）
type FeedHandler struct {
	hub *feed.Hub
}

// NewFeedHandler 创建 FeedHandler
func NewFeedHandler(hub *feed.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Tasks godoc
// @Summary 任务状态实时推送
// @Description Server-Sent Events：内容变化时推送 tasks 帧，定时发送 ping 注释保活
// @Tags Feed
// @Produce text/event-stream
// @Param status query string false "任务状态"
// @Param source query string false "来源"
// @Param limit query int false "每页数量" default(20)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {string} string "event stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /feed/tasks [get]
func (h *FeedHandler) Tasks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	q, err := req.ToListQuery().Normalize()
	if err != nil {
		writeError(c, err)
		return
	}

	release, err := h.hub.Acquire()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
		return
	}
	defer release()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	if err := h.hub.Serve(c.Request.Context(), &ginSink{w: c.Writer}, userID, q); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("推送连接结束")
	}
}

// ginSink 把推送帧写入 gin 响应并立即 flush
type ginSink struct {
	w gin.ResponseWriter
}

func (s *ginSink) Event(name string, data []byte) error {
	if err := sse.Encode(s.w, sse.Event{Event: name, Data: string(data)}); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *ginSink) Comment(text string) error {
	if _, err := s.w.WriteString(": " + text + "\n\n"); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
