package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/azhengyongqin/fetchhub/internal/auth"
	"github.com/azhengyongqin/fetchhub/internal/feed"
	"github.com/azhengyongqin/fetchhub/internal/healthcheck"
	"github.com/azhengyongqin/fetchhub/internal/middleware"
	asynqx "github.com/azhengyongqin/fetchhub/internal/queue"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/server/handler"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

// Service 编排服务对 HTTP 层暴露的能力
type Service interface {
	handler.TaskService
	handler.Recoverer
	handler.Capacity
}

type Deps struct {
	Service  Service
	Feed     *feed.Hub
	Registry *workers.Registry

	// Maintenance asynq 维护队列（可选，需要 Redis）
	Maintenance   handler.MaintenanceQueue
	RecoverParams asynqx.RecoverParams

	// Tokens 为 nil 时为单用户模式，所有请求以 DefaultUserID 执行
	Tokens        *auth.JWTService
	DefaultUserID int64

	// Redactor 访问日志脱敏
	Redactor *redact.Redactor

	// HealthChecker 健康检查器
	HealthChecker *healthcheck.HealthChecker
}

// NewRouter 提供 Gin HTTP API
// @title fetchhub API
// @version 1.0.0
// @description 异步媒体下载任务编排 API
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// 全局中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(deps.Redactor))
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.PayloadSizeLimit(middleware.MaxPayloadSize))
	r.Use(middleware.CORSMiddleware())

	healthHandler := handler.NewHealthHandler(deps.HealthChecker, deps.Service)
	taskHandler := handler.NewTaskHandler(deps.Service)
	adminHandler := handler.NewAdminHandler(deps.Service, deps.Registry, deps.Maintenance, deps.Tokens, deps.RecoverParams)
	feedHandler := handler.NewFeedHandler(deps.Feed)

	// 健康检查路由
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Prometheus metrics 端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var authn middleware.Authenticator
	if deps.Tokens != nil {
		authn = deps.Tokens
	}

	api := r.Group("/api/v1", middleware.Auth(authn, deps.DefaultUserID))
	{
		// Task 相关路由
		api.POST("/tasks", taskHandler.CreateTask)
		api.GET("/tasks", taskHandler.ListTasks)
		api.GET("/tasks/:task_id", middleware.ValidateTaskIDParam(), taskHandler.GetTask)
		api.GET("/tasks/:task_id/events", middleware.ValidateTaskIDParam(), taskHandler.ListEvents)
		api.POST("/tasks/:task_id/retry", middleware.ValidateTaskIDParam(), taskHandler.RetryTask)

		// 实时推送
		api.GET("/feed/tasks", feedHandler.Tasks)

		// 运维路由
		admin := api.Group("", middleware.RequireAdmin())
		admin.POST("/admin/recover", adminHandler.Recover)
		admin.GET("/admin/workers", adminHandler.ListWorkers)
		admin.GET("/admin/maintenance", adminHandler.MaintenanceStats)
		admin.POST("/auth/token", adminHandler.IssueToken)
	}

	return r
}
