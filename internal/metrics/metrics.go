package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 任务指标
	TasksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_tasks_created_total",
			Help: "Total number of tasks created",
		},
		[]string{"source", "origin"},
	)

	TasksFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_tasks_finished_total",
			Help: "Total number of tasks reaching a terminal status",
		},
		[]string{"status", "reason"},
	)

	TaskExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetchhub_task_execution_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	// 调度指标
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"result"},
	)

	SpawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_spawns_total",
			Help: "Total number of worker spawn attempts",
		},
		[]string{"result"},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchhub_active_workers",
			Help: "Number of task slots in use at the last drain",
		},
	)

	RecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchhub_recovered_tasks_total",
			Help: "Total number of stale tasks forced to failed",
		},
	)

	// 事件日志指标
	EventsAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_events_appended_total",
			Help: "Total number of task events appended",
		},
		[]string{"level"},
	)

	// 实时状态推送指标
	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchhub_feed_connections",
			Help: "Number of open live feed connections",
		},
	)

	FeedFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_feed_frames_total",
			Help: "Total number of live feed frames sent",
		},
		[]string{"event"},
	)

	// 数据库连接池指标
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchhub_db_connections_in_use",
			Help: "Number of database connections in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchhub_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBConnectionsMax = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetchhub_db_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 错误指标
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchhub_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "type"},
	)
)

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTaskCreated 记录任务创建（origin: submit / retry）
func RecordTaskCreated(source, origin string) {
	TasksCreatedTotal.WithLabelValues(source, origin).Inc()
}

// RecordTaskFinished 记录任务进入终态
func RecordTaskFinished(status, reason string, duration float64) {
	TasksFinishedTotal.WithLabelValues(status, reason).Inc()
	if duration > 0 {
		TaskExecutionDuration.Observe(duration)
	}
}

// RecordClaim 记录认领结果
func RecordClaim(won bool) {
	if won {
		ClaimsTotal.WithLabelValues("won").Inc()
		return
	}
	ClaimsTotal.WithLabelValues("lost").Inc()
}

// RecordSpawn 记录进程启动结果
func RecordSpawn(ok bool) {
	if ok {
		SpawnsTotal.WithLabelValues("ok").Inc()
		return
	}
	SpawnsTotal.WithLabelValues("failed").Inc()
}

// UpdateActiveWorkers 更新占用名额数
func UpdateActiveWorkers(n int) {
	ActiveWorkers.Set(float64(n))
}

// RecordRecovered 记录回收数量
func RecordRecovered(n int) {
	if n > 0 {
		RecoveredTotal.Add(float64(n))
	}
}

// RecordEventAppended 记录事件写入
func RecordEventAppended(level string) {
	EventsAppendedTotal.WithLabelValues(level).Inc()
}

// FeedConnected 推送连接数 +1 / -1
func FeedConnected(delta int) {
	FeedConnections.Add(float64(delta))
}

// RecordFeedFrame 记录推送帧
func RecordFeedFrame(event string) {
	FeedFramesTotal.WithLabelValues(event).Inc()
}

// UpdateDBPoolStats 更新数据库连接池统计
func UpdateDBPoolStats(inUse, idle, max int) {
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
	DBConnectionsMax.Set(float64(max))
}

// RecordError 记录错误
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// statusClass 将 HTTP 状态码转为类别
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
