package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/auth"
	"github.com/azhengyongqin/fetchhub/internal/cache"
	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/feed"
	"github.com/azhengyongqin/fetchhub/internal/healthcheck"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/orchestrator"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/internal/storage"
	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

type stubSpawner struct {
	mu  sync.Mutex
	pid int
}

func (s *stubSpawner) Spawn(context.Context, int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid++
	return 5000 + s.pid, nil
}

type testServer struct {
	handler  http.Handler
	tasks    *repository.TaskRepo
	hub      *feed.Hub
	registry *workers.Registry
	tokens   *auth.JWTService
}

func newTestServer(t *testing.T, maxWorkers int, withAuth bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.AutoMigrate(db.DB))
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	tasks := repository.NewTaskRepo(db.DB)
	events := repository.NewEventRepo(db.DB)
	redactor := redact.New()
	svc := orchestrator.New(orchestrator.Deps{
		Tasks:       tasks,
		Events:      events,
		Collections: repository.NewCollectionRepo(db.DB),
		Log:         eventlog.New(events, redactor, 0),
		Spawner:     &stubSpawner{},
		Prober:      orchestrator.ProberFunc(func(int) bool { return true }),
	}, orchestrator.Options{MaxWorkers: maxWorkers})

	ts := &testServer{
		tasks:    tasks,
		registry: workers.NewRegistry(),
		hub: feed.NewHub(feed.NewSnapshotter(svc, cache.NewLocalCache(time.Second), 0), feed.Options{
			Interval:       20 * time.Millisecond,
			Keepalive:      time.Hour,
			MaxConnections: 1,
		}),
	}
	deps := Deps{
		Service:       svc,
		Feed:          ts.hub,
		Registry:      ts.registry,
		DefaultUserID: 1,
		Redactor:      redactor,
		HealthChecker: healthcheck.NewHealthChecker(db.Driver, sqlDB, nil),
	}
	if withAuth {
		ts.tokens = auth.NewJWTService("router-test-secret", time.Hour)
		deps.Tokens = ts.tokens
	}
	ts.handler = NewRouter(deps)
	return ts
}

func (ts *testServer) token(t *testing.T, userID int64, admin bool) string {
	t.Helper()
	tok, err := ts.tokens.GenerateToken(userID, admin)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCreateTask(t *testing.T) {
	ts := newTestServer(t, 1, false)

	w := ts.do(t, http.MethodPost, "/api/v1/tasks", "", map[string]any{"url": "https://www.youtube.com/watch?v=abc"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[repository.Task](t, w)
	assert.Equal(t, model.TaskStatusRunning, first.Status)
	assert.Equal(t, model.SourceYouTube, first.Source)
	assert.Equal(t, model.FormatMP3, first.Format)
	require.NotNil(t, first.WorkerPID)
	assert.Greater(t, *first.WorkerPID, 0)

	// 名额已满，第二个任务保持排队
	w = ts.do(t, http.MethodPost, "/api/v1/tasks", "", map[string]any{
		"source": "soundcloud", "url": "https://soundcloud.com/a/b", "format": "flac", "collection_name": "Mix",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[repository.Task](t, w)
	assert.Equal(t, model.TaskStatusQueued, second.Status)
	assert.Nil(t, second.WorkerPID)
	assert.NotNil(t, second.CollectionID)
}

func TestCreateTaskErrors(t *testing.T) {
	ts := newTestServer(t, 1, false)
	collectionID := int64(99)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"missing url", map[string]any{}, http.StatusBadRequest},
		{"bad scheme", map[string]any{"url": "ftp://youtube.com/x"}, http.StatusBadRequest},
		{"host not allowed", map[string]any{"source": "bandcamp", "url": "https://youtube.com/watch?v=1"}, http.StatusBadRequest},
		{"both collection selectors", map[string]any{"url": "https://youtu.be/x", "collection_id": collectionID, "collection_name": "a"}, http.StatusConflict},
		{"unknown collection", map[string]any{"url": "https://youtu.be/x", "collection_id": collectionID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/tasks", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	w := ts.do(t, http.MethodGet, "/api/v1/tasks", "", nil)
	page := decode[orchestrator.TaskPage](t, w)
	assert.Zero(t, page.Total, "失败的提交不能留下记录")
}

func TestTaskReadsAreOwnerScoped(t *testing.T) {
	ts := newTestServer(t, 2, true)
	alice := ts.token(t, 1, false)
	bob := ts.token(t, 2, false)

	w := ts.do(t, http.MethodPost, "/api/v1/tasks", alice, map[string]any{"url": "https://youtu.be/a"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[repository.Task](t, w)
	path := "/api/v1/tasks/" + itoa(task.ID)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path+"/events", bob, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/tasks/abc", alice, nil).Code)

	w = ts.do(t, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Task   repository.Task        `json:"task"`
		Events []repository.TaskEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, task.ID, detail.Task.ID)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, "Task queued.", detail.Events[0].Message)

	w = ts.do(t, http.MethodGet, path+"/events?after_id="+itoa(detail.Events[0].ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events struct {
		Items       []repository.TaskEvent `json:"items"`
		NextAfterID int64                  `json:"next_after_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events.Items, 1)
	assert.Equal(t, events.Items[0].ID, events.NextAfterID)

	w = ts.do(t, http.MethodGet, "/api/v1/tasks?status=running", bob, nil)
	assert.Zero(t, decode[orchestrator.TaskPage](t, w).Total)
	w = ts.do(t, http.MethodGet, "/api/v1/tasks?status=paused", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetryTask(t *testing.T) {
	ts := newTestServer(t, 1, false)
	w := ts.do(t, http.MethodPost, "/api/v1/tasks", "", map[string]any{"url": "https://youtu.be/a", "quality": "low"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[repository.Task](t, w)
	path := "/api/v1/tasks/" + itoa(task.ID) + "/retry"

	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, path, "", nil).Code)

	ok, err := ts.tasks.Finish(context.Background(), task.ID, model.TaskStatusFailed, "boom", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	w = ts.do(t, http.MethodPost, path, "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	retried := decode[repository.Task](t, w)
	assert.NotEqual(t, task.ID, retried.ID)
	require.NotNil(t, retried.RetryOf)
	assert.Equal(t, task.ID, *retried.RetryOf)
	assert.Equal(t, model.QualityLow, retried.Quality)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/v1/tasks/424242/retry", "", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t, 2, true)
	admin := ts.token(t, 1, true)
	user := ts.token(t, 2, false)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/api/v1/admin/recover", user, nil).Code)

	w := ts.do(t, http.MethodPost, "/api/v1/admin/recover", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recovered":0,"started":0,"failed":0,"active":0}`, w.Body.String())

	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/v1/admin/recover?async=true", admin, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/api/v1/admin/maintenance", admin, nil).Code)

	require.NoError(t, ts.registry.Add(workers.Process{TaskID: 3, PID: 77, Command: "fetchhub-worker 3", StartedAt: time.Now()}))
	w = ts.do(t, http.MethodGet, "/api/v1/admin/workers", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items      []workers.Process `json:"items"`
		Total      int               `json:"total"`
		MaxWorkers int               `json:"max_workers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 2, list.MaxWorkers)
	assert.Equal(t, 77, list.Items[0].PID)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/token", admin, map[string]any{"user_id": 9})
	require.Equal(t, http.StatusOK, w.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	claims, err := ts.tokens.ParseToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.False(t, claims.Admin)
}

func TestIssueTokenSingleUserMode(t *testing.T) {
	ts := newTestServer(t, 1, false)
	w := ts.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]any{"user_id": 2})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestFeedTasks(t *testing.T) {
	ts := newTestServer(t, 1, false)
	w := ts.do(t, http.MethodPost, "/api/v1/tasks", "", map[string]any{"url": "https://youtu.be/a"})
	require.Equal(t, http.StatusCreated, w.Code)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/feed/tasks?limit=5", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}
	assert.Equal(t, feed.EventTasks, event)
	var page orchestrator.TaskPage
	require.NoError(t, json.Unmarshal([]byte(data), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)

	// 连接名额为 1，第二个连接被拒绝
	busy := ts.do(t, http.MethodGet, "/api/v1/feed/tasks", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, busy.Code)
}

func TestFeedRejectsBadFilter(t *testing.T) {
	ts := newTestServer(t, 1, false)
	w := ts.do(t, http.MethodGet, "/api/v1/feed/tasks?source=vimeo", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, ts.hub.Connections())
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, 1, false)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "", nil).Code)

	ready := ts.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, ready.Code)
	var result healthcheck.CheckResult
	require.NoError(t, json.Unmarshal(ready.Body.Bytes(), &result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "0/1", result.Checks["workers"])
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/metrics", "", nil).Code)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
