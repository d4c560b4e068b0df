package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/redact"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/internal/storage"
)

type fakeSpawner struct {
	mu      sync.Mutex
	nextPID int
	calls   []int64
	failFor map[int64]error
	failAll error
	// started 进程启动成功后调用
	started func()
}

func (f *fakeSpawner) Spawn(_ context.Context, taskID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, taskID)
	if f.failAll != nil {
		return 0, f.failAll
	}
	if err := f.failFor[taskID]; err != nil {
		return 0, err
	}
	f.nextPID++
	if f.started != nil {
		f.started()
	}
	return 1000 + f.nextPID, nil
}

func (f *fakeSpawner) Calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.calls...)
}

type fakeProber struct {
	mu    sync.Mutex
	alive map[int]bool
}

func (p *fakeProber) Alive(pid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive[pid]
}

func (p *fakeProber) set(pid int, alive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive[pid] = alive
}

type harness struct {
	svc         *Service
	tasks       *repository.TaskRepo
	events      *repository.EventRepo
	collections *repository.CollectionRepo
	spawner     *fakeSpawner
	prober      *fakeProber
	now         time.Time
}

func newHarness(t *testing.T, maxWorkers int) *harness {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "orchestrator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.AutoMigrate(db.DB))

	h := &harness{
		tasks:       repository.NewTaskRepo(db.DB),
		events:      repository.NewEventRepo(db.DB),
		collections: repository.NewCollectionRepo(db.DB),
		spawner:     &fakeSpawner{failFor: map[int64]error{}},
		prober:      &fakeProber{alive: map[int]bool{}},
		now:         time.Now().UTC(),
	}
	h.svc = New(Deps{
		Tasks:       h.tasks,
		Events:      h.events,
		Collections: h.collections,
		Log:         eventlog.New(h.events, redact.New(), 0),
		Spawner:     h.spawner,
		Prober:      h.prober,
	}, Options{
		MaxWorkers:    maxWorkers,
		StaleAfter:    5 * time.Minute,
		DrainInterval: time.Hour,
		Now:           func() time.Time { return h.now },
	})
	return h
}

// queued 直接落库一个 queued 任务（不触发调度）
func (h *harness) queued(t *testing.T, userID int64) *repository.Task {
	t.Helper()
	task := &repository.Task{
		UserID:          userID,
		Source:          model.SourceSoundCloud,
		SourceURL:       "https://soundcloud.com/artist/track",
		Format:          model.FormatOpus,
		Quality:         model.QualityBest,
		CodecPreference: model.CodecOpus,
	}
	require.NoError(t, h.tasks.CreateTask(context.Background(), task))
	return task
}

// running 构造一个 running 任务；heartbeatAgo < 0 表示从未心跳
func (h *harness) running(t *testing.T, pid int, startedAgo, heartbeatAgo time.Duration) *repository.Task {
	t.Helper()
	ctx := context.Background()
	task := h.queued(t, 1)
	started := h.now.Add(-startedAgo)

	ok, err := h.tasks.Claim(ctx, task.ID, started)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.tasks.MarkSpawned(ctx, task.ID, pid, started)
	require.NoError(t, err)
	require.True(t, ok)
	if heartbeatAgo >= 0 {
		ok, err = h.tasks.Heartbeat(ctx, task.ID, h.now.Add(-heartbeatAgo))
		require.NoError(t, err)
		require.True(t, ok)
	}
	return task
}

func (h *harness) eventsOf(t *testing.T, taskID int64, level model.EventLevel) []repository.TaskEvent {
	t.Helper()
	all, err := h.events.ListEvents(context.Background(), taskID, 0, 1000)
	require.NoError(t, err)
	var out []repository.TaskEvent
	for _, e := range all {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) task(t *testing.T, id int64) *repository.Task {
	t.Helper()
	task, err := h.tasks.GetTask(context.Background(), id)
	require.NoError(t, err)
	return task
}
