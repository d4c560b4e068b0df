package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/model"
)

func TestListQuery_Normalize(t *testing.T) {
	q, err := ListQuery{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, q.Limit)

	q, err = ListQuery{Limit: 1000, Offset: -5}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)

	_, err = ListQuery{Status: "paused"}.Normalize()
	assert.True(t, IsValidation(err))
	_, err = ListQuery{Source: "vimeo"}.Normalize()
	assert.True(t, IsValidation(err))
}

func TestListTasks_AttachesLatestEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 1)

	// 第一个任务占用名额，第二个保持 queued
	first, err := h.svc.Enqueue(ctx, 1, EnqueueRequest{URL: "https://youtu.be/a"})
	require.NoError(t, err)
	second, err := h.svc.Enqueue(ctx, 1, EnqueueRequest{URL: "https://soundcloud.com/x/y"})
	require.NoError(t, err)
	_, err = h.svc.Enqueue(ctx, 2, EnqueueRequest{URL: "https://youtu.be/b"})
	require.NoError(t, err)

	page, err := h.svc.ListTasks(ctx, 1, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	require.NotNil(t, page.Items[0].LatestEvent)
	assert.Equal(t, "Task queued.", page.Items[0].LatestEvent.Message)
	require.NotNil(t, page.Items[1].LatestEvent)
	assert.Contains(t, page.Items[1].LatestEvent.Message, "Worker started")

	page, err = h.svc.ListTasks(ctx, 1, ListQuery{Status: string(model.TaskStatusRunning)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	page, err = h.svc.ListTasks(ctx, 1, ListQuery{Source: string(model.SourceSoundCloud), Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Limit)
}

func TestGetTaskAndEvents_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	task, err := h.svc.Enqueue(ctx, 1, EnqueueRequest{URL: "https://youtu.be/a"})
	require.NoError(t, err)

	_, err = h.svc.GetTask(ctx, 2, task.ID)
	assert.True(t, IsNotFound(err))
	_, err = h.svc.ListEvents(ctx, 2, task.ID, 0, 10)
	assert.True(t, IsNotFound(err))

	got, err := h.svc.GetTask(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	events, err := h.svc.ListEvents(ctx, 1, task.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	after, err := h.svc.ListEvents(ctx, 1, task.ID, events[0].ID, 10)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}
