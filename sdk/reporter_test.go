package sdk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

type memoryEvents struct {
	entries []eventlog.Entry
}

func (m *memoryEvents) Append(_ context.Context, e eventlog.Entry) (*repository.TaskEvent, error) {
	m.entries = append(m.entries, e)
	return &repository.TaskEvent{ID: int64(len(m.entries)), TaskID: e.TaskID, Level: e.Level, Message: e.Message}, nil
}

func TestReporter_ProgressThrottle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := &memoryEvents{}
	rep := NewReporter(events, &repository.Task{ID: 7, UserID: 2}, time.Second, func() time.Time { return now })

	require.NoError(t, rep.Progress(ctx, 10, "download", "10%"))
	now = now.Add(200 * time.Millisecond)
	require.NoError(t, rep.Progress(ctx, 20, "download", "20%"))
	now = now.Add(time.Second)
	require.NoError(t, rep.Progress(ctx, 60, "download", "60%"))
	now = now.Add(10 * time.Millisecond)
	require.NoError(t, rep.Progress(ctx, 100, "download", "100%"))

	var msgs []string
	for _, e := range events.entries {
		assert.Equal(t, model.EventLevelProgress, e.Level)
		assert.Equal(t, int64(7), e.TaskID)
		assert.Equal(t, int64(2), e.UserID)
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"10%", "60%", "100%"}, msgs)
}

func TestReporter_Tracks(t *testing.T) {
	ctx := context.Background()
	events := &memoryEvents{}
	rep := NewReporter(events, &repository.Task{ID: 1, UserID: 1}, 0, time.Now)

	require.NoError(t, rep.Track(ctx, TrackPayload{Title: "One", OK: true}))
	require.NoError(t, rep.Track(ctx, TrackPayload{Title: "Two", Error: "geo blocked"}))
	require.NoError(t, rep.Info(ctx, "Extracting audio"))

	total, failed := rep.Tracks()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
	require.Len(t, events.entries, 3)
	assert.Equal(t, "Track failed: Two", events.entries[1].Message)
	assert.Equal(t, model.EventLevelInfo, events.entries[2].Level)
}
