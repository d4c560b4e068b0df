package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/fetchhub/internal/eventlog"
	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/sdk"
)

type recordedEvents struct {
	entries []eventlog.Entry
}

func (r *recordedEvents) Append(_ context.Context, e eventlog.Entry) (*repository.TaskEvent, error) {
	r.entries = append(r.entries, e)
	return &repository.TaskEvent{ID: int64(len(r.entries))}, nil
}

func (r *recordedEvents) levels() []model.EventLevel {
	out := make([]model.EventLevel, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Level)
	}
	return out
}

type fakeFetcher struct {
	items []Item
	err   error
	plan  Plan
}

func (f *fakeFetcher) Fetch(_ context.Context, plan Plan, progress func(Progress)) ([]Item, error) {
	f.plan = plan
	progress(Progress{Percent: 40, Stage: "downloading", Filename: "/x/a.webm"})
	return f.items, f.err
}

func newTestDownloader(t *testing.T, f Fetcher) (*Downloader, *sdk.Reporter, *recordedEvents, *repository.Task) {
	t.Helper()
	task := &repository.Task{ID: 5, UserID: 2, Source: model.SourceBandcamp, SourceURL: "https://x.bandcamp.com/album/lp", Format: model.FormatFLAC}
	events := &recordedEvents{}
	rep := sdk.NewReporter(events, task, 0, nil)
	return &Downloader{root: t.TempDir(), fetcher: f}, rep, events, task
}

func TestDownload_AllTracks(t *testing.T) {
	f := &fakeFetcher{items: []Item{{Title: "One", Path: "/x/one.flac"}, {Title: "Two", Path: "/x/two.flac"}}}
	d, rep, events, task := newTestDownloader(t, f)

	require.NoError(t, d.Download(context.Background(), task, rep))
	assert.True(t, f.plan.Playlist)
	assert.DirExists(t, f.plan.Dir)

	total, failed := rep.Tracks()
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []model.EventLevel{
		model.EventLevelInfo,
		model.EventLevelProgress,
		model.EventLevelTrack,
		model.EventLevelTrack,
		model.EventLevelProgress,
	}, events.levels())
}

func TestDownload_PartialFailure(t *testing.T) {
	f := &fakeFetcher{items: []Item{{Title: "One"}}, err: errors.New("yt-dlp: exit status 1")}
	d, rep, _, task := newTestDownloader(t, f)

	require.NoError(t, d.Download(context.Background(), task, rep))
	total, failed := rep.Tracks()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
}

func TestDownload_Failure(t *testing.T) {
	boom := errors.New("yt-dlp: unsupported URL")
	d, rep, _, task := newTestDownloader(t, &fakeFetcher{err: boom})
	assert.ErrorIs(t, d.Download(context.Background(), task, rep), boom)
}

func TestDownload_NothingDownloaded(t *testing.T) {
	d, rep, _, task := newTestDownloader(t, &fakeFetcher{})
	assert.Error(t, d.Download(context.Background(), task, rep))
}
