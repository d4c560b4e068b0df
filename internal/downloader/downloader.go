package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/azhengyongqin/fetchhub/internal/logger"
	"github.com/azhengyongqin/fetchhub/internal/repository"
	"github.com/azhengyongqin/fetchhub/sdk"
)

const progressInterval = 500 * time.Millisecond

// Item 一首已下载的曲目
type Item struct {
	Title string
	Path  string
}

// Progress 下载进度
type Progress struct {
	Percent  float64
	Stage    string
	Filename string
}

// Fetcher 执行一次下载计划
type Fetcher interface {
	Fetch(ctx context.Context, plan Plan, progress func(Progress)) ([]Item, error)
}

// Downloader worker 的下载步骤
type Downloader struct {
	root    string
	fetcher Fetcher
}

// New 创建 Downloader；executable 为空时使用 PATH 中的 yt-dlp
func New(root, executable string) *Downloader {
	return &Downloader{root: root, fetcher: &ytdlpFetcher{executable: executable}}
}

// Job 供 sdk.Runner 执行
func (d *Downloader) Job() sdk.JobFunc {
	return d.Download
}

// Download 下载任务对应的全部曲目，每首曲目上报一条 track 事件。
// 部分曲目失败时返回 nil，由 Runner 结算为 completed_with_errors。
func (d *Downloader) Download(ctx context.Context, task *repository.Task, rep *sdk.Reporter) error {
	plan := NewPlan(task, d.root)
	if err := os.MkdirAll(plan.Dir, 0o755); err != nil {
		return fmt.Errorf("创建下载目录失败: %w", err)
	}
	_ = rep.Info(ctx, fmt.Sprintf("Downloading %s as %s.", task.Source, plan.AudioFormat))

	items, err := d.fetcher.Fetch(ctx, plan, func(p Progress) {
		msg := fmt.Sprintf("Downloading %s (%.0f%%)", filepath.Base(p.Filename), p.Percent)
		if p.Filename == "" {
			msg = fmt.Sprintf("Downloading (%.0f%%)", p.Percent)
		}
		_ = rep.Progress(ctx, p.Percent, p.Stage, msg)
	})

	for _, it := range items {
		_ = rep.Track(ctx, sdk.TrackPayload{Title: it.Title, OK: true, Path: it.Path})
	}

	switch {
	case err != nil && len(items) == 0:
		return err
	case err != nil:
		// 已有曲目成功，剩余部分计为一条失败曲目
		_ = rep.Track(ctx, sdk.TrackPayload{Title: "remaining items", Error: err.Error()})
		return nil
	case len(items) == 0:
		return errors.New("yt-dlp finished without downloading any track")
	}

	_ = rep.Progress(ctx, 100, "done", fmt.Sprintf("Downloaded %d track(s).", len(items)))
	return nil
}

type ytdlpFetcher struct {
	executable string
}

func (f *ytdlpFetcher) command(plan Plan) *ytdlp.Command {
	dl := ytdlp.New().
		Format(plan.FormatSelector).
		ExtractAudio().
		AudioFormat(plan.AudioFormat).
		AudioQuality(plan.AudioQuality).
		EmbedMetadata().
		RestrictFilenames().
		NoOverwrites().
		PrintJSON().
		Output(plan.Output)
	if plan.Playlist {
		dl.YesPlaylist()
	} else {
		dl.NoPlaylist()
	}
	if f.executable != "" {
		dl.SetExecutable(f.executable)
	}
	return dl
}

func (f *ytdlpFetcher) Fetch(ctx context.Context, plan Plan, progress func(Progress)) ([]Item, error) {
	dl := f.command(plan)
	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		var pct float64
		if update.TotalBytes > 0 {
			pct = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		}
		progress(Progress{Percent: pct, Stage: string(update.Status), Filename: update.Filename})
	})

	result, runErr := dl.Run(ctx, plan.URL)
	if result == nil {
		return nil, wrapRunError(runErr)
	}
	infos, err := result.GetExtractedInfo()
	if err != nil {
		logger.Warn().Err(err).Msg("解析 yt-dlp 输出失败")
	}

	items := make([]Item, 0, len(infos))
	for _, info := range infos {
		var it Item
		if info.Title != nil {
			it.Title = *info.Title
		}
		if info.Filename != nil {
			it.Path = *info.Filename
		}
		if it.Title == "" {
			it.Title = filepath.Base(it.Path)
		}
		items = append(items, it)
	}
	return items, wrapRunError(runErr)
}

func wrapRunError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("yt-dlp: %w", err)
}
