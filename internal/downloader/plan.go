// Package downloader 把任务参数翻译成 yt-dlp 调用，并把进度与曲目结果交给 sdk.Reporter。
package downloader

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// OutputTemplate yt-dlp 输出文件名模板
const OutputTemplate = "%(title)s [%(id)s].%(ext)s"

// Plan 一次下载的 yt-dlp 参数
type Plan struct {
	URL            string
	Dir            string
	Output         string
	FormatSelector string
	AudioFormat    string
	AudioQuality   string
	Playlist       bool
}

// NewPlan 根据任务生成下载计划；文件落在 <root>/<user_id>/<task_id>/ 下
func NewPlan(task *repository.Task, root string) Plan {
	dir := filepath.Join(root, strconv.FormatInt(task.UserID, 10), strconv.FormatInt(task.ID, 10))
	format := task.Format
	if format == "" {
		format = model.DefaultFormat
	}
	return Plan{
		URL:            task.SourceURL,
		Dir:            dir,
		Output:         filepath.Join(dir, OutputTemplate),
		FormatSelector: formatSelector(task.CodecPreference),
		AudioFormat:    string(format),
		AudioQuality:   audioQuality(format, task.Quality),
		Playlist:       isCollectionURL(task.Source, task.SourceURL),
	}
}

// formatSelector 按编码偏好选择源音轨，取不到时回退到最佳音轨
func formatSelector(codec model.CodecPreference) string {
	switch codec {
	case model.CodecOpus:
		return "bestaudio[acodec=opus]/bestaudio/best"
	case model.CodecAAC:
		return "bestaudio[acodec^=mp4a]/bestaudio/best"
	case model.CodecVorbis:
		return "bestaudio[acodec=vorbis]/bestaudio/best"
	default:
		return "bestaudio/best"
	}
}

// audioQuality 映射为 yt-dlp --audio-quality（0 最好，10 最差）；无损格式忽略质量档位
func audioQuality(format model.Format, q model.Quality) string {
	if format == model.FormatFLAC || format == model.FormatWAV {
		return "0"
	}
	switch q {
	case model.QualityBest:
		return "0"
	case model.QualityMedium:
		return "5"
	case model.QualityLow:
		return "7"
	default:
		return "2"
	}
}

// isCollectionURL 专辑/播放列表链接展开为多首曲目，其余只下载单曲
func isCollectionURL(kind model.SourceKind, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch kind {
	case model.SourceYouTube:
		return u.Query().Get("list") != "" || strings.HasPrefix(u.Path, "/playlist")
	case model.SourceSoundCloud:
		return strings.Contains(u.Path, "/sets/")
	case model.SourceBandcamp:
		return strings.HasPrefix(u.Path, "/album/")
	default:
		return false
	}
}
