package downloader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/azhengyongqin/fetchhub/internal/model"
	"github.com/azhengyongqin/fetchhub/internal/repository"
)

func TestNewPlan(t *testing.T) {
	task := &repository.Task{
		ID:              12,
		UserID:          3,
		Source:          model.SourceYouTube,
		SourceURL:       "https://www.youtube.com/watch?v=abc",
		Format:          model.FormatOpus,
		Quality:         model.QualityMedium,
		CodecPreference: model.CodecOpus,
	}
	plan := NewPlan(task, "/srv/media")

	assert.Equal(t, filepath.Join("/srv/media", "3", "12"), plan.Dir)
	assert.Equal(t, filepath.Join("/srv/media", "3", "12", OutputTemplate), plan.Output)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", plan.URL)
	assert.Equal(t, "opus", plan.AudioFormat)
	assert.Equal(t, "5", plan.AudioQuality)
	assert.Equal(t, "bestaudio[acodec=opus]/bestaudio/best", plan.FormatSelector)
	assert.False(t, plan.Playlist)
}

func TestNewPlan_DefaultFormat(t *testing.T) {
	plan := NewPlan(&repository.Task{ID: 1, UserID: 1, Source: model.SourceSoundCloud, SourceURL: "https://soundcloud.com/a/b"}, "media")
	assert.Equal(t, "mp3", plan.AudioFormat)
	assert.Equal(t, "2", plan.AudioQuality)
	assert.Equal(t, "bestaudio/best", plan.FormatSelector)
}

func TestAudioQuality(t *testing.T) {
	tests := []struct {
		format  model.Format
		quality model.Quality
		want    string
	}{
		{model.FormatMP3, model.QualityBest, "0"},
		{model.FormatMP3, model.QualityHigh, "2"},
		{model.FormatM4A, model.QualityMedium, "5"},
		{model.FormatOpus, model.QualityLow, "7"},
		{model.FormatFLAC, model.QualityLow, "0"},
		{model.FormatWAV, model.QualityMedium, "0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+string(tt.quality), func(t *testing.T) {
			assert.Equal(t, tt.want, audioQuality(tt.format, tt.quality))
		})
	}
}

func TestFormatSelector(t *testing.T) {
	assert.Equal(t, "bestaudio[acodec^=mp4a]/bestaudio/best", formatSelector(model.CodecAAC))
	assert.Equal(t, "bestaudio[acodec=vorbis]/bestaudio/best", formatSelector(model.CodecVorbis))
	assert.Equal(t, "bestaudio/best", formatSelector(model.CodecAny))
}

func TestIsCollectionURL(t *testing.T) {
	tests := []struct {
		name string
		kind model.SourceKind
		url  string
		want bool
	}{
		{"youtube video", model.SourceYouTube, "https://www.youtube.com/watch?v=abc", false},
		{"youtube list param", model.SourceYouTube, "https://www.youtube.com/watch?v=abc&list=PL1", true},
		{"youtube playlist", model.SourceYouTube, "https://music.youtube.com/playlist?list=PL1", true},
		{"soundcloud track", model.SourceSoundCloud, "https://soundcloud.com/artist/track", false},
		{"soundcloud set", model.SourceSoundCloud, "https://soundcloud.com/artist/sets/ep", true},
		{"bandcamp track", model.SourceBandcamp, "https://artist.bandcamp.com/track/one", false},
		{"bandcamp album", model.SourceBandcamp, "https://artist.bandcamp.com/album/lp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCollectionURL(tt.kind, tt.url))
		})
	}
}
