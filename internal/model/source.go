package model

import (
	"fmt"
	"net/url"
	"strings"
)

// SourceKind 媒体来源站点
type SourceKind string

const (
	SourceYouTube    SourceKind = "youtube"
	SourceSoundCloud SourceKind = "soundcloud"
	SourceBandcamp   SourceKind = "bandcamp"
)

// Format 输出音频格式
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatOpus Format = "opus"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"

	DefaultFormat = FormatMP3
)

// Quality 输出质量档位
type Quality string

const (
	QualityBest   Quality = "best"
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"

	DefaultQuality = QualityHigh
)

// CodecPreference 下载源音频编码偏好
type CodecPreference string

const (
	CodecAny    CodecPreference = "any"
	CodecOpus   CodecPreference = "opus"
	CodecAAC    CodecPreference = "aac"
	CodecVorbis CodecPreference = "vorbis"

	DefaultCodecPreference = CodecAny
)

// sourceHosts 每种来源允许的主机名；以 "." 开头表示允许任意子域名
var sourceHosts = map[SourceKind][]string{
	SourceYouTube:    {"youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be"},
	SourceSoundCloud: {"soundcloud.com", "www.soundcloud.com", "m.soundcloud.com", "on.soundcloud.com"},
	SourceBandcamp:   {"bandcamp.com", ".bandcamp.com"},
}

// SourceKinds 返回所有支持的来源（顺序固定）
func SourceKinds() []SourceKind {
	return []SourceKind{SourceYouTube, SourceSoundCloud, SourceBandcamp}
}

func (k SourceKind) Valid() bool {
	_, ok := sourceHosts[k]
	return ok
}

// AllowsHost 判断主机名是否在该来源的白名单内
func (k SourceKind) AllowsHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, h := range sourceHosts[k] {
		if strings.HasPrefix(h, ".") {
			if strings.HasSuffix(host, h) && len(host) > len(h) {
				return true
			}
			continue
		}
		if host == h {
			return true
		}
	}
	return false
}

// ParseSourceURL 校验 URL 的 scheme 与主机。kind 为空时按主机名推断来源。
func ParseSourceURL(kind SourceKind, raw string) (SourceKind, *url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, fmt.Errorf("source_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("source_url is malformed: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", nil, fmt.Errorf("source_url scheme must be http or https (got %q)", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", nil, fmt.Errorf("source_url missing host")
	}
	if u.User != nil {
		return "", nil, fmt.Errorf("source_url must not carry credentials")
	}

	if kind == "" {
		for _, k := range SourceKinds() {
			if k.AllowsHost(host) {
				return k, u, nil
			}
		}
		return "", nil, fmt.Errorf("source_url host %q is not a supported source", host)
	}
	if !kind.Valid() {
		return "", nil, fmt.Errorf("unknown source %q", kind)
	}
	if !kind.AllowsHost(host) {
		return "", nil, fmt.Errorf("source_url host %q is not allowed for source %s", host, kind)
	}
	return kind, u, nil
}

// NormalizeFormat 未知或为空时回落到默认值
func NormalizeFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMP3, FormatM4A, FormatOpus, FormatFLAC, FormatWAV:
		return f
	default:
		return DefaultFormat
	}
}

// NormalizeQuality 未知或为空时回落到默认值
func NormalizeQuality(s string) Quality {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityBest, QualityHigh, QualityMedium, QualityLow:
		return q
	default:
		return DefaultQuality
	}
}

// NormalizeCodecPreference 未知或为空时回落到默认值
func NormalizeCodecPreference(s string) CodecPreference {
	switch c := CodecPreference(strings.ToLower(strings.TrimSpace(s))); c {
	case CodecAny, CodecOpus, CodecAAC, CodecVorbis:
		return c
	default:
		return DefaultCodecPreference
	}
}
