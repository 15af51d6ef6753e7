package model

import "strings"

// Quality is the closed set of quality presets a job can request
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	QualityAudio Quality = "audio"
)

// DownloadType selects how playlist URLs are treated
type DownloadType string

const (
	// DownloadAuto follows whatever the URL resolves to
	DownloadAuto DownloadType = "auto"
	// DownloadSingle forces single-item mode even for playlist URLs
	DownloadSingle DownloadType = "single"
	// DownloadPlaylist forces multi-item mode
	DownloadPlaylist DownloadType = "playlist"
)

// ParseQuality normalizes a user supplied quality. Unknown or empty values map to best.
func ParseQuality(value string) Quality {
	switch q := Quality(strings.ToLower(strings.TrimSpace(value))); q {
	case QualityAudio, Quality1080p, Quality720p, Quality480p:
		return q
	default:
		return QualityBest
	}
}

// ParseDownloadType normalizes a user supplied download type. Unknown or empty values map to auto.
func ParseDownloadType(value string) DownloadType {
	switch dt := DownloadType(strings.ToLower(strings.TrimSpace(value))); dt {
	case DownloadSingle, DownloadPlaylist:
		return dt
	default:
		return DownloadAuto
	}
}

// AllowsPlaylist reports whether the engine may expand playlists
func (dt DownloadType) AllowsPlaylist() bool {
	return dt != DownloadSingle
}
