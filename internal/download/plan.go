package download

import (
	"github.com/ytget/yt-webdl/internal/engine"
	"github.com/ytget/yt-webdl/internal/model"
)

// Format selectors per quality preset
const (
	FormatBest  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	Format1080p = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/best[height<=1080]"
	Format720p  = "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best[height<=720]"
	Format480p  = "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480][ext=mp4]/best[height<=480]"
	FormatAudio = "bestaudio/best"
)

// Audio extraction defaults
const (
	DefaultAudioCodec   = "mp3"
	DefaultAudioQuality = "192"
)

// Plan is what the engine is asked to do for one job
type Plan struct {
	Format         string
	PostProcessors []engine.PostProcessor
	NoPlaylist     bool
}

// BuildPlan maps a quality preset and download type onto engine settings
func BuildPlan(quality model.Quality, downloadType model.DownloadType, audioCodec, audioQuality string) Plan {
	plan := Plan{
		Format:     formatFor(quality),
		NoPlaylist: !downloadType.AllowsPlaylist(),
	}

	if quality == model.QualityAudio {
		if audioCodec == "" {
			audioCodec = DefaultAudioCodec
		}
		if audioQuality == "" {
			audioQuality = DefaultAudioQuality
		}
		plan.PostProcessors = []engine.PostProcessor{{
			Key:              engine.PostProcessorExtractAudio,
			PreferredCodec:   audioCodec,
			PreferredQuality: audioQuality,
		}}
	}

	return plan
}

func formatFor(quality model.Quality) string {
	switch quality {
	case model.QualityAudio:
		return FormatAudio
	case model.Quality1080p:
		return Format1080p
	case model.Quality720p:
		return Format720p
	case model.Quality480p:
		return Format480p
	default:
		return FormatBest
	}
}
