package config

import (
	"path/filepath"

	"github.com/ytget/yt-webdl/internal/platform"
)

// Config file locations
const (
	defaultConfigPath = "~/.config/yt-webdl/config.toml"
	projectConfigName = "yt-webdl.toml"
)

// Default values
const (
	defaultBind             = "127.0.0.1:5000"
	defaultLockFileName     = ".yt-webdl.lock"
	defaultRetentionMinutes = 60
	defaultBinary           = "yt-dlp"
	defaultOutputTemplate   = "%(title)s.%(ext)s"
	defaultMergeFormat      = "mp4"
	defaultAudioCodec       = "mp3"
	defaultAudioQuality     = "192"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultSubjectPrefix    = "ytwebdl.jobs"
	defaultDownloadSubdir   = "yt-webdl"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:        defaultBind,
			DownloadDir: defaultDownloadDir(),
		},
		Jobs: Jobs{
			RetentionMinutes: defaultRetentionMinutes,
		},
		Engine: Engine{
			Binary:         defaultBinary,
			OutputTemplate: defaultOutputTemplate,
			MergeFormat:    defaultMergeFormat,
			AudioCodec:     defaultAudioCodec,
			AudioQuality:   defaultAudioQuality,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Events: Events{
			SubjectPrefix: defaultSubjectPrefix,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

func defaultDownloadDir() string {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(dir, defaultDownloadSubdir)
}
