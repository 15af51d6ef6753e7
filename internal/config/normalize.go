package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables
const (
	EnvConfig           = "YTWEBDL_CONFIG"
	EnvBind             = "YTWEBDL_BIND"
	EnvDownloadDir      = "YTWEBDL_DOWNLOAD_DIR"
	EnvLockFile         = "YTWEBDL_LOCK_FILE"
	EnvRetentionMinutes = "YTWEBDL_RETENTION_MINUTES"
	EnvMaxParallel      = "YTWEBDL_MAX_PARALLEL"
	EnvBinary           = "YTWEBDL_YTDLP_BINARY"
	EnvLogLevel         = "YTWEBDL_LOG_LEVEL"
	EnvLogFormat        = "YTWEBDL_LOG_FORMAT"
	EnvNATSURL          = "YTWEBDL_NATS_URL"
	EnvMetricsEnabled   = "YTWEBDL_METRICS_ENABLED"
)

func (c *Config) applyEnv() error {
	setString(&c.Server.Bind, EnvBind)
	setString(&c.Server.DownloadDir, EnvDownloadDir)
	setString(&c.Server.LockFile, EnvLockFile)
	setString(&c.Engine.Binary, EnvBinary)
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setString(&c.Events.NATSURL, EnvNATSURL)

	if err := setInt(&c.Jobs.RetentionMinutes, EnvRetentionMinutes); err != nil {
		return err
	}
	if err := setInt(&c.Jobs.MaxParallel, EnvMaxParallel); err != nil {
		return err
	}
	if value, ok := lookupEnv(EnvMetricsEnabled); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvMetricsEnabled, value)
		}
		c.Metrics.Enabled = enabled
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func setString(target *string, key string) {
	if value, ok := lookupEnv(key); ok {
		*target = value
	}
}

func setInt(target *int, key string) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*target = parsed
	return nil
}

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeJobs()
	c.normalizeEngine()
	c.normalizeLogging()
	c.normalizeEvents()
	return nil
}

func (c *Config) normalizeServer() error {
	var err error
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if strings.TrimSpace(c.Server.DownloadDir) == "" {
		c.Server.DownloadDir = defaultDownloadDir()
	}
	if c.Server.DownloadDir, err = expandPath(c.Server.DownloadDir); err != nil {
		return fmt.Errorf("server.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Server.LockFile) == "" {
		c.Server.LockFile = filepath.Join(c.Server.DownloadDir, defaultLockFileName)
	}
	if c.Server.LockFile, err = expandPath(c.Server.LockFile); err != nil {
		return fmt.Errorf("server.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeJobs() {
	if c.Jobs.RetentionMinutes == 0 {
		c.Jobs.RetentionMinutes = defaultRetentionMinutes
	}
}

func (c *Config) normalizeEngine() {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		c.Engine.Binary = defaultBinary
	}
	if strings.TrimSpace(c.Engine.OutputTemplate) == "" {
		c.Engine.OutputTemplate = defaultOutputTemplate
	}
	c.Engine.MergeFormat = strings.ToLower(strings.TrimSpace(c.Engine.MergeFormat))
	if c.Engine.MergeFormat == "" {
		c.Engine.MergeFormat = defaultMergeFormat
	}
	c.Engine.AudioCodec = strings.ToLower(strings.TrimSpace(c.Engine.AudioCodec))
	if c.Engine.AudioCodec == "" {
		c.Engine.AudioCodec = defaultAudioCodec
	}
	c.Engine.AudioQuality = strings.TrimSuffix(strings.TrimSpace(c.Engine.AudioQuality), "K")
	if c.Engine.AudioQuality == "" {
		c.Engine.AudioQuality = defaultAudioQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizeEvents() {
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	c.Events.SubjectPrefix = strings.Trim(strings.TrimSpace(c.Events.SubjectPrefix), ".")
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = defaultSubjectPrefix
	}
}
