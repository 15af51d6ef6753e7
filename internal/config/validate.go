package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if c.Server.DownloadDir == "" {
		return errors.New("server.download_dir must be set")
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.RetentionMinutes < 0 {
		return errors.New("jobs.retention_minutes must be positive")
	}
	if c.Jobs.MaxParallel < 0 {
		return errors.New("jobs.max_parallel must be 0 (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if filepath.IsAbs(c.Engine.OutputTemplate) || strings.Contains(c.Engine.OutputTemplate, "..") {
		return fmt.Errorf("engine.output_template %q must stay inside the download directory", c.Engine.OutputTemplate)
	}
	if _, err := strconv.Atoi(c.Engine.AudioQuality); err != nil {
		return fmt.Errorf("engine.audio_quality %q must be a bitrate in kbps", c.Engine.AudioQuality)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
