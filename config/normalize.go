package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	c.URL = strings.TrimSpace(c.URL)

	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.OutputDir, err = expandPath(strings.TrimSpace(c.OutputDir)); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	if c.TmpDir, err = expandPath(strings.TrimSpace(c.TmpDir)); err != nil {
		return fmt.Errorf("tmp_dir: %w", err)
	}
	if c.HistoryDB, err = expandPath(strings.TrimSpace(c.HistoryDB)); err != nil {
		return fmt.Errorf("history_db: %w", err)
	}

	if c.Prefetch == 0 {
		c.Prefetch = defaultPrefetch
	}
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = defaultFFmpegBinary
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
