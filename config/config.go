package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for episodedl.
type Config struct {
	URL            string  `toml:"url"`
	OutputDir      string  `toml:"output_dir"`
	TmpDir         string  `toml:"tmp_dir"`
	KeepRaw        bool    `toml:"keep_raw"`
	UserAgent      string  `toml:"user_agent"`
	RequestTimeout int     `toml:"request_timeout"` // seconds, 0 disables
	Prefetch       int     `toml:"prefetch"`
	FFmpegBinary   string  `toml:"ffmpeg_binary"`
	HistoryDB      string  `toml:"history_db"`
	SkipCompleted  bool    `toml:"skip_completed"`
	Logging        Logging `toml:"logging"`
}

// Load reads the configuration at path, or episodedl.toml in the working
// directory when path is empty. A missing file is not an error; the returned
// bool reports whether one was read. The result is normalized, not validated.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}

	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = os.Getenv(envURL)
	}

	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// LockPath is the file guarding OutputDir against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.OutputDir, ".episodedl.lock")
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigFile
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}
