package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed sample_config.toml
var sampleConfig string

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path unless a file already
// exists there.
func WriteSample(path string) error {
	if path == "" {
		path = defaultConfigFile
	}
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config %s already exists", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if dir := filepath.Dir(expanded); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}
