package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"episodedl/config"
	"episodedl/failure"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("EPISODEDL_URL", "")
	t.Chdir(t.TempDir())

	cfg, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected no config file")
	}
	if cfg.OutputDir != "downloads" {
		t.Fatalf("unexpected output dir %q", cfg.OutputDir)
	}
	if cfg.Prefetch != 1 || cfg.FFmpegBinary != "ffmpeg" || cfg.RequestTimeout != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}

	err = cfg.Validate()
	if !errors.Is(err, failure.ErrConfiguration) {
		t.Fatalf("expected missing url to fail validation, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("EPISODEDL_URL", "http://env.example/feed.json")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "episodedl.toml")
	contents := `
url = " https://feeds.example/episodes.json "
output_dir = "~/podcasts"
keep_raw = true
request_timeout = 30
prefetch = 4
history_db = "~/state/history.db"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if cfg.URL != "https://feeds.example/episodes.json" {
		t.Fatalf("file url should win over env, got %q", cfg.URL)
	}
	if cfg.OutputDir != filepath.Join(home, "podcasts") {
		t.Fatalf("unexpected output dir %q", cfg.OutputDir)
	}
	if cfg.HistoryDB != filepath.Join(home, "state", "history.db") {
		t.Fatalf("unexpected history db %q", cfg.HistoryDB)
	}
	if !cfg.KeepRaw || cfg.Prefetch != 4 || cfg.Timeout().Seconds() != 30 {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging should be normalized, got %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.LockPath() != filepath.Join(home, "podcasts", ".episodedl.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("EPISODEDL_URL", "http://env.example/feed.json")
	cfg, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://env.example/feed.json" {
		t.Fatalf("expected env url, got %q", cfg.URL)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("url = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := config.Default()
	base.URL = "https://feeds.example/e.json"
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"relative url": func(c *config.Config) { c.URL = "feeds/e.json" },
		"ftp url":      func(c *config.Config) { c.URL = "ftp://host/e.json" },
		"prefetch":     func(c *config.Config) { c.Prefetch = -2 },
		"timeout":      func(c *config.Config) { c.RequestTimeout = -1 },
		"log format":   func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, failure.ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.OutputDir != "downloads" || cfg.Prefetch != 1 {
		t.Fatalf("sample should mirror defaults, got %+v", cfg)
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "episodedl.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatal(err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}
