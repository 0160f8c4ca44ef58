package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"episodedl/failure"
)

func TestArgs(t *testing.T) {
	got := Args("/tmp/raw.aac", "downloads/Show.mp3")
	want := []string{"-hide_banner", "-loglevel", "error", "-y", "-f", "aac", "-i", "/tmp/raw.aac", "-acodec", "libmp3lame", "-b:a", "128k", "downloads/Show.mp3"}
	if !slices.Equal(got, want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}
}

// fakeBinary writes a shell script standing in for ffmpeg.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts unavailable")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscodeSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp3")
	// The last argument is the output path.
	bin := fakeBinary(t, "for last; do :; done\necho mp3 > \"$last\"\n")

	if err := (FFmpeg{Binary: bin}).Transcode(context.Background(), filepath.Join(dir, "in.aac"), out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "mp3" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestTranscodeDefaultBinaryFromPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp3")
	bin := fakeBinary(t, "for last; do :; done\necho default > \"$last\"\n")
	t.Setenv("PATH", filepath.Dir(bin))

	if err := (FFmpeg{Binary: "  "}).Transcode(context.Background(), "in.aac", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "default" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestTranscodeNonZeroExit(t *testing.T) {
	bin := fakeBinary(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")

	err := (FFmpeg{Binary: bin}).Transcode(context.Background(), "in.aac", "out.mp3")
	if !errors.Is(err, failure.ErrProcess) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
}

func TestTranscodeMissingBinary(t *testing.T) {
	err := (FFmpeg{Binary: filepath.Join(t.TempDir(), "does-not-exist")}).Transcode(context.Background(), "in.aac", "out.mp3")
	if !errors.Is(err, failure.ErrProcess) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
}

func TestString(t *testing.T) {
	if s := (FFmpeg{}).String(); !strings.HasPrefix(s, "ffmpeg -hide_banner") {
		t.Fatalf("unexpected %q", s)
	}
}
