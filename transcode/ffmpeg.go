// Package transcode converts assembled raw AAC audio to MP3 with ffmpeg.
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"episodedl/failure"
)

const (
	DefaultBinary = "ffmpeg"
	Bitrate       = "128k"
)

// FFmpeg runs the ffmpeg binary named by Binary, or "ffmpeg" from PATH.
type FFmpeg struct {
	Binary string
}

// Args returns the ffmpeg arguments converting input to output.
func Args(input, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "aac",
		"-i", input,
		"-acodec", "libmp3lame",
		"-b:a", Bitrate,
		output,
	}
}

// Transcode converts input to output. A non-zero exit is a failure.ErrProcess.
func (f FFmpeg) Transcode(ctx context.Context, input, output string) error {
	binary := f.binaryName()
	cmd := exec.CommandContext(ctx, binary, Args(input, output)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = "failed to convert to MP3"
		}
		return failure.Wrap(failure.ErrProcess, "transcode", binary, detail, err)
	}
	return nil
}

func (f FFmpeg) String() string {
	return fmt.Sprintf("%s %s", f.binaryName(), strings.Join(Args("<input>", "<output>"), " "))
}

func (f FFmpeg) binaryName() string {
	if b := strings.TrimSpace(f.Binary); b != "" {
		return b
	}
	return DefaultBinary
}
