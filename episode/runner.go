// Package episode drives a run over the feed: one episode at a time, each in
// its own temp file, with failures contained to the episode that caused them.
package episode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"episodedl/failure"
	"episodedl/feed"
	"episodedl/history"
	"episodedl/logging"
	"episodedl/pipeline"
	"episodedl/utils"
)

const (
	rawPattern    = "episodedl-*.aac"
	rawBufferSize = 256 << 10
)

// Transcoder converts the assembled raw file at input into output.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// Recorder persists episode outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
	Completed(ctx context.Context, streamURL string) (bool, error)
}

// Options configures a Runner. LockPath defaults to a hidden file inside
// OutputDir; an empty TmpDir uses the system temp directory.
type Options struct {
	OutputDir     string
	TmpDir        string
	KeepRaw       bool
	LockPath      string
	History       Recorder
	SkipCompleted bool
	Logger        *slog.Logger
}

// Outcome is the result of one episode.
type Outcome struct {
	Episode    feed.Episode
	OutputPath string
	Status     string
	Err        error
	Result     pipeline.Result
}

// Summary aggregates a run.
type Summary struct {
	RunID     string
	Completed int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
}

type Runner struct {
	pipeline   *pipeline.Pipeline
	transcoder Transcoder
	opts       Options
	logger     *slog.Logger
}

func NewRunner(p *pipeline.Pipeline, t Transcoder, opts Options) *Runner {
	if opts.OutputDir == "" {
		opts.OutputDir = "downloads"
	}
	if opts.LockPath == "" {
		opts.LockPath = filepath.Join(opts.OutputDir, ".episodedl.lock")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{pipeline: p, transcoder: t, opts: opts, logger: logger}
}

// Run processes episodes in feed order. Only setup failures and
// cancellation are returned as errors; episode failures are in the Summary.
func (r *Runner) Run(ctx context.Context, episodes []feed.Episode) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return summary, failure.Wrap(failure.ErrIO, "runner", "create output dir", r.opts.OutputDir, err)
	}
	lock := flock.New(r.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return summary, failure.Wrap(failure.ErrIO, "runner", "acquire lock", r.opts.LockPath, err)
	}
	if !ok {
		return summary, fmt.Errorf("another episodedl run is already writing to %s", r.opts.OutputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", slog.Any("error", err))
		}
	}()

	logger := r.logger.With(slog.String(logging.FieldRunID, summary.RunID))
	logger.Info("run started", slog.Int("episodes", len(episodes)), slog.String("output_dir", r.opts.OutputDir))

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		out := r.episode(ctx, logger, summary.RunID, ep)
		summary.Outcomes = append(summary.Outcomes, out)
		switch out.Status {
		case history.StatusCompleted:
			summary.Completed++
		case history.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	logger.Info("run finished",
		slog.Int("completed", summary.Completed),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))
	return summary, nil
}

func (r *Runner) episode(ctx context.Context, logger *slog.Logger, runID string, ep feed.Episode) Outcome {
	logger = logger.With(slog.String(logging.FieldEpisode, ep.Title))
	started := time.Now()
	out := Outcome{Episode: ep}

	if err := ep.Validate(); err != nil {
		return r.finish(ctx, logger, runID, started, out, err)
	}
	out.OutputPath = utils.OutputName(r.opts.OutputDir, ep.Title)

	if r.skip(ctx, logger, ep, out.OutputPath) {
		out.Status = history.StatusSkipped
		logger.Info("already downloaded, skipping", slog.String("output", out.OutputPath))
		return r.finish(ctx, logger, runID, started, out, nil)
	}

	logger.Info("downloading", slog.String("stream_url", ep.StreamURL))
	err := r.download(ctx, logger, ep, &out)
	return r.finish(ctx, logger, runID, started, out, err)
}

func (r *Runner) skip(ctx context.Context, logger *slog.Logger, ep feed.Episode, output string) bool {
	if !r.opts.SkipCompleted || r.opts.History == nil {
		return false
	}
	done, err := r.opts.History.Completed(ctx, ep.StreamURL)
	if err != nil {
		logger.Warn("history lookup failed", slog.Any("error", err))
		return false
	}
	if !done {
		return false
	}
	_, err = os.Stat(output)
	return err == nil
}

// download assembles the episode into a temp file and transcodes it. The
// temp file never outlives this call unless it is kept as the raw output.
func (r *Runner) download(ctx context.Context, logger *slog.Logger, ep feed.Episode, out *Outcome) error {
	if r.opts.TmpDir != "" {
		if err := os.MkdirAll(r.opts.TmpDir, 0o755); err != nil {
			return failure.Wrap(failure.ErrIO, "runner", "create tmp dir", r.opts.TmpDir, err)
		}
	}
	tmp, err := os.CreateTemp(r.opts.TmpDir, rawPattern)
	if err != nil {
		return failure.Wrap(failure.ErrIO, "runner", "create temp file", "", err)
	}
	rawPath := tmp.Name()
	defer os.Remove(rawPath)

	bw := bufio.NewWriterSize(tmp, rawBufferSize)
	res, err := r.pipeline.Run(ctx, ep.Title, ep.StreamURL, bw)
	out.Result = res
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return failure.Wrap(failure.ErrIO, "runner", "close temp file", rawPath, closeErr)
	}
	logger.Info("assembled",
		slog.Int("segments", res.Segments),
		slog.String("size", humanize.Bytes(uint64(res.Bytes))))

	if err := r.transcoder.Transcode(ctx, rawPath, out.OutputPath); err != nil {
		if rmErr := os.Remove(out.OutputPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("failed to remove partial output", slog.String("path", out.OutputPath), slog.Any("error", rmErr))
		}
		return err
	}

	if r.opts.KeepRaw {
		rawOut := strings.TrimSuffix(out.OutputPath, ".mp3") + ".aac"
		if err := moveFile(rawPath, rawOut); err != nil {
			logger.Warn("failed to keep raw audio", slog.String("path", rawOut), slog.Any("error", err))
		}
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, runID string, started time.Time, out Outcome, err error) Outcome {
	out.Err = err
	switch {
	case err != nil:
		out.Status = history.StatusFailed
		logger.Error("error downloading episode",
			slog.String(logging.FieldErrorKind, failure.Kind(err)),
			slog.Any("error", err))
	case out.Status == "":
		out.Status = history.StatusCompleted
		logger.Info("downloaded and converted", slog.String("output", out.OutputPath))
	}

	if r.opts.History != nil {
		entry := history.Entry{
			RunID:      runID,
			Title:      out.Episode.Title,
			StreamURL:  out.Episode.StreamURL,
			OutputPath: out.OutputPath,
			Status:     out.Status,
			Segments:   out.Result.Segments,
			Bytes:      out.Result.Bytes,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err != nil {
			entry.ErrorKind = failure.Kind(err)
			entry.Error = err.Error()
		}
		// Recording must survive a cancelled run.
		if recErr := r.opts.History.Record(context.WithoutCancel(ctx), entry); recErr != nil {
			logger.Warn("failed to record history", slog.Any("error", recErr))
		}
	}
	return out
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Join(err, os.Remove(dst))
	}
	return out.Close()
}
