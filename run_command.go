package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"episodedl/episode"
	"episodedl/feed"
	"episodedl/history"
	"episodedl/pipeline"
	"episodedl/transcode"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		feedURL   string
		outputDir string
		prefetch  int
		keepRaw   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download and convert every episode in the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.URL = strings.TrimSpace(feedURL)
			}
			if flags.Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if flags.Changed("prefetch") {
				cfg.Prefetch = prefetch
			}
			if flags.Changed("keep-raw") {
				cfg.KeepRaw = keepRaw
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			episodes, err := feed.Fetch(runCtx, client, cfg.URL)
			if err != nil {
				return fmt.Errorf("load feed: %w", err)
			}

			var recorder episode.Recorder
			if cfg.HistoryDB != "" {
				store, err := history.Open(cfg.HistoryDB)
				if err != nil {
					return err
				}
				defer store.Close()
				recorder = store
			}

			progress := newSegmentProgress(cmd.ErrOrStderr())
			defer progress.close()

			p := pipeline.New(client, pipeline.Options{
				Prefetch: cfg.Prefetch,
				Progress: progress.update,
				Logger:   logger,
			})
			runner := episode.NewRunner(p, transcode.FFmpeg{Binary: cfg.FFmpegBinary}, episode.Options{
				OutputDir:     cfg.OutputDir,
				TmpDir:        cfg.TmpDir,
				KeepRaw:       cfg.KeepRaw,
				LockPath:      cfg.LockPath(),
				History:       recorder,
				SkipCompleted: cfg.SkipCompleted,
				Logger:        logger,
			})

			summary, err := runner.Run(runCtx, episodes)
			progress.close()
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&feedURL, "url", "", "Episode feed URL (overrides config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for finished MP3 files (overrides config)")
	cmd.Flags().IntVar(&prefetch, "prefetch", 1, "Segments fetched ahead of the writer")
	cmd.Flags().BoolVar(&keepRaw, "keep-raw", false, "Keep the assembled AAC next to the MP3")
	return cmd
}

func printSummary(cmd *cobra.Command, summary episode.Summary) {
	out := cmd.OutOrStdout()
	var total int64
	for _, o := range summary.Outcomes {
		total += o.Result.Bytes
	}
	fmt.Fprintf(out, "Run %s: %d completed, %d failed, %d skipped (%s downloaded)\n",
		summary.RunID, summary.Completed, summary.Failed, summary.Skipped, humanize.Bytes(uint64(total)))
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "  failed: %s: %v\n", o.Episode.Title, o.Err)
		}
	}
}
