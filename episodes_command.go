package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"episodedl/failure"
	"episodedl/feed"
	"episodedl/utils"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var feedURL string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List the episodes in the feed without downloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("url") {
				cfg.URL = feedURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			episodes, err := feed.Fetch(cmd.Context(), client, cfg.URL)
			if err != nil {
				return fmt.Errorf("load feed: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(episodes) == 0 {
				fmt.Fprintln(out, "Feed has no episodes")
				return nil
			}
			rows := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				output := utils.OutputName(cfg.OutputDir, ep.Title)
				if err := ep.Validate(); err != nil {
					output = "invalid: " + failure.Kind(err)
				}
				rows = append(rows, []string{strconv.Itoa(ep.Index + 1), ep.Title, ep.StreamURL, output})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Stream URL", "Output"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&feedURL, "url", "", "Episode feed URL (overrides config)")
	return cmd
}
