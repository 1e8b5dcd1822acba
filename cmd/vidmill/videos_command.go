package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidmill/internal/catalog"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List converted videos in the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			videos := catalog.ListOutputs(cfg.Paths.OutputDir)
			if jsonOutput {
				return writeJSON(cmd, videos)
			}

			out := cmd.OutOrStdout()
			if len(videos) == 0 {
				fmt.Fprintln(out, "No converted videos found.")
				return nil
			}

			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				rows = append(rows, []string{
					video.Name,
					video.SizeFormatted,
					video.DateFormatted,
					video.Format,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Size", "Date", "Format"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the listing as JSON")
	return cmd
}
