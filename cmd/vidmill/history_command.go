package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"vidmill/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in the configuration")
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversion history recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := entry.Detail
				if entry.Outcome == history.OutcomeCompleted {
					detail = formatSeconds(entry.EncodeSeconds)
				}
				rows = append(rows, []string{
					entry.FinishedAt.Local().Format("2006-01-02 15:04"),
					filepath.Base(entry.InputPath),
					entry.Method,
					entry.Outcome,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "File", "Method", "Outcome", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit history as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")
	return cmd
}
