package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidmill/internal/daemonrun"
	"vidmill/internal/history"
	"vidmill/internal/logging"
	"vidmill/internal/workflow"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan-and-convert pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stdout"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var recorder workflow.Recorder
			if cfg.History.Enabled {
				store, openErr := history.Open(cfg)
				if openErr != nil {
					return fmt.Errorf("open history store: %w", openErr)
				}
				defer store.Close()
				recorder = store
			}

			manager := daemonrun.BuildManager(cfg, recorder, logger)
			summary, err := manager.RunPass(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan pass: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d video files, %d eligible.\n", summary.Total, summary.Eligible)
			fmt.Fprintf(out, "Converted %d, failed %d in %s.\n", summary.Completed, summary.Failed, summary.Elapsed.Round(summaryRounding))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the pass summary as JSON")
	return cmd
}
