package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidmill/internal/deps"
	"vidmill/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show conversion status and dependency availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			snap := status.Load(cfg.Paths.StatusFile)
			checks := deps.CheckBinaries(deps.Requirements(cfg))

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"status":       snap,
					"dependencies": checks,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, "Conversion")
			fmt.Fprintln(out, renderStatusLine("State", stateKind(snap.State), string(snap.State), colorize))
			if snap.CurrentFile != nil {
				fmt.Fprintln(out, renderStatusLine("File", statusInfo, *snap.CurrentFile, colorize))
				progress := fmt.Sprintf("%d%%", snap.Progress)
				if snap.Speed != nil {
					progress += fmt.Sprintf(" at %.2fx", *snap.Speed)
				}
				if snap.ETA != nil {
					progress += fmt.Sprintf(", ~%s left", formatSeconds(float64(*snap.ETA)))
				}
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, progress, colorize))
			}
			if snap.Method != nil {
				fmt.Fprintln(out, renderStatusLine("Method", statusInfo, *snap.Method, colorize))
			}

			fmt.Fprintln(out, "Dependencies")
			for _, check := range checks {
				kind := statusOK
				message := check.Command
				if !check.Available {
					message = check.Detail
					kind = statusError
					if check.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, message, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func stateKind(state status.State) statusKind {
	switch state {
	case status.StateCompleted:
		return statusOK
	case status.StateError:
		return statusError
	case status.StateStarting, status.StateConverting:
		return statusInfo
	default:
		return statusInfo
	}
}
