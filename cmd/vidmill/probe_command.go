package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidmill/internal/hwaccel"
	"vidmill/internal/logging"
	"vidmill/internal/preflight"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe hardware encoding capability and run preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var result hwaccel.Result
			if cfg.Encoder.HardwareEnabled {
				prober := hwaccel.NewQSVProber(cfg.Encoder.DeviceDir, cfg.Encoder.Device, cfg.FFmpegBinary(), logging.NewNop())
				result = prober.Probe(cmd.Context())
			} else {
				result = hwaccel.Software().Result
			}
			checks := preflight.RunAll(cmd.Context(), cfg)

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"encoder":   result,
					"preflight": checks,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, "Encoder")
			methodKind := statusWarn
			if result.Method == hwaccel.MethodHardware {
				methodKind = statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Method", methodKind, string(result.Method), colorize))
			if result.Device != "" {
				fmt.Fprintln(out, renderStatusLine("Device", statusInfo, result.Device, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("QSV codec", boolKind(result.CodecFound), fmt.Sprintf("%t", result.CodecFound), colorize))

			fmt.Fprintln(out, "Preflight")
			for _, check := range checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit probe results as JSON")
	return cmd
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}
