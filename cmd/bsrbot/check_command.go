package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bsrbot/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipDevice bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks and report the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg, skipDevice)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDevice, "skip-device", false, "Do not query adb for attached devices")
	return cmd
}
