package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bsrbot/internal/bot"
	"bsrbot/internal/services/beatsaver"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <id|url>",
		Short: "Resolve a map on BeatSaver and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			id, err := bot.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			catalog, err := beatsaver.New(cfg.BeatSaver.BaseURL, requestTimeout(cfg))
			if err != nil {
				return err
			}
			info, err := catalog.Resolve(cmd.Context(), id)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"ID", id},
				{"Name", info.Name},
				{"Hash", info.Hash},
				{"Download", info.URL},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
