package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bsrbot/internal/device"
	"bsrbot/internal/logging"
	"bsrbot/internal/services/adb"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist",
		Short: "Show the song-request playlist on the headset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			client, err := adb.New(cfg.ADB.Binary, adb.WithLogger(logger))
			if err != nil {
				return err
			}
			headset := device.New(client, device.OptionsFromConfig(cfg), logger)
			if err := headset.Connect(cmd.Context()); err != nil {
				return err
			}
			defer headset.Close(context.WithoutCancel(cmd.Context()))

			playlist, err := headset.Playlist(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlaylist(playlist))
			return nil
		},
	}
}

func renderPlaylist(playlist *device.Playlist) string {
	if playlist == nil || len(playlist.Songs) == 0 {
		return "Playlist is empty"
	}
	rows := make([][]string, 0, len(playlist.Songs))
	for i, song := range playlist.Songs {
		rows = append(rows, []string{strconv.Itoa(i + 1), song.SongName, song.Hash})
	}
	return renderTable([]string{"#", "Song", "Hash"}, rows, []columnAlignment{alignRight})
}
