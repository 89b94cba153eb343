package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bsrbot/internal/artifact"
	"bsrbot/internal/bot"
	"bsrbot/internal/chat"
	"bsrbot/internal/config"
	"bsrbot/internal/daemon"
	"bsrbot/internal/device"
	"bsrbot/internal/logging"
	"bsrbot/internal/metrics"
	"bsrbot/internal/preflight"
	"bsrbot/internal/services/adb"
	"bsrbot/internal/services/beatsaver"
)

const metricsNamespace = "bsrbot"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the headset and serve chat song requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), ctx, skipPreflight)
		},
	}
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running preflight checks")
	return cmd
}

func runBot(cmdCtx context.Context, ctx *commandContext, skipPreflight bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateChat(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if !skipPreflight {
		// The headset is connected by Run itself; its optional check adds nothing here.
		if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg, true)); len(failed) > 0 {
			names := make([]string, 0, len(failed))
			for _, r := range failed {
				logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
				)
				names = append(names, r.Name)
			}
			return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
		}
	}

	parts, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, parts, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	logger.Info("bsrbot starting",
		logging.String("channel", cfg.Twitch.Channel),
		logging.String("owner", cfg.Bot.Owner),
	)
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("bsrbot stopped")
	return nil
}

func buildComponents(cfg *config.Config, logger *slog.Logger) (daemon.Components, error) {
	adbClient, err := adb.New(cfg.ADB.Binary, adb.WithLogger(logger))
	if err != nil {
		return daemon.Components{}, fmt.Errorf("create adb client: %w", err)
	}
	headset := device.New(adbClient, device.OptionsFromConfig(cfg), logger)

	catalog, err := beatsaver.New(cfg.BeatSaver.BaseURL, requestTimeout(cfg), beatsaver.WithLogger(logger))
	if err != nil {
		return daemon.Components{}, fmt.Errorf("create catalog client: %w", err)
	}

	session := chat.New(chat.CredentialsFromConfig(cfg), logger)

	parts := daemon.Components{
		Chat:    session,
		Headset: headset,
	}
	var recorder metrics.Metrics = metrics.Noop{}
	if cfg.Metrics.Enabled {
		prom := metrics.NewProm(metricsNamespace)
		recorder = prom
		parts.Metrics = metrics.NewServer(cfg.Metrics.Bind, prom, logger)
	}

	parts.Router = bot.NewRouter(bot.Dependencies{
		Sink:     session,
		Resolver: catalog,
		Fetcher:  artifact.NewFetcher(cfg.Paths.ScratchDir, logger),
		Unpacker: artifact.NewUnpacker(cfg.Paths.ScratchDir, logger),
		Device:   headset,
		Metrics:  recorder,
	}, cfg.Bot.Owner, cfg.Bot.Prefix, logger)

	return parts, nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.BeatSaver.RequestTimeout) * time.Second
}
