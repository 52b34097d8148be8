package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdugdh24/guildmatch/internal/config"
	"github.com/gdugdh24/guildmatch/internal/infrastructure/container"
	"github.com/gdugdh24/guildmatch/internal/infrastructure/telemetry"
	"github.com/gdugdh24/guildmatch/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "guildmatch bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	logger, flush, err := logging.FromConfig(os.Stdout, cfg)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "guildmatch-bot", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	app, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing application", "error", err)
		}
	}()

	bot, err := app.NewBot()
	if err != nil {
		return err
	}
	if err := bot.Open(); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Error("error closing discord session", "error", err)
		}
	}()

	relayErr := make(chan error, 1)
	go func() {
		relayErr <- app.RelayEvents(ctx)
	}()

	logger.Info("bot running", "redis_events", cfg.Redis.Enabled)
	for {
		select {
		case <-ctx.Done():
			logger.Info("bot shutting down")
			return nil
		case err := <-relayErr:
			if err != nil {
				return fmt.Errorf("match event relay stopped: %w", err)
			}
			relayErr = nil
		}
	}
}
