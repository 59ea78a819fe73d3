package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/relay"
	"github.com/rewired-gh/tickerdesk/internal/scheduler"
	"github.com/rewired-gh/tickerdesk/internal/storage"
	"github.com/rewired-gh/tickerdesk/internal/telegram"
)

func newWatchCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Relay new backend alerts to Telegram without a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return a.runWatch(ctx, once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single relay cycle and exit")
	return cmd
}

func (a *app) runWatch(ctx context.Context, once bool) error {
	cfg := a.cfg

	store, err := storage.New(cfg.Relay.MaxLedgerEntries, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	client := a.client()

	var telegramClient *telegram.Client
	var notifier relay.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	severity, err := models.ParseSeverity(cfg.Relay.MinSeverity)
	if err != nil {
		return err
	}
	r := relay.New(client, store, notifier, relay.Config{
		UserID:       cfg.API.UserID,
		MinSeverity:  severity,
		PollInterval: cfg.Relay.PollInterval,
	})

	if once {
		sent, err := r.Poll(ctx)
		if err != nil {
			return err
		}
		logger.Info("Relayed %d notifications", sent)
		return nil
	}

	if telegramClient != nil {
		commands := relay.NewCommands(client, store,
			cfg.API.UserID, cfg.Dashboard.TopPicksMinConfidence, cfg.Dashboard.TopPicksLimit)
		telegramClient.ListenForCommands(ctx, commands)
	}

	logger.Info("Starting relay (interval: %v, min_severity: %s, ledger: %d entries)",
		cfg.Relay.PollInterval, severity, cfg.Relay.MaxLedgerEntries)

	sched := scheduler.New(ctx, r.Hooks())
	sched.Every("relay", cfg.Relay.PollInterval, r.Task())

	<-ctx.Done()
	sched.Stop()
	logger.Info("Relay stopped")
	return nil
}
