package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/config"
	"github.com/rewired-gh/tickerdesk/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	logFile    *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tickerdesk",
		Short: "Terminal dashboard for stock conviction scores and trade signals",
		Long: `tickerdesk renders the scores, rankings and alerts computed by the scoring
backend: an action center, top picks, portfolio, per-ticker analysis, watchlist
rankings and the family audit. It can also relay alerts to Telegram headlessly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd == cmd.Root() || cmd.Name() == "dashboard")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				_ = a.logFile.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (default: ./tickerdesk.yaml or ~/.config/tickerdesk/tickerdesk.yaml)")

	root.AddCommand(
		newDashboardCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
		newImportCmd(a),
		newPicksCmd(a),
		newServeFixturesCmd(a),
	)
	return root
}

// setup loads and validates the config and initializes logging. The dashboard
// owns the terminal, so it logs to a file instead of stderr.
func (a *app) setup(toFile bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	path := cfg.Logging.File
	if toFile && path == "" {
		path = filepath.Join(os.TempDir(), "tickerdesk", "dashboard.log")
	}
	if path == "" {
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	} else {
		f, err := logger.OpenFile(path)
		if err != nil {
			return err
		}
		a.logFile = f
		logger.InitWithOutput(cfg.Logging.Level, cfg.Logging.Format, f)
	}

	source := a.configPath
	if source == "" {
		source = "defaults and environment"
	}
	logger.Debug("Configuration loaded from %s", source)
	return nil
}

func (a *app) client() *api.HTTPClient {
	return api.NewHTTPClient(a.cfg.API.BaseURL, api.ClientConfig{
		Timeout:        a.cfg.API.Timeout,
		MaxRetries:     a.cfg.API.MaxRetries,
		RetryDelayBase: a.cfg.API.RetryDelayBase,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
