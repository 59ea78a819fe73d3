package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/tickerdesk/internal/devserver"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/marketstatus"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/tui"
	"github.com/rewired-gh/tickerdesk/internal/views"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd.Context())
		},
	}
}

func (a *app) runDashboard(parent context.Context) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	client := a.client()
	logger.Info("Starting dashboard against %s", a.cfg.API.BaseURL)
	return tui.Run(ctx, tui.Options{
		Client:    client,
		Status:    marketstatus.New(client),
		UserID:    a.cfg.API.UserID,
		Dashboard: a.cfg.Dashboard,
	})
}

func newStatusCmd(a *app) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show or change the market posture",
	}

	statusCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current market posture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
			defer cancel()

			state, err := marketstatus.New(a.client()).Init(ctx)
			if err != nil {
				return err
			}
			printMarketStatus(cmd.OutOrStdout(), state)
			return nil
		},
	})

	var note string
	setCmd := &cobra.Command{
		Use:       "set GREEN|YELLOW|ORANGE|RED",
		Short:     "Change the market posture",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"GREEN", "YELLOW", "ORANGE", "RED"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseMarketStatus(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
			defer cancel()

			state, err := marketstatus.New(a.client()).Set(ctx, status, note)
			if err != nil {
				return fmt.Errorf("failed to update market status: %w", err)
			}
			printMarketStatus(cmd.OutOrStdout(), state)
			return nil
		},
	}
	setCmd.Flags().StringVar(&note, "note", "", "Optional note shown next to the posture")
	statusCmd.AddCommand(setCmd)

	return statusCmd
}

func printMarketStatus(w io.Writer, state models.MarketStatusState) {
	fmt.Fprintf(w, "%s  %s\n", state.Status, state.Status.Label())
	if state.Note != "" {
		fmt.Fprintf(w, "note: %s\n", state.Note)
	}
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "updated %s\n", humanize.Time(state.UpdatedAt))
	}
}

func newPicksCmd(a *app) *cobra.Command {
	var minConfidence float64
	var limit int

	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Print today's top picks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-confidence") {
				minConfidence = a.cfg.Dashboard.TopPicksMinConfidence
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Dashboard.TopPicksLimit
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
			defer cancel()

			picks := views.NewTopPicks(a.client(), a.cfg.API.UserID, minConfidence, limit)
			if err := picks.Load(ctx); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), views.PlainPicks(picks.Snapshot().Data))
			return nil
		},
	}
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", views.DefaultTopPicksMinConfidence, "Minimum buy confidence (0-100)")
	cmd.Flags().IntVar(&limit, "limit", views.DefaultTopPicksLimit, "Maximum number of picks")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var form views.TranscriptForm
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a podcast or video transcript",
		Long: `Import a transcript for ticker extraction. Pass --file (or - for stdin)
to import non-interactively; without it you are prompted for each field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				prompted, err := promptTranscript()
				if err != nil {
					return err
				}
				form = prompted
			} else {
				text, err := readTranscript(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				form.Text = text
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
			defer cancel()

			res, err := views.NewTranscriptImporter(a.client()).Submit(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d stocks created\n", res.ID, res.StocksCreated)
			if len(res.DetectedTickers) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Detected: %s\n", strings.Join(res.DetectedTickers, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Transcript file (text or HTML), - for stdin")
	cmd.Flags().StringVar(&form.SourceName, "source", "", "Source name, e.g. the podcast episode")
	cmd.Flags().StringVar(&form.Date, "date", "", "Recording date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&form.URL, "url", "", "Link to the source")
	cmd.Flags().StringVar(&form.Quality, "quality", "", "Transcript quality: HIGH, MEDIUM or LOW (default MEDIUM)")
	return cmd
}

func readTranscript(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}

func newServeFixturesCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-fixtures",
		Short: "Serve canned backend data for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.DevServer.Addr
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			srv := devserver.New(devserver.DefaultFixtures(time.Now().UTC()))
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("Fixture backend stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default devserver.addr)")
	return cmd
}
