package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// ErrNoTicker is returned when a per-ticker widget is loaded before a ticker is chosen.
var ErrNoTicker = errors.New("no ticker selected")

// AnalysisView shows the master signal for one ticker with its mini chart.
type AnalysisView struct {
	client api.Client
	res    *Resource[*models.MasterSignalResult]
	Chart  *ScoreHistoryChart

	mu     sync.Mutex
	ticker string
}

func NewAnalysisView(client api.Client, historyPoints int) *AnalysisView {
	v := &AnalysisView{client: client, Chart: NewScoreHistoryChart(client, historyPoints)}
	v.res = NewResource(func(ctx context.Context) (*models.MasterSignalResult, error) {
		ticker := v.Ticker()
		if ticker == "" {
			return nil, ErrNoTicker
		}
		return v.client.GetMasterSignal(ctx, ticker)
	})
	return v
}

func (v *AnalysisView) Title() string { return "Analysis" }

func (v *AnalysisView) Ticker() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ticker
}

// SetTicker points the view and its chart at ticker. Data for the previous
// ticker is dropped and any request for it is cancelled.
func (v *AnalysisView) SetTicker(ticker string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	v.mu.Lock()
	changed := ticker != v.ticker
	v.ticker = ticker
	v.mu.Unlock()
	if changed {
		v.res.Reset()
	}
	v.Chart.SetTicker(ticker)
}

// Load fetches the signal and then the chart. A chart failure does not fail
// the view; the chart renders its own error state.
func (v *AnalysisView) Load(ctx context.Context) error {
	if v.Ticker() == "" {
		return nil
	}
	if err := v.res.Load(ctx); err != nil {
		return err
	}
	if err := v.Chart.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logger.Debug("Score history for %s failed: %v", v.Ticker(), err)
	}
	return nil
}

func (v *AnalysisView) Snapshot() Snapshot[*models.MasterSignalResult] {
	return v.res.Snapshot()
}

func (v *AnalysisView) Render(width int) string {
	ticker := v.Ticker()
	if ticker == "" {
		return titleStyle.Render(v.Title()) + "\n" + mutedStyle.Render("Press / to pick a ticker")
	}
	title := v.Title() + " · " + ticker
	snap := v.res.Snapshot()
	if out, done := renderState(title, snap); done {
		return out
	}

	sig := snap.Data
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	if sig.Blocked() {
		b.WriteString(bannerStyle.Render("BLOCKED: "+sig.BlockedReason) + "\n")
	}
	b.WriteString(RenderOpportunityCard(*sig, width) + "\n\n")

	b.WriteString(headingStyle.Render("Components") + "\n")
	for _, c := range sig.Components.Named() {
		tone := ConfidenceColor(c.Value)
		b.WriteString(fmt.Sprintf("%-10s %s %s\n", c.Name, Bar(c.Value, 20, tone), tone.Style().Render(fmt.Sprintf("%5.1f", c.Value))))
	}
	if !sig.GeneratedAt.IsZero() {
		b.WriteString(mutedStyle.Render("generated "+humanAge(sig.GeneratedAt)) + "\n")
	}
	b.WriteString("\n" + v.Chart.Render(width))
	return b.String() + staleLine(snap)
}
