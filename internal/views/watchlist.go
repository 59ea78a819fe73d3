package views

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// WatchlistRankingTable shows the scanner's ranking of watched tickers.
type WatchlistRankingTable struct {
	client     api.Client
	res        *Resource[*models.RankingScan]
	rescanning atomic.Bool
}

func NewWatchlistRankingTable(client api.Client) *WatchlistRankingTable {
	w := &WatchlistRankingTable{client: client}
	w.res = NewResource(func(ctx context.Context) (*models.RankingScan, error) {
		return w.client.ScanWatchlist(ctx, false)
	})
	return w
}

func (w *WatchlistRankingTable) Title() string { return "Watchlist" }

// Load serves the backend's cached scan when one exists. It does nothing while
// a Rescan is in flight, so a periodic poll cannot supersede it.
func (w *WatchlistRankingTable) Load(ctx context.Context) error {
	if w.rescanning.Load() {
		return nil
	}
	return w.res.Load(ctx)
}

// Rescan forces the backend to recompute the ranking.
func (w *WatchlistRankingTable) Rescan(ctx context.Context) error {
	w.rescanning.Store(true)
	defer w.rescanning.Store(false)
	return w.res.LoadWith(ctx, func(ctx context.Context) (*models.RankingScan, error) {
		return w.client.ScanWatchlist(ctx, true)
	})
}

func (w *WatchlistRankingTable) Snapshot() Snapshot[*models.RankingScan] {
	return w.res.Snapshot()
}

// RankRankings orders rankings by score, highest first.
func RankRankings(rankings []models.WatchlistRanking) []models.WatchlistRanking {
	out := append([]models.WatchlistRanking(nil), rankings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func RatingTone(r models.Rating) Tone {
	switch r {
	case models.RatingStrongBuy, models.RatingBuy:
		return ToneGreen
	case models.RatingHold:
		return ToneYellow
	case models.RatingSell:
		return ToneOrange
	default:
		return ToneRed
	}
}

func ConfidenceTone(c models.Confidence) Tone {
	switch c {
	case models.ConfidenceHigh:
		return ToneGreen
	case models.ConfidenceMedium:
		return ToneYellow
	default:
		return ToneMuted
	}
}

func (w *WatchlistRankingTable) Render(width int) string {
	snap := w.res.Snapshot()
	if out, done := renderState(w.Title(), snap); done {
		return out
	}

	scan := snap.Data
	var b strings.Builder
	b.WriteString(titleStyle.Render(w.Title()))
	meta := "  scanned " + humanAge(scan.ScannedAt)
	if scan.Cached {
		meta += " (cached)"
	}
	if snap.Refreshing {
		meta += " · rescanning..."
	}
	b.WriteString(mutedStyle.Render(meta) + "\n")

	rows := RankRankings(scan.Rankings)
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("Watchlist is empty"))
		return b.String() + staleLine(snap)
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("%-3s %-7s %-5s %-12s %-8s %s", "#", "Ticker", "Score", "Rating", "Conf", "Reasoning")) + "\n")
	reasonWidth := width - 42
	for i, r := range rows {
		reason := r.Reasoning
		if reasonWidth > 10 && len([]rune(reason)) > reasonWidth {
			reason = string([]rune(reason)[:reasonWidth-1]) + "…"
		}
		b.WriteString(fmt.Sprintf("%-3d %s %s %s %s %s\n",
			i+1,
			tickerStyle.Render(fmt.Sprintf("%-7s", r.Ticker)),
			ScoreColor(r.Score).Style().Render(fmt.Sprintf("%5.1f", r.Score)),
			RatingTone(r.Rating).Style().Render(fmt.Sprintf("%-12s", strings.ReplaceAll(string(r.Rating), "_", " "))),
			ConfidenceTone(r.Confidence).Style().Render(fmt.Sprintf("%-8s", r.Confidence)),
			mutedStyle.Render(reason)))
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}
