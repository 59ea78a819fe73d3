package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

const (
	DefaultTopPicksLimit         = 5
	DefaultTopPicksMinConfidence = 70
)

// TopPicks shows the highest-confidence opportunities.
type TopPicks struct {
	client        api.Client
	userID        string
	minConfidence float64
	limit         int
	res           *Resource[[]models.Opportunity]
}

// NewTopPicks falls back to the default limit and floor for non-positive values.
func NewTopPicks(client api.Client, userID string, minConfidence float64, limit int) *TopPicks {
	if limit <= 0 {
		limit = DefaultTopPicksLimit
	}
	if minConfidence <= 0 {
		minConfidence = DefaultTopPicksMinConfidence
	}
	t := &TopPicks{client: client, userID: userID, minConfidence: minConfidence, limit: limit}
	t.res = NewResource(func(ctx context.Context) ([]models.Opportunity, error) {
		opps, err := t.client.ListOpportunities(ctx, api.OpportunityQuery{
			MinConfidence: t.minConfidence,
			Limit:         t.limit,
			UserID:        t.userID,
		})
		if err != nil {
			return nil, err
		}
		return SelectTopPicks(opps, t.minConfidence, t.limit), nil
	})
	return t
}

func (t *TopPicks) Title() string { return "Top Picks" }

func (t *TopPicks) Load(ctx context.Context) error {
	return t.res.Load(ctx)
}

func (t *TopPicks) Snapshot() Snapshot[[]models.Opportunity] {
	return t.res.Snapshot()
}

// SelectTopPicks keeps opportunities at or above minConfidence, highest first,
// capped at limit.
func SelectTopPicks(opps []models.Opportunity, minConfidence float64, limit int) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.BuyConfidence >= minConfidence {
			out = append(out, o)
		}
	}
	sortByConfidence(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *TopPicks) Render(width int) string {
	snap := t.res.Snapshot()
	if out, done := renderState(t.Title(), snap); done {
		return out
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title()) + "\n")
	if len(snap.Data) == 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("No picks above %.0f%% confidence", t.minConfidence)))
		return b.String() + staleLine(snap)
	}
	for i, o := range snap.Data {
		b.WriteString(FormatPick(i+1, o) + "\n")
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}

// FormatPick renders one ranked pick as a single line.
func FormatPick(rank int, o models.Opportunity) string {
	tone := ConfidenceColor(o.BuyConfidence)
	line := fmt.Sprintf("%s %-6s %s %s",
		mutedStyle.Render(fmt.Sprintf("#%d", rank)),
		tickerStyle.Render(o.Ticker),
		Bar(o.BuyConfidence, 10, tone),
		tone.Style().Render(ConfidenceBarWidth(o.BuyConfidence)))
	if !o.TargetPrice.IsZero() {
		line += mutedStyle.Render(fmt.Sprintf("  → %s (%s)", formatPrice(o.TargetPrice), formatSignedPct(o.UpsidePct())))
	}
	if o.Blocked() {
		line += " " + ToneRed.Badge("BLOCKED")
	}
	return line
}

// PlainPicks formats picks without styling, for chat and CLI output.
func PlainPicks(picks []models.Opportunity) string {
	if len(picks) == 0 {
		return "No picks right now."
	}
	var b strings.Builder
	for i, o := range picks {
		fmt.Fprintf(&b, "%d. %s %s %s", i+1, o.Ticker, ConfidenceBarWidth(o.BuyConfidence), o.SignalStrength.Label())
		if !o.EntryPrice.IsZero() {
			fmt.Fprintf(&b, " entry %s target %s stop %s", formatPrice(o.EntryPrice), formatPrice(o.TargetPrice), formatPrice(o.StopLoss))
		}
		if o.Blocked() {
			fmt.Fprintf(&b, " [blocked: %s]", o.BlockedReason)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
