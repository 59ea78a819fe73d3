package views

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// FamilyAuditWidget lists tickers held in one family account but missing from others.
type FamilyAuditWidget struct {
	client api.Client
	res    *Resource[*models.FamilyAudit]
}

func NewFamilyAuditWidget(client api.Client) *FamilyAuditWidget {
	w := &FamilyAuditWidget{client: client}
	w.res = NewResource(func(ctx context.Context) (*models.FamilyAudit, error) {
		return w.client.GetFamilyAudit(ctx)
	})
	return w
}

func (w *FamilyAuditWidget) Title() string { return "Family Audit" }

func (w *FamilyAuditWidget) Load(ctx context.Context) error {
	return w.res.Load(ctx)
}

func (w *FamilyAuditWidget) Snapshot() Snapshot[*models.FamilyAudit] {
	return w.res.Snapshot()
}

// SortGaps orders gaps by conviction score, highest first. Missing scores
// count as 0 and so sort last.
func SortGaps(gaps []models.FamilyAuditGap) []models.FamilyAuditGap {
	out := append([]models.FamilyAuditGap(nil), gaps...)
	sort.SliceStable(out, func(i, j int) bool {
		return models.Deref(out[i].ConvictionScore) > models.Deref(out[j].ConvictionScore)
	})
	return out
}

// HolderSummary counts gaps per holding account.
type HolderSummary struct {
	Holder string
	Gaps   int
}

func SummarizeHolders(gaps []models.FamilyAuditGap) []HolderSummary {
	counts := make(map[string]int)
	for _, g := range gaps {
		counts[g.Holder]++
	}
	out := make([]HolderSummary, 0, len(counts))
	for h, n := range counts {
		out = append(out, HolderSummary{Holder: h, Gaps: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gaps != out[j].Gaps {
			return out[i].Gaps > out[j].Gaps
		}
		return out[i].Holder < out[j].Holder
	})
	return out
}

func AuditActionTone(a models.AuditAction) Tone {
	switch a {
	case models.AuditAdd:
		return ToneGreen
	case models.AuditReview:
		return ToneYellow
	default:
		return ToneMuted
	}
}

func (w *FamilyAuditWidget) Render(width int) string {
	snap := w.res.Snapshot()
	if out, done := renderState(w.Title(), snap); done {
		return out
	}

	audit := snap.Data
	var b strings.Builder
	b.WriteString(titleStyle.Render(w.Title()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d gaps across %d accounts, %d tickers", len(audit.Gaps), len(audit.Accounts), audit.TotalTickers)) + "\n")
	if len(audit.Gaps) == 0 {
		b.WriteString(ToneGreen.Style().Render("All accounts aligned"))
		return b.String() + staleLine(snap)
	}

	summary := SummarizeHolders(audit.Gaps)
	parts := make([]string, len(summary))
	for i, s := range summary {
		parts[i] = fmt.Sprintf("%s %d", s.Holder, s.Gaps)
	}
	b.WriteString(mutedStyle.Render("by holder: "+strings.Join(parts, " · ")) + "\n\n")

	for _, g := range SortGaps(audit.Gaps) {
		score := "  -  "
		tone := ToneMuted
		if g.ConvictionScore != nil {
			score = fmt.Sprintf("%4.1f ", *g.ConvictionScore)
			tone = ScoreColor(*g.ConvictionScore)
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			AuditActionTone(g.Action).Badge(fmt.Sprintf("%-6s", g.Action)),
			tickerStyle.Render(fmt.Sprintf("%-6s", g.Ticker)),
			tone.Style().Render(score),
			textStyle.Render(g.Holder)+mutedStyle.Render(" → missing from "+strings.Join(g.MissingFrom, ", "))))
		if g.Reason != "" {
			b.WriteString(mutedStyle.Render("         "+g.Reason) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}
