package views

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// OpportunityGroup is one action bucket of the action center.
type OpportunityGroup struct {
	Title         string
	Strength      models.SignalStrength
	Opportunities []models.Opportunity
}

// ActionCenter lists actionable opportunities grouped by signal strength.
type ActionCenter struct {
	client api.Client
	query  api.OpportunityQuery
	res    *Resource[[]models.Opportunity]
}

func NewActionCenter(client api.Client, query api.OpportunityQuery) *ActionCenter {
	a := &ActionCenter{client: client, query: query}
	a.res = NewResource(func(ctx context.Context) ([]models.Opportunity, error) {
		return a.client.ListOpportunities(ctx, a.query)
	})
	return a
}

func (a *ActionCenter) Title() string { return "Action Center" }

func (a *ActionCenter) Load(ctx context.Context) error {
	return a.res.Load(ctx)
}

func (a *ActionCenter) Snapshot() Snapshot[[]models.Opportunity] {
	return a.res.Snapshot()
}

// GroupOpportunities buckets opportunities by strength, strongest bucket first,
// highest confidence first inside each bucket. Blocked opportunities are
// collected into a trailing "Blocked" group whatever their strength.
func GroupOpportunities(opps []models.Opportunity) []OpportunityGroup {
	byStrength := make(map[models.SignalStrength][]models.Opportunity)
	var blocked []models.Opportunity
	for _, o := range opps {
		if o.Blocked() {
			blocked = append(blocked, o)
			continue
		}
		byStrength[o.SignalStrength] = append(byStrength[o.SignalStrength], o)
	}

	strengths := make([]models.SignalStrength, 0, len(byStrength))
	for s := range byStrength {
		strengths = append(strengths, s)
	}
	sort.Slice(strengths, func(i, j int) bool {
		if strengths[i].Rank() != strengths[j].Rank() {
			return strengths[i].Rank() < strengths[j].Rank()
		}
		return strengths[i] < strengths[j]
	})

	groups := make([]OpportunityGroup, 0, len(strengths)+1)
	for _, s := range strengths {
		items := byStrength[s]
		sortByConfidence(items)
		groups = append(groups, OpportunityGroup{Title: s.Label(), Strength: s, Opportunities: items})
	}
	if len(blocked) > 0 {
		sortByConfidence(blocked)
		groups = append(groups, OpportunityGroup{Title: "BLOCKED", Opportunities: blocked})
	}
	return groups
}

func sortByConfidence(opps []models.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool { return opps[i].BuyConfidence > opps[j].BuyConfidence })
}

func (a *ActionCenter) Render(width int) string {
	snap := a.res.Snapshot()
	if out, done := renderState(a.Title(), snap); done {
		return out
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.Title()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d opportunities ≥ %.0f%%", len(snap.Data), a.query.MinConfidence)))
	b.WriteString("\n")
	if len(snap.Data) == 0 {
		b.WriteString(mutedStyle.Render("Nothing actionable right now"))
		return b.String() + staleLine(snap)
	}

	for _, g := range GroupOpportunities(snap.Data) {
		tone := StrengthTone(g.Strength)
		if g.Strength == "" {
			tone = ToneRed
		}
		b.WriteString("\n" + tone.Style().Bold(true).Render(fmt.Sprintf("%s (%d)", g.Title, len(g.Opportunities))) + "\n")
		for _, o := range g.Opportunities {
			b.WriteString(RenderOpportunityCard(o, width) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}

// RenderOpportunityCard renders one signal as a bordered card.
func RenderOpportunityCard(o models.Opportunity, width int) string {
	tone := ConfidenceColor(o.BuyConfidence)
	barWidth := 20
	if width > 0 && width < 50 {
		barWidth = 10
	}

	head := tickerStyle.Render(o.Ticker)
	if o.CompanyName != "" {
		head += " " + mutedStyle.Render(o.CompanyName)
	}
	head += "  " + StrengthTone(o.SignalStrength).Badge(o.SignalStrength.Label())

	conf := Bar(o.BuyConfidence, barWidth, tone) + " " +
		tone.Style().Bold(true).Render(ConfidenceBarWidth(o.BuyConfidence))

	levels := fmt.Sprintf("Entry %s  Target %s (%s)  Stop %s (%s)",
		formatPrice(o.EntryPrice),
		formatPrice(o.TargetPrice), formatSignedPct(o.UpsidePct()),
		formatPrice(o.StopLoss), formatSignedPct(o.DownsidePct()))
	sizing := fmt.Sprintf("R/R %.1f:1  Kelly %.1f%%", o.RiskRewardRatio, o.KellySize*100)

	lines := []string{head, conf, textStyle.Render(levels), mutedStyle.Render(sizing)}
	if o.Blocked() {
		lines = append(lines, bannerStyle.Render("BLOCKED: "+o.BlockedReason))
	}

	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}
