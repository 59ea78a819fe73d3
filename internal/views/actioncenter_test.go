package views

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

func testOpportunities() []models.Opportunity {
	return []models.Opportunity{
		{Ticker: "GSI", BuyConfidence: 74, SignalStrength: models.SignalBuy},
		{Ticker: "KUYA", BuyConfidence: 82.3, SignalStrength: models.SignalStrongBuy,
			EntryPrice: decimal.RequireFromString("0.42"), TargetPrice: decimal.RequireFromString("0.84"),
			StopLoss: decimal.RequireFromString("0.33"), RiskRewardRatio: 4.7, KellySize: 0.12},
		{Ticker: "EXRO", BuyConfidence: 58.2, SignalStrength: models.SignalWeakBuy, BlockedReason: "Earnings in 2 days"},
		{Ticker: "PLTR", BuyConfidence: 66.5, SignalStrength: models.SignalBuy},
		{Ticker: "ACHR", BuyConfidence: 41, SignalStrength: models.SignalNeutral},
	}
}

func TestGroupOpportunities(t *testing.T) {
	groups := GroupOpportunities(testOpportunities())

	var titles []string
	for _, g := range groups {
		titles = append(titles, g.Title)
	}
	want := "STRONG BUY,BUY,NEUTRAL,BLOCKED"
	if got := strings.Join(titles, ","); got != want {
		t.Fatalf("groups = %s, want %s", got, want)
	}
	buys := groups[1].Opportunities
	if buys[0].Ticker != "GSI" || buys[1].Ticker != "PLTR" {
		t.Errorf("BUY bucket not sorted by confidence: %s, %s", buys[0].Ticker, buys[1].Ticker)
	}
	if groups[3].Opportunities[0].Ticker != "EXRO" {
		t.Errorf("blocked bucket = %v", groups[3].Opportunities)
	}
}

func TestOpportunityCard(t *testing.T) {
	card := RenderOpportunityCard(testOpportunities()[1], 80)
	for _, want := range []string{"KUYA", "82.3%", "$0.420", "+100.0%", "R/R 4.7:1", "Kelly 12.0%"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestActionCenterRender(t *testing.T) {
	client := newFakeClient()
	client.opportunities = testOpportunities()
	ac := NewActionCenter(client, api.OpportunityQuery{MinConfidence: 60, Limit: 20})

	if !strings.Contains(ac.Render(80), "Loading") {
		t.Error("expected loading state before the first load")
	}
	if err := ac.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := ac.Render(80)
	if strings.Contains(out, "ACHR") {
		t.Error("ACHR is below the confidence floor")
	}
	if !strings.Contains(out, "KUYA") || !strings.Contains(out, "3 opportunities") {
		t.Errorf("unexpected render:\n%s", out)
	}
}

func TestSelectTopPicks(t *testing.T) {
	picks := SelectTopPicks(testOpportunities(), 60, 2)
	if len(picks) != 2 || picks[0].Ticker != "KUYA" || picks[1].Ticker != "GSI" {
		t.Errorf("picks = %v", picks)
	}

	client := newFakeClient()
	client.opportunities = testOpportunities()
	tp := NewTopPicks(client, "family", 0, 0)
	if err := tp.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := tp.Snapshot().Data
	if len(got) != 2 {
		t.Fatalf("default floor of 70 should keep 2 picks, got %d", len(got))
	}
	if !strings.Contains(PlainPicks(got), "1. KUYA 82.3% STRONG BUY") {
		t.Errorf("PlainPicks = %q", PlainPicks(got))
	}
}
