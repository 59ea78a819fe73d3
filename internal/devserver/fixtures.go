package devserver

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

// Fixtures is the in-memory data set served by the fixture backend.
type Fixtures struct {
	Opportunities []models.Opportunity
	Stocks        []models.Stock
	Mentions      map[string][]models.TickerMention
	History       map[string][]models.ScoreHistoryPoint
	Rankings      []models.WatchlistRanking
	Notifications []models.Notification
	MarketStatus  models.MarketStatusState
	Audit         models.FamilyAudit
}

func signal(ticker, company string, conf float64, strength models.SignalStrength, entry, target, stop string, rr, kelly float64, now time.Time) models.Opportunity {
	return models.Opportunity{
		Ticker:         ticker,
		CompanyName:    company,
		BuyConfidence:  conf,
		SignalStrength: strength,
		Components: models.SignalComponents{
			GomesScore:     conf + 5,
			ThesisMomentum: conf - 4,
			Valuation:      conf - 10,
			MLPrediction:   conf - 2,
			Catalyst:       conf + 1,
			Sentiment:      conf - 7,
		},
		EntryPrice:      decimal.RequireFromString(entry),
		TargetPrice:     decimal.RequireFromString(target),
		StopLoss:        decimal.RequireFromString(stop),
		RiskRewardRatio: rr,
		KellySize:       kelly,
		GeneratedAt:     now.Add(-15 * time.Minute),
	}
}

// DefaultFixtures builds a small, internally consistent data set anchored at now.
func DefaultFixtures(now time.Time) *Fixtures {
	day := 24 * time.Hour

	f := &Fixtures{
		Opportunities: []models.Opportunity{
			signal("KUYA", "Kuya Silver", 82.3, models.SignalStrongBuy, "0.42", "0.95", "0.33", 5.9, 0.14, now),
			signal("GSI", "GSI Technology", 74.0, models.SignalBuy, "4.10", "7.50", "3.40", 4.9, 0.09, now),
			signal("PLTR", "Palantir", 66.5, models.SignalBuy, "24.80", "31.00", "21.50", 1.9, 0.05, now),
			signal("EXRO", "Exro Technologies", 58.2, models.SignalWeakBuy, "1.12", "1.80", "0.90", 3.1, 0.03, now),
			signal("ACHR", "Archer Aviation", 41.0, models.SignalNeutral, "6.20", "7.10", "5.40", 1.1, 0.0, now),
		},
		Mentions: map[string][]models.TickerMention{},
		History:  map[string][]models.ScoreHistoryPoint{},
		MarketStatus: models.MarketStatusState{
			Status:    models.MarketYellow,
			Note:      "Breadth narrowing; keep new entries small.",
			UpdatedAt: now.Add(-6 * time.Hour),
		},
	}
	f.Opportunities[3].BlockedReason = "Earnings in 2 days"

	f.Stocks = []models.Stock{
		{ID: 1, Ticker: "KUYA", CompanyName: "Kuya Silver", Sentiment: models.SentimentBullish, GomesScore: models.Float(9), ConvictionScore: models.Float(8.5), BuyConfidence: models.Float(82.3), ActionVerdict: models.VerdictBuyNow, Edge: "Bethania mine restart ahead of consensus", Catalysts: "First concentrate shipment Q1", Risks: "Permitting delays", PriceTarget: "$0.95", CurrentPrice: models.Float(0.44), SourceName: "Breakout Investors #212", CreatedAt: now.Add(-2 * day)},
		{ID: 2, Ticker: "GSI", CompanyName: "GSI Technology", Sentiment: models.SentimentBullish, GomesScore: models.Float(8), ConvictionScore: models.Float(7), BuyConfidence: models.Float(74), ActionVerdict: models.VerdictAccumulate, Edge: "APU inference chip under-followed", Catalysts: "Defense contract award", PriceTarget: "$7.50", CurrentPrice: models.Float(4.2), SourceName: "Breakout Investors #212", CreatedAt: now.Add(-2 * day)},
		{ID: 3, Ticker: "PLTR", CompanyName: "Palantir", Sentiment: models.SentimentNeutral, GomesScore: models.Float(6), ConvictionScore: models.Float(5.5), ActionVerdict: models.VerdictWatchList, Edge: "Commercial growth re-acceleration", CurrentPrice: models.Float(25.1), SourceName: "Weekly Small Caps", CreatedAt: now.Add(-9 * day)},
		{ID: 4, Ticker: "EXRO", CompanyName: "Exro Technologies", Sentiment: models.SentimentBullish, GomesScore: models.Float(7), ActionVerdict: models.VerdictAccumulate, Catalysts: "OEM production order", CurrentPrice: models.Float(1.1), SourceName: "Weekly Small Caps", CreatedAt: now.Add(-5 * day)},
		{ID: 5, Ticker: "ACHR", CompanyName: "Archer Aviation", Sentiment: models.SentimentBearish, GomesScore: models.Float(3), ConvictionScore: models.Float(2), ActionVerdict: models.VerdictAvoid, Risks: "Cash burn, dilution", CurrentPrice: models.Float(6.3), SourceName: "Weekly Small Caps", CreatedAt: now.Add(-12 * day)},
	}

	for _, s := range f.Stocks {
		for i := 0; i < 3; i++ {
			f.Mentions[s.Ticker] = append(f.Mentions[s.Ticker], models.TickerMention{
				ID:          s.ID*10 + int64(i),
				Ticker:      s.Ticker,
				SourceName:  fmt.Sprintf("Episode %d", 210+i),
				Sentiment:   s.Sentiment,
				Action:      s.ActionVerdict,
				Weight:      1 - float64(i)*0.25,
				Quote:       s.Edge,
				MentionedAt: now.Add(-time.Duration(i*14+2) * day),
			})
		}
	}

	// KUYA drifts: score falls while price rallies more than 10% on the last point.
	kuya := []struct{ score, price float64 }{{6, 0.30}, {7, 0.31}, {7.5, 0.33}, {8, 0.35}, {9, 0.38}, {8.5, 0.44}}
	for i, p := range kuya {
		f.History["KUYA"] = append(f.History["KUYA"], models.ScoreHistoryPoint{
			Score: p.score, Price: p.price, RecordedAt: now.Add(-time.Duration(len(kuya)-i) * 7 * day),
		})
	}
	for _, s := range f.Stocks[1:] {
		base := models.Deref(s.GomesScore)
		price := models.Deref(s.CurrentPrice)
		for i := 0; i < 5; i++ {
			f.History[s.Ticker] = append(f.History[s.Ticker], models.ScoreHistoryPoint{
				Score:      clamp(base-2+float64(i)*0.5, 0, 10),
				Price:      price * (0.9 + float64(i)*0.025),
				RecordedAt: now.Add(-time.Duration(5-i) * 7 * day),
			})
		}
	}

	f.Rankings = []models.WatchlistRanking{
		{Ticker: "KUYA", Score: 9.1, Rating: models.RatingStrongBuy, Confidence: models.ConfidenceHigh, Reasoning: "Production restart de-risked; insider buying.", LastAnalyzed: now.Add(-time.Hour)},
		{Ticker: "GSI", Score: 7.8, Rating: models.RatingBuy, Confidence: models.ConfidenceMedium, Reasoning: "Contract pipeline improving.", LastAnalyzed: now.Add(-time.Hour)},
		{Ticker: "PLTR", Score: 5.9, Rating: models.RatingHold, Confidence: models.ConfidenceMedium, Reasoning: "Valuation full.", LastAnalyzed: now.Add(-2 * time.Hour)},
		{Ticker: "ACHR", Score: 2.4, Rating: models.RatingAvoid, Confidence: models.ConfidenceHigh, Reasoning: "Funding gap.", LastAnalyzed: now.Add(-3 * time.Hour)},
	}

	f.Notifications = []models.Notification{
		{ID: "n-1", Type: "THESIS_DRIFT", Severity: models.SeverityWarning, Ticker: "KUYA", Message: "Price up 16% while conviction slipped to 8.5", CreatedAt: now.Add(-30 * time.Minute)},
		{ID: "n-2", Type: "NEW_OPPORTUNITY", Severity: models.SeverityInfo, Ticker: "GSI", Message: "GSI crossed 70 buy confidence", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "n-3", Type: "STOP_LOSS", Severity: models.SeverityCritical, Ticker: "ACHR", Message: "ACHR closed below stop loss 5.40", CreatedAt: now.Add(-26 * time.Hour), Read: true},
	}

	f.Audit = models.FamilyAudit{
		Accounts:     []string{"Dad IRA", "Mom Brokerage", "Kids UTMA"},
		TotalTickers: 4,
		Gaps: []models.FamilyAuditGap{
			{Ticker: "GSI", Holder: "Dad IRA", MissingFrom: []string{"Mom Brokerage"}, ConvictionScore: models.Float(7), Action: models.AuditAdd, Reason: "High conviction held in one account only"},
			{Ticker: "KUYA", Holder: "Mom Brokerage", MissingFrom: []string{"Dad IRA", "Kids UTMA"}, ConvictionScore: models.Float(8.5), Action: models.AuditAdd},
			{Ticker: "XYZ", Holder: "Kids UTMA", MissingFrom: []string{"Dad IRA"}, Action: models.AuditReview, Reason: "No current analysis"},
			{Ticker: "ACHR", Holder: "Dad IRA", MissingFrom: []string{"Mom Brokerage"}, ConvictionScore: models.Float(2), Action: models.AuditIgnore},
		},
	}

	return f
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
