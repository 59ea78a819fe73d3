// Package models defines the read-only records served by the scoring backend.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SignalStrength is the backend's bucketed reading of a master signal.
type SignalStrength string

const (
	SignalStrongBuy SignalStrength = "STRONG_BUY"
	SignalBuy       SignalStrength = "BUY"
	SignalWeakBuy   SignalStrength = "WEAK_BUY"
	SignalNeutral   SignalStrength = "NEUTRAL"
	SignalWeakSell  SignalStrength = "WEAK_SELL"
	SignalSell      SignalStrength = "SELL"
)

// Rank orders strengths from most to least bullish; unknown values sort last.
func (s SignalStrength) Rank() int {
	switch s {
	case SignalStrongBuy:
		return 0
	case SignalBuy:
		return 1
	case SignalWeakBuy:
		return 2
	case SignalNeutral:
		return 3
	case SignalWeakSell:
		return 4
	case SignalSell:
		return 5
	default:
		return 6
	}
}

func (s SignalStrength) Valid() bool {
	return s.Rank() < 6
}

// Label is the human form, e.g. "STRONG BUY".
func (s SignalStrength) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// SignalComponents are the sub-scores that feed buy_confidence, each on 0-100.
type SignalComponents struct {
	GomesScore     float64 `json:"gomes_score"`
	ThesisMomentum float64 `json:"thesis_momentum"`
	Valuation      float64 `json:"valuation"`
	MLPrediction   float64 `json:"ml_prediction"`
	Catalyst       float64 `json:"catalyst"`
	Sentiment      float64 `json:"sentiment"`
}

// Named returns the components in display order.
func (c SignalComponents) Named() []NamedScore {
	return []NamedScore{
		{Name: "Gomes", Value: c.GomesScore},
		{Name: "Thesis", Value: c.ThesisMomentum},
		{Name: "Valuation", Value: c.Valuation},
		{Name: "ML", Value: c.MLPrediction},
		{Name: "Catalyst", Value: c.Catalyst},
		{Name: "Sentiment", Value: c.Sentiment},
	}
}

type NamedScore struct {
	Name  string
	Value float64
}

// MasterSignalResult is the backend's full verdict for one ticker.
type MasterSignalResult struct {
	Ticker          string           `json:"ticker"`
	CompanyName     string           `json:"company_name,omitempty"`
	BuyConfidence   float64          `json:"buy_confidence"`
	SignalStrength  SignalStrength   `json:"signal_strength"`
	Components      SignalComponents `json:"components"`
	EntryPrice      decimal.Decimal  `json:"entry_price"`
	TargetPrice     decimal.Decimal  `json:"target_price"`
	StopLoss        decimal.Decimal  `json:"stop_loss"`
	RiskRewardRatio float64          `json:"risk_reward_ratio"`
	KellySize       float64          `json:"kelly_size"`
	BlockedReason   string           `json:"blocked_reason,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Opportunity is a listed master signal; the listing endpoint returns the same shape.
type Opportunity = MasterSignalResult

// Validate checks signal field constraints.
func (r *MasterSignalResult) Validate() error {
	if r.Ticker == "" {
		return errors.New("ticker must not be empty")
	}
	if r.BuyConfidence < 0 || r.BuyConfidence > 100 {
		return fmt.Errorf("buy confidence %.1f out of range 0-100", r.BuyConfidence)
	}
	if !r.SignalStrength.Valid() {
		return fmt.Errorf("unknown signal strength %q", r.SignalStrength)
	}
	if r.KellySize < 0 || r.KellySize > 1 {
		return fmt.Errorf("kelly size %.3f out of range 0-1", r.KellySize)
	}
	if r.EntryPrice.IsNegative() || r.TargetPrice.IsNegative() || r.StopLoss.IsNegative() {
		return errors.New("prices must not be negative")
	}
	return nil
}

// Blocked reports whether the backend vetoed the trade despite the score.
func (r *MasterSignalResult) Blocked() bool {
	return r.BlockedReason != ""
}

// UpsidePct is the percentage move from entry to target; zero without an entry price.
func (r *MasterSignalResult) UpsidePct() decimal.Decimal {
	if r.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return r.TargetPrice.Sub(r.EntryPrice).Div(r.EntryPrice).Mul(decimal.NewFromInt(100))
}

// DownsidePct is the percentage move from entry to stop; zero without an entry price.
func (r *MasterSignalResult) DownsidePct() decimal.Decimal {
	if r.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return r.StopLoss.Sub(r.EntryPrice).Div(r.EntryPrice).Mul(decimal.NewFromInt(100))
}
