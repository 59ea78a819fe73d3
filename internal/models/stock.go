package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentiment is the analyst's directional read on a stock.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}

// ParseSentiment accepts any casing; empty input yields "" with no error.
func ParseSentiment(s string) (Sentiment, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	v := Sentiment(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown sentiment %q", s)
	}
	return v, nil
}

// ActionVerdict is the enumerated recommendation attached to a stock.
type ActionVerdict string

const (
	VerdictBuyNow     ActionVerdict = "BUY_NOW"
	VerdictAccumulate ActionVerdict = "ACCUMULATE"
	VerdictWatchList  ActionVerdict = "WATCH_LIST"
	VerdictTrim       ActionVerdict = "TRIM"
	VerdictSell       ActionVerdict = "SELL"
	VerdictAvoid      ActionVerdict = "AVOID"
)

func (v ActionVerdict) Valid() bool {
	switch v {
	case VerdictBuyNow, VerdictAccumulate, VerdictWatchList, VerdictTrim, VerdictSell, VerdictAvoid:
		return true
	}
	return false
}

func (v ActionVerdict) Label() string {
	return strings.ReplaceAll(string(v), "_", " ")
}

// Stock is one analysed idea as listed by the portfolio endpoints.
// Basic listings leave the enrichment pointers nil.
type Stock struct {
	ID              int64         `json:"id"`
	Ticker          string        `json:"ticker"`
	CompanyName     string        `json:"company_name,omitempty"`
	Sentiment       Sentiment     `json:"sentiment"`
	GomesScore      *float64      `json:"gomes_score"`
	ConvictionScore *float64      `json:"conviction_score"`
	BuyConfidence   *float64      `json:"buy_confidence"`
	ActionVerdict   ActionVerdict `json:"action_verdict"`
	Edge            string        `json:"edge,omitempty"`
	Catalysts       string        `json:"catalysts,omitempty"`
	Risks           string        `json:"risks,omitempty"`
	PriceTarget     string        `json:"price_target,omitempty"`
	CurrentPrice    *float64      `json:"current_price"`
	SourceName      string        `json:"source_name,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Validate checks stock field constraints.
func (s *Stock) Validate() error {
	if s.Ticker == "" {
		return errors.New("ticker must not be empty")
	}
	if s.Sentiment != "" && !s.Sentiment.Valid() {
		return fmt.Errorf("unknown sentiment %q", s.Sentiment)
	}
	if s.ActionVerdict != "" && !s.ActionVerdict.Valid() {
		return fmt.Errorf("unknown action verdict %q", s.ActionVerdict)
	}
	if s.GomesScore != nil && (*s.GomesScore < 0 || *s.GomesScore > 10) {
		return fmt.Errorf("gomes score %.1f out of range 0-10", *s.GomesScore)
	}
	return nil
}

// Score is the Gomes score or 0 when absent.
func (s *Stock) Score() float64 {
	return Deref(s.GomesScore)
}

// Deref returns *p or 0 for nil.
func Deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Float returns a pointer to v, for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}
