package models

import "time"

// Rating is the watchlist scanner's verdict.
type Rating string

const (
	RatingStrongBuy Rating = "STRONG_BUY"
	RatingBuy       Rating = "BUY"
	RatingHold      Rating = "HOLD"
	RatingSell      Rating = "SELL"
	RatingAvoid     Rating = "AVOID"
)

// Confidence is how sure the scanner is of its rating.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// WatchlistRanking is one ranked ticker from a watchlist scan.
type WatchlistRanking struct {
	Ticker       string     `json:"ticker"`
	Score        float64    `json:"score"`
	Rating       Rating     `json:"rating"`
	Confidence   Confidence `json:"confidence"`
	Reasoning    string     `json:"reasoning"`
	LastAnalyzed time.Time  `json:"last_analyzed"`
}

// RankingScan is the response of a watchlist scan. Cached is true when the
// backend served a previous scan instead of recomputing.
type RankingScan struct {
	Rankings  []WatchlistRanking `json:"rankings"`
	ScannedAt time.Time          `json:"scanned_at"`
	Cached    bool               `json:"cached"`
}
