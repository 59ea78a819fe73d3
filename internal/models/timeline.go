package models

import "time"

// TickerMention is one historical mention of a ticker in an ingested source.
type TickerMention struct {
	ID          int64         `json:"id"`
	Ticker      string        `json:"ticker"`
	SourceName  string        `json:"source_name"`
	Sentiment   Sentiment     `json:"sentiment"`
	Action      ActionVerdict `json:"action"`
	Weight      float64       `json:"weight"`
	Quote       string        `json:"quote,omitempty"`
	MentionedAt time.Time     `json:"mentioned_at"`
}

// AgeDays is the whole number of days between the mention and now.
func (m TickerMention) AgeDays(now time.Time) int {
	d := now.Sub(m.MentionedAt)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Timeline is the mention history for a ticker.
type Timeline struct {
	Ticker        string          `json:"ticker"`
	Mentions      []TickerMention `json:"mentions"`
	TotalMentions int             `json:"total_mentions"`
}

// ScoreHistoryPoint is one recorded conviction score with the price at that time.
type ScoreHistoryPoint struct {
	Score      float64   `json:"score"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}
