package models

import (
	"fmt"
	"strings"
	"time"
)

// MarketStatus is the global risk posture, shown as a traffic light.
type MarketStatus string

const (
	MarketGreen  MarketStatus = "GREEN"
	MarketYellow MarketStatus = "YELLOW"
	MarketOrange MarketStatus = "ORANGE"
	MarketRed    MarketStatus = "RED"
)

// MarketStatuses lists the postures from most to least risk-on.
var MarketStatuses = []MarketStatus{MarketGreen, MarketYellow, MarketOrange, MarketRed}

func (s MarketStatus) Valid() bool {
	switch s {
	case MarketGreen, MarketYellow, MarketOrange, MarketRed:
		return true
	}
	return false
}

// Label is the badge text for the posture.
func (s MarketStatus) Label() string {
	switch s {
	case MarketGreen:
		return "FULL SPEED AHEAD"
	case MarketYellow:
		return "PROCEED WITH CAUTION"
	case MarketOrange:
		return "REDUCE EXPOSURE"
	case MarketRed:
		return "CASH IS KING"
	default:
		return "UNKNOWN"
	}
}

func ParseMarketStatus(s string) (MarketStatus, error) {
	v := MarketStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown market status %q (want GREEN, YELLOW, ORANGE or RED)", s)
	}
	return v, nil
}

// MarketStatusState is the stored posture with its free-text note.
type MarketStatusState struct {
	Status    MarketStatus `json:"status"`
	Note      string       `json:"note,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}
