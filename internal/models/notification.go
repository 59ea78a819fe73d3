package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity grades a notification.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Level orders severities; unknown values rank as INFO.
func (s Severity) Level() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Level() >= min.Level()
}

func ParseSeverity(s string) (Severity, error) {
	v := Severity(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return v, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Notification is one alert raised by the backend for a user.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Read      bool      `json:"read"`
	Ticker    string    `json:"ticker,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationList is the notification listing response.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
