package models

import (
	"fmt"
	"strings"
)

// Quality grades the reliability of an imported transcript.
type Quality string

const (
	QualityHigh   Quality = "HIGH"
	QualityMedium Quality = "MEDIUM"
	QualityLow    Quality = "LOW"
)

func ParseQuality(s string) (Quality, error) {
	if strings.TrimSpace(s) == "" {
		return QualityMedium, nil
	}
	v := Quality(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case QualityHigh, QualityMedium, QualityLow:
		return v, nil
	}
	return "", fmt.Errorf("unknown quality %q", s)
}

// TranscriptImport is the record forwarded to the backend for ticker detection.
// Date is YYYY-MM-DD.
type TranscriptImport struct {
	SourceName string  `json:"source_name"`
	Date       string  `json:"date"`
	URL        string  `json:"url,omitempty"`
	Quality    Quality `json:"quality"`
	RawText    string  `json:"raw_text"`
}

// ImportResult is what the backend detected and stored.
type ImportResult struct {
	ID              string   `json:"id"`
	DetectedTickers []string `json:"detected_tickers"`
	StocksCreated   int      `json:"stocks_created"`
}
