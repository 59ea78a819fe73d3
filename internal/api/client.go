// Package api is the dashboard's only boundary: the scoring backend's HTTP/JSON API.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

// Client is the capability every widget is handed. HTTPClient is the real
// implementation; tests substitute fakes.
type Client interface {
	ListOpportunities(ctx context.Context, q OpportunityQuery) ([]models.Opportunity, error)
	GetMasterSignal(ctx context.Context, ticker string) (*models.MasterSignalResult, error)

	ListEnrichedStocks(ctx context.Context, f StockFilter) ([]models.Stock, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)

	GetTimeline(ctx context.Context, ticker string) (*models.Timeline, error)
	GetScoreHistory(ctx context.Context, ticker string, limit int) ([]models.ScoreHistoryPoint, error)

	ScanWatchlist(ctx context.Context, forceRefresh bool) (*models.RankingScan, error)

	ListNotifications(ctx context.Context, userID string) (*models.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id string) error
	AcknowledgeAll(ctx context.Context, userID string) error

	GetMarketStatus(ctx context.Context) (*models.MarketStatusState, error)
	UpdateMarketStatus(ctx context.Context, status models.MarketStatus, note string) (*models.MarketStatusState, error)

	ImportTranscript(ctx context.Context, t models.TranscriptImport) (*models.ImportResult, error)

	GetFamilyAudit(ctx context.Context) (*models.FamilyAudit, error)
}

// OpportunityQuery filters the opportunity listing. Zero values are omitted.
type OpportunityQuery struct {
	MinConfidence float64
	Limit         int
	UserID        string
}

// StockFilter filters stock listings. Zero values mean "no filter".
type StockFilter struct {
	Sentiment     models.Sentiment
	MinGomesScore float64
}

// Matches applies the filter client-side, the same way the enriched endpoint does server-side.
func (f StockFilter) Matches(s models.Stock) bool {
	if f.Sentiment != "" && s.Sentiment != f.Sentiment {
		return false
	}
	if f.MinGomesScore > 0 && s.Score() < f.MinGomesScore {
		return false
	}
	return true
}

// FetchError is the single failure category surfaced to widgets: transport,
// HTTP status and decode failures all look the same to the user.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
