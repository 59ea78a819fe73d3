package views

import (
	"context"
	"errors"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

var errBackendDown = &api.FetchError{Op: "test", StatusCode: 503, Err: errors.New("backend down")}

// fakeClient is an in-memory api.Client that counts calls per method.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	opportunities []models.Opportunity
	signals       map[string]*models.MasterSignalResult
	enriched      []models.Stock
	enrichedErr   error
	basic         []models.Stock
	basicErr      error
	timelines     map[string]*models.Timeline
	history       []models.ScoreHistoryPoint
	rankings      []models.WatchlistRanking
	// rescanStarted and rescanRelease hold a forced scan open when set.
	rescanStarted chan struct{}
	rescanRelease chan struct{}
	notifications []models.Notification
	market        models.MarketStatusState
	marketErr     error
	updateErr     error
	imports       []models.TranscriptImport
	audit         *models.FamilyAudit
}

var _ api.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:     make(map[string]int),
		signals:   make(map[string]*models.MasterSignalResult),
		timelines: make(map[string]*models.Timeline),
		market:    models.MarketStatusState{Status: models.MarketYellow},
	}
}

func (f *fakeClient) called(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) ListOpportunities(ctx context.Context, q api.OpportunityQuery) ([]models.Opportunity, error) {
	f.called("ListOpportunities")
	var out []models.Opportunity
	for _, o := range f.opportunities {
		if o.BuyConfidence >= q.MinConfidence {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeClient) GetMasterSignal(ctx context.Context, ticker string) (*models.MasterSignalResult, error) {
	f.called("GetMasterSignal")
	sig, ok := f.signals[ticker]
	if !ok {
		return nil, &api.FetchError{Op: "get master signal", StatusCode: 404, Err: errors.New("not found")}
	}
	return sig, nil
}

func (f *fakeClient) ListEnrichedStocks(ctx context.Context, filter api.StockFilter) ([]models.Stock, error) {
	f.called("ListEnrichedStocks")
	if f.enrichedErr != nil {
		return nil, f.enrichedErr
	}
	var out []models.Stock
	for _, s := range f.enriched {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeClient) ListStocks(ctx context.Context) ([]models.Stock, error) {
	f.called("ListStocks")
	if f.basicErr != nil {
		return nil, f.basicErr
	}
	return f.basic, nil
}

func (f *fakeClient) GetTimeline(ctx context.Context, ticker string) (*models.Timeline, error) {
	f.called("GetTimeline")
	tl, ok := f.timelines[ticker]
	if !ok {
		return &models.Timeline{Ticker: ticker}, nil
	}
	return tl, nil
}

func (f *fakeClient) GetScoreHistory(ctx context.Context, ticker string, limit int) ([]models.ScoreHistoryPoint, error) {
	f.called("GetScoreHistory")
	return f.history, nil
}

func (f *fakeClient) ScanWatchlist(ctx context.Context, forceRefresh bool) (*models.RankingScan, error) {
	if forceRefresh {
		f.called("ScanWatchlist(force)")
		if f.rescanStarted != nil {
			f.rescanStarted <- struct{}{}
			<-f.rescanRelease
		}
	} else {
		f.called("ScanWatchlist")
	}
	return &models.RankingScan{Rankings: f.rankings, Cached: !forceRefresh}, nil
}

func (f *fakeClient) ListNotifications(ctx context.Context, userID string) (*models.NotificationList, error) {
	f.called("ListNotifications")
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append([]models.Notification(nil), f.notifications...)
	return &models.NotificationList{Notifications: list, UnreadCount: CountUnread(list)}, nil
}

func (f *fakeClient) MarkNotificationRead(ctx context.Context, id string) error {
	f.called("MarkNotificationRead")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeClient) AcknowledgeAll(ctx context.Context, userID string) error {
	f.called("AcknowledgeAll")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		f.notifications[i].Read = true
	}
	return nil
}

func (f *fakeClient) GetMarketStatus(ctx context.Context) (*models.MarketStatusState, error) {
	f.called("GetMarketStatus")
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	state := f.market
	return &state, nil
}

func (f *fakeClient) UpdateMarketStatus(ctx context.Context, status models.MarketStatus, note string) (*models.MarketStatusState, error) {
	f.called("UpdateMarketStatus")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.market = models.MarketStatusState{Status: status, Note: note}
	state := f.market
	return &state, nil
}

func (f *fakeClient) ImportTranscript(ctx context.Context, t models.TranscriptImport) (*models.ImportResult, error) {
	f.called("ImportTranscript")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports = append(f.imports, t)
	return &models.ImportResult{ID: "imp-1", DetectedTickers: []string{"KUYA"}, StocksCreated: 1}, nil
}

func (f *fakeClient) GetFamilyAudit(ctx context.Context) (*models.FamilyAudit, error) {
	f.called("GetFamilyAudit")
	return f.audit, nil
}
