package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/tickerdesk/internal/devserver"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

func newTestBackend(t *testing.T) (*HTTPClient, *devserver.Server) {
	t.Helper()
	backend := devserver.New(devserver.DefaultFixtures(time.Now().UTC()))
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	client := NewHTTPClient(srv.URL, ClientConfig{
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		RetryDelayBase: 10 * time.Millisecond,
	})
	return client, backend
}

func TestListOpportunitiesAppliesQuery(t *testing.T) {
	client, _ := newTestBackend(t)

	opps, err := client.ListOpportunities(context.Background(), OpportunityQuery{MinConfidence: 70, Limit: 10, UserID: "family"})
	if err != nil {
		t.Fatalf("ListOpportunities: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("got %d opportunities, want 2", len(opps))
	}
	for _, o := range opps {
		if o.BuyConfidence < 70 {
			t.Errorf("%s confidence %.1f below filter", o.Ticker, o.BuyConfidence)
		}
	}
	if opps[0].Ticker != "KUYA" || opps[0].EntryPrice.String() != "0.42" {
		t.Errorf("unexpected first opportunity %+v", opps[0])
	}
}

func TestGetMasterSignalNormalizesTicker(t *testing.T) {
	client, _ := newTestBackend(t)

	sig, err := client.GetMasterSignal(context.Background(), " kuya ")
	if err != nil {
		t.Fatalf("GetMasterSignal: %v", err)
	}
	if sig.Ticker != "KUYA" || sig.SignalStrength != models.SignalStrongBuy {
		t.Errorf("unexpected signal %+v", sig)
	}
}

func TestNotFoundIsFetchErrorWithStatus(t *testing.T) {
	client, backend := newTestBackend(t)

	_, err := client.GetMasterSignal(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if backend.Hits("/api/master-signal/:ticker") != 1 {
		t.Errorf("4xx must not be retried, hits = %d", backend.Hits("/api/master-signal/:ticker"))
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	client, backend := newTestBackend(t)
	backend.Fail("/api/stocks/enriched", http.StatusServiceUnavailable)

	_, err := client.ListEnrichedStocks(context.Background(), StockFilter{})
	if !IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if got := backend.Hits("/api/stocks/enriched"); got != 2 {
		t.Errorf("hits = %d, want 2 (one retry)", got)
	}
}

func TestWritesAreNotRetried(t *testing.T) {
	tests := []struct {
		name  string
		route string
		call  func(c *HTTPClient) error
	}{
		{
			name:  "import transcript",
			route: "/api/transcripts/import",
			call: func(c *HTTPClient) error {
				_, err := c.ImportTranscript(context.Background(), models.TranscriptImport{SourceName: "Pod", RawText: "text"})
				return err
			},
		},
		{
			name:  "update market status",
			route: "/api/market-status",
			call: func(c *HTTPClient) error {
				_, err := c.UpdateMarketStatus(context.Background(), models.MarketRed, "")
				return err
			},
		},
		{
			name:  "acknowledge all",
			route: "/api/notifications/acknowledge-all",
			call: func(c *HTTPClient) error {
				return c.AcknowledgeAll(context.Background(), "family")
			},
		},
		{
			name:  "mark read",
			route: "/api/notifications/:id/read",
			call: func(c *HTTPClient) error {
				return c.MarkNotificationRead(context.Background(), "n1")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, backend := newTestBackend(t)
			backend.Fail(tt.route, http.StatusBadGateway)

			err := tt.call(client)
			var fe *FetchError
			if !errors.As(err, &fe) || fe.StatusCode != http.StatusBadGateway {
				t.Fatalf("expected 502 FetchError, got %v", err)
			}
			if got := backend.Hits(tt.route); got != 1 {
				t.Errorf("hits = %d, want 1", got)
			}
		})
	}
}

func TestTransportErrorsLogThroughLogger(t *testing.T) {
	var logs bytes.Buffer
	logger.InitWithOutput("debug", "text", &logs)
	t.Cleanup(func() { logger.InitWithOutput("error", "text", io.Discard) })

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	client := NewHTTPClient("http://127.0.0.1:1", ClientConfig{
		Timeout:        time.Second,
		MaxRetries:     1,
		RetryDelayBase: 10 * time.Millisecond,
	})
	_, callErr := client.GetMarketStatus(context.Background())

	os.Stderr = stderr
	_ = w.Close()
	leaked, _ := io.ReadAll(r)
	_ = r.Close()

	if !IsFetchError(callErr) {
		t.Fatalf("expected FetchError, got %v", callErr)
	}
	if len(leaked) != 0 {
		t.Errorf("stderr got %q", leaked)
	}
	out := logs.String()
	if !strings.Contains(out, "[WARN] resty:") || !strings.Contains(out, "Attempt 2") {
		t.Errorf("retry warnings missing from log: %q", out)
	}
}

func TestListEnrichedStocksFilters(t *testing.T) {
	client, _ := newTestBackend(t)

	stocks, err := client.ListEnrichedStocks(context.Background(), StockFilter{Sentiment: models.SentimentBullish, MinGomesScore: 8})
	if err != nil {
		t.Fatalf("ListEnrichedStocks: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("got %d stocks, want 2", len(stocks))
	}
	for _, s := range stocks {
		if s.Sentiment != models.SentimentBullish || s.Score() < 8 {
			t.Errorf("stock %s escaped the filter", s.Ticker)
		}
	}
}

func TestListStocksDecodesBareArray(t *testing.T) {
	client, _ := newTestBackend(t)

	stocks, err := client.ListStocks(context.Background())
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(stocks) != 5 {
		t.Fatalf("got %d stocks, want 5", len(stocks))
	}
	if stocks[0].ConvictionScore != nil {
		t.Error("basic listing should not carry enrichment")
	}
}

func TestTimelineAndHistory(t *testing.T) {
	client, _ := newTestBackend(t)
	ctx := context.Background()

	tl, err := client.GetTimeline(ctx, "GSI")
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if tl.TotalMentions != 3 || len(tl.Mentions) != 3 {
		t.Errorf("unexpected timeline %+v", tl)
	}

	hist, err := client.GetScoreHistory(ctx, "KUYA", 4)
	if err != nil {
		t.Fatalf("GetScoreHistory: %v", err)
	}
	if len(hist) != 4 {
		t.Fatalf("got %d points, want 4", len(hist))
	}
	if hist[len(hist)-1].Score != 8.5 {
		t.Errorf("last score = %.1f, want 8.5", hist[len(hist)-1].Score)
	}
}

func TestWatchlistForceRefresh(t *testing.T) {
	client, _ := newTestBackend(t)

	cached, err := client.ScanWatchlist(context.Background(), false)
	if err != nil {
		t.Fatalf("ScanWatchlist: %v", err)
	}
	if !cached.Cached {
		t.Error("plain scan should be served from cache")
	}
	fresh, err := client.ScanWatchlist(context.Background(), true)
	if err != nil {
		t.Fatalf("ScanWatchlist(force): %v", err)
	}
	if fresh.Cached {
		t.Error("forced scan should not be cached")
	}
}

func TestNotificationsRoundTrip(t *testing.T) {
	client, _ := newTestBackend(t)
	ctx := context.Background()

	list, err := client.ListNotifications(ctx, "family")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if list.UnreadCount != 2 {
		t.Fatalf("unread = %d, want 2", list.UnreadCount)
	}

	if err := client.MarkNotificationRead(ctx, "n-2"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := client.AcknowledgeAll(ctx, "family"); err != nil {
		t.Fatalf("AcknowledgeAll: %v", err)
	}
	list, err = client.ListNotifications(ctx, "family")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if list.UnreadCount != 0 {
		t.Errorf("unread after acknowledge = %d", list.UnreadCount)
	}
}

func TestMarketStatusWriteThrough(t *testing.T) {
	client, _ := newTestBackend(t)
	ctx := context.Background()

	state, err := client.UpdateMarketStatus(ctx, models.MarketRed, "Breadth collapse")
	if err != nil {
		t.Fatalf("UpdateMarketStatus: %v", err)
	}
	if state.Status != models.MarketRed {
		t.Errorf("status = %s", state.Status)
	}

	got, err := client.GetMarketStatus(ctx)
	if err != nil {
		t.Fatalf("GetMarketStatus: %v", err)
	}
	if got.Status != models.MarketRed || got.Note != "Breadth collapse" {
		t.Errorf("unexpected persisted state %+v", got)
	}

	if _, err := client.UpdateMarketStatus(ctx, "PURPLE", ""); !IsFetchError(err) {
		t.Errorf("invalid status should fail, got %v", err)
	}
}

func TestImportTranscript(t *testing.T) {
	client, _ := newTestBackend(t)

	text := "This week we talked about KUYA and why the restart matters, plus a long digression on GSI and its inference chips."
	res, err := client.ImportTranscript(context.Background(), models.TranscriptImport{
		SourceName: "Breakout Investors #213",
		Date:       "2026-10-16",
		Quality:    models.QualityHigh,
		RawText:    text,
	})
	if err != nil {
		t.Fatalf("ImportTranscript: %v", err)
	}
	if len(res.DetectedTickers) != 2 || res.ID == "" {
		t.Errorf("unexpected import result %+v", res)
	}
}

func TestFamilyAudit(t *testing.T) {
	client, _ := newTestBackend(t)

	audit, err := client.GetFamilyAudit(context.Background())
	if err != nil {
		t.Fatalf("GetFamilyAudit: %v", err)
	}
	if len(audit.Gaps) != 4 || len(audit.Accounts) != 3 {
		t.Errorf("unexpected audit %+v", audit)
	}
}

func TestCancelledContext(t *testing.T) {
	client, _ := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.ListStocks(ctx); !IsFetchError(err) {
		t.Errorf("expected FetchError for cancelled context, got %v", err)
	}
}

func TestStockFilterMatches(t *testing.T) {
	s := models.Stock{Ticker: "KUYA", Sentiment: models.SentimentBullish, GomesScore: models.Float(7)}
	tests := []struct {
		name   string
		filter StockFilter
		want   bool
	}{
		{"empty filter", StockFilter{}, true},
		{"sentiment match", StockFilter{Sentiment: models.SentimentBullish}, true},
		{"sentiment mismatch", StockFilter{Sentiment: models.SentimentBearish}, false},
		{"score at floor", StockFilter{MinGomesScore: 7}, true},
		{"score below floor", StockFilter{MinGomesScore: 7.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(s); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
