package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// ClientConfig holds HTTP tuning for the backend client.
type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
}

// HTTPClient talks to the scoring backend over HTTP/JSON.
type HTTPClient struct {
	client *resty.Client
}

var _ Client = (*HTTPClient)(nil)

// restyLogger routes resty's internal messages through the package logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { logger.Error("resty: "+format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { logger.Warn("resty: "+format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { logger.Debug("resty: "+format, v...) }

// NewHTTPClient creates a backend client rooted at baseURL.
// Only GET and HEAD are retried, on transport errors and 5xx responses;
// 4xx fail immediately.
func NewHTTPClient(baseURL string, cfg ClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = 500 * time.Millisecond
	}

	client := resty.New()
	client.SetLogger(restyLogger{})
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(cfg.RetryDelayBase)
	client.SetRetryMaxWaitTime(cfg.RetryDelayBase * time.Duration(cfg.MaxRetries+1))
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if r == nil || r.Request == nil {
			return false
		}
		if r.Request.Method != http.MethodGet && r.Request.Method != http.MethodHead {
			return false
		}
		if r.Request.Context().Err() != nil {
			return false
		}
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError
	})

	return &HTTPClient{client: client}
}

func (c *HTTPClient) request(ctx context.Context) *resty.Request {
	return c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
}

// do executes req and decodes a JSON body into out (nil to discard).
func (c *HTTPClient) do(op string, req *resty.Request, method, path string, out interface{}) error {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		logger.Debug("%s %s failed after %v: %v", method, path, time.Since(start), err)
		return &FetchError{Op: op, Err: err}
	}
	logger.Debug("%s %s -> %d in %v", method, resp.Request.URL, resp.StatusCode(), time.Since(start))

	if resp.IsError() {
		return &FetchError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s", errorBody(resp))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &FetchError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorBody extracts {"detail": ...} or {"error": ...} messages, falling back to the raw body.
func errorBody(resp *resty.Response) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(resp.String())
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = http.StatusText(resp.StatusCode())
	}
	return s
}

type opportunityList struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Count         int                  `json:"count"`
}

func (c *HTTPClient) ListOpportunities(ctx context.Context, q OpportunityQuery) ([]models.Opportunity, error) {
	req := c.request(ctx)
	if q.MinConfidence > 0 {
		req.SetQueryParam("min_confidence", strconv.FormatFloat(q.MinConfidence, 'f', -1, 64))
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	if q.UserID != "" {
		req.SetQueryParam("user_id", q.UserID)
	}

	var out opportunityList
	if err := c.do("list opportunities", req, resty.MethodGet, "/api/opportunities", &out); err != nil {
		return nil, err
	}
	return out.Opportunities, nil
}

func (c *HTTPClient) GetMasterSignal(ctx context.Context, ticker string) (*models.MasterSignalResult, error) {
	req := c.request(ctx).SetPathParam("ticker", normalizeTicker(ticker))

	var out models.MasterSignalResult
	if err := c.do("get master signal", req, resty.MethodGet, "/api/master-signal/{ticker}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type stockList struct {
	Stocks []models.Stock `json:"stocks"`
}

func (c *HTTPClient) ListEnrichedStocks(ctx context.Context, f StockFilter) ([]models.Stock, error) {
	req := c.request(ctx)
	if f.Sentiment != "" {
		req.SetQueryParam("sentiment", string(f.Sentiment))
	}
	if f.MinGomesScore > 0 {
		req.SetQueryParam("min_gomes_score", strconv.FormatFloat(f.MinGomesScore, 'f', -1, 64))
	}

	var out stockList
	if err := c.do("list enriched stocks", req, resty.MethodGet, "/api/stocks/enriched", &out); err != nil {
		return nil, err
	}
	return out.Stocks, nil
}

// ListStocks returns the basic listing; the endpoint answers with a bare array.
func (c *HTTPClient) ListStocks(ctx context.Context) ([]models.Stock, error) {
	var out []models.Stock
	if err := c.do("list stocks", c.request(ctx), resty.MethodGet, "/api/stocks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetTimeline(ctx context.Context, ticker string) (*models.Timeline, error) {
	req := c.request(ctx).SetPathParam("ticker", normalizeTicker(ticker))

	var out models.Timeline
	if err := c.do("get timeline", req, resty.MethodGet, "/api/timeline/{ticker}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type scoreHistory struct {
	Ticker  string                     `json:"ticker"`
	History []models.ScoreHistoryPoint `json:"history"`
}

func (c *HTTPClient) GetScoreHistory(ctx context.Context, ticker string, limit int) ([]models.ScoreHistoryPoint, error) {
	req := c.request(ctx).SetPathParam("ticker", normalizeTicker(ticker))
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var out scoreHistory
	if err := c.do("get score history", req, resty.MethodGet, "/api/score-history/{ticker}", &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *HTTPClient) ScanWatchlist(ctx context.Context, forceRefresh bool) (*models.RankingScan, error) {
	req := c.request(ctx)
	if forceRefresh {
		req.SetQueryParam("force_refresh", "true")
	}

	var out models.RankingScan
	if err := c.do("scan watchlist", req, resty.MethodGet, "/api/watchlist/ranking", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListNotifications(ctx context.Context, userID string) (*models.NotificationList, error) {
	req := c.request(ctx)
	if userID != "" {
		req.SetQueryParam("user_id", userID)
	}

	var out models.NotificationList
	if err := c.do("list notifications", req, resty.MethodGet, "/api/notifications", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) MarkNotificationRead(ctx context.Context, id string) error {
	req := c.request(ctx).SetPathParam("id", id)
	return c.do("mark notification read", req, resty.MethodPost, "/api/notifications/{id}/read", nil)
}

func (c *HTTPClient) AcknowledgeAll(ctx context.Context, userID string) error {
	req := c.request(ctx).SetBody(map[string]string{"user_id": userID})
	return c.do("acknowledge notifications", req, resty.MethodPost, "/api/notifications/acknowledge-all", nil)
}

func (c *HTTPClient) GetMarketStatus(ctx context.Context) (*models.MarketStatusState, error) {
	var out models.MarketStatusState
	if err := c.do("get market status", c.request(ctx), resty.MethodGet, "/api/market-status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type marketStatusUpdate struct {
	Status models.MarketStatus `json:"status"`
	Note   string              `json:"note,omitempty"`
}

func (c *HTTPClient) UpdateMarketStatus(ctx context.Context, status models.MarketStatus, note string) (*models.MarketStatusState, error) {
	req := c.request(ctx).SetBody(marketStatusUpdate{Status: status, Note: note})

	var out models.MarketStatusState
	if err := c.do("update market status", req, resty.MethodPut, "/api/market-status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ImportTranscript(ctx context.Context, t models.TranscriptImport) (*models.ImportResult, error) {
	req := c.request(ctx).SetBody(t)

	var out models.ImportResult
	if err := c.do("import transcript", req, resty.MethodPost, "/api/transcripts/import", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetFamilyAudit(ctx context.Context) (*models.FamilyAudit, error) {
	var out models.FamilyAudit
	if err := c.do("get family audit", c.request(ctx), resty.MethodGet, "/api/family-audit", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
