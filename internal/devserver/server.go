// Package devserver serves fixture data over the scoring backend's routes so the
// dashboard can run, and be tested, without the real backend.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// Server is a gin-backed fixture backend.
type Server struct {
	mu       sync.Mutex
	data     *Fixtures
	failures map[string]int
	hits     map[string]int
	engine   *gin.Engine
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// New wires the route table over data.
func New(data *Fixtures) *Server {
	s := &Server{
		data:     data,
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.track())

	api := r.Group("/api")
	{
		api.GET("/opportunities", s.listOpportunities)
		api.GET("/master-signal/:ticker", s.getMasterSignal)
		api.GET("/stocks", s.listStocks)
		api.GET("/stocks/enriched", s.listEnrichedStocks)
		api.GET("/timeline/:ticker", s.getTimeline)
		api.GET("/score-history/:ticker", s.getScoreHistory)
		api.GET("/watchlist/ranking", s.scanWatchlist)
		api.GET("/notifications", s.listNotifications)
		api.POST("/notifications/acknowledge-all", s.acknowledgeAll)
		api.POST("/notifications/:id/read", s.markRead)
		api.GET("/market-status", s.getMarketStatus)
		api.PUT("/market-status", s.updateMarketStatus)
		api.POST("/transcripts/import", s.importTranscript)
		api.GET("/family-audit", s.getFamilyAudit)
	}

	s.engine = r
	return s
}

// Handler exposes the router for http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Fail makes every request whose route pattern equals route answer with status.
// A status of 0 clears the failure.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Fixture backend listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		s.mu.Lock()
		s.hits[route]++
		status, failing := s.failures[route]
		s.mu.Unlock()

		if failing {
			c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) listOpportunities(c *gin.Context) {
	minConf, _ := strconv.ParseFloat(c.DefaultQuery("min_confidence", "0"), 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	s.mu.Lock()
	out := make([]models.Opportunity, 0, len(s.data.Opportunities))
	for _, o := range s.data.Opportunities {
		if o.BuyConfidence >= minConf {
			out = append(out, o)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BuyConfidence > out[j].BuyConfidence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": out, "count": len(out)})
}

func (s *Server) getMasterSignal(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.data.Opportunities {
		if o.Ticker == ticker {
			c.JSON(http.StatusOK, o)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "no signal for " + ticker})
}

func (s *Server) listStocks(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.Stock, len(s.data.Stocks))
	for i, st := range s.data.Stocks {
		st.ConvictionScore = nil
		st.BuyConfidence = nil
		out[i] = st
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) listEnrichedStocks(c *gin.Context) {
	sentiment := models.Sentiment(strings.ToUpper(c.Query("sentiment")))
	minScore, _ := strconv.ParseFloat(c.DefaultQuery("min_gomes_score", "0"), 64)

	s.mu.Lock()
	out := make([]models.Stock, 0, len(s.data.Stocks))
	for _, st := range s.data.Stocks {
		if sentiment != "" && st.Sentiment != sentiment {
			continue
		}
		if minScore > 0 && st.Score() < minScore {
			continue
		}
		out = append(out, st)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"stocks": out})
}

func (s *Server) getTimeline(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	s.mu.Lock()
	mentions := append([]models.TickerMention(nil), s.data.Mentions[ticker]...)
	s.mu.Unlock()
	if mentions == nil {
		mentions = []models.TickerMention{}
	}
	c.JSON(http.StatusOK, models.Timeline{Ticker: ticker, Mentions: mentions, TotalMentions: len(mentions)})
}

func (s *Server) getScoreHistory(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	s.mu.Lock()
	history := append([]models.ScoreHistoryPoint(nil), s.data.History[ticker]...)
	s.mu.Unlock()

	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if history == nil {
		history = []models.ScoreHistoryPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "history": history})
}

func (s *Server) scanWatchlist(c *gin.Context) {
	force := c.Query("force_refresh") == "true"
	now := time.Now().UTC()

	s.mu.Lock()
	if force {
		for i := range s.data.Rankings {
			s.data.Rankings[i].LastAnalyzed = now
		}
	}
	out := append([]models.WatchlistRanking(nil), s.data.Rankings...)
	s.mu.Unlock()

	c.JSON(http.StatusOK, models.RankingScan{Rankings: out, ScannedAt: now, Cached: !force})
}

func (s *Server) listNotifications(c *gin.Context) {
	s.mu.Lock()
	out := append([]models.Notification(nil), s.data.Notifications...)
	s.mu.Unlock()

	unread := 0
	for _, n := range out {
		if !n.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, models.NotificationList{Notifications: out, UnreadCount: unread})
}

func (s *Server) markRead(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Notifications {
		if s.data.Notifications[i].ID == id {
			s.data.Notifications[i].Read = true
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "notification not found"})
}

func (s *Server) acknowledgeAll(c *gin.Context) {
	s.mu.Lock()
	n := 0
	for i := range s.data.Notifications {
		if !s.data.Notifications[i].Read {
			s.data.Notifications[i].Read = true
			n++
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"acknowledged": n})
}

func (s *Server) getMarketStatus(c *gin.Context) {
	s.mu.Lock()
	state := s.data.MarketStatus
	s.mu.Unlock()
	c.JSON(http.StatusOK, state)
}

func (s *Server) updateMarketStatus(c *gin.Context) {
	var body struct {
		Status models.MarketStatus `json:"status"`
		Note   string              `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if !body.Status.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid status " + string(body.Status)})
		return
	}

	s.mu.Lock()
	s.data.MarketStatus = models.MarketStatusState{Status: body.Status, Note: body.Note, UpdatedAt: time.Now().UTC()}
	state := s.data.MarketStatus
	s.mu.Unlock()
	c.JSON(http.StatusOK, state)
}

func (s *Server) importTranscript(c *gin.Context) {
	var body models.TranscriptImport
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if len(body.RawText) < 100 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "transcript too short"})
		return
	}

	s.mu.Lock()
	var detected []string
	for _, st := range s.data.Stocks {
		if strings.Contains(body.RawText, st.Ticker) {
			detected = append(detected, st.Ticker)
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, models.ImportResult{ID: uuid.NewString(), DetectedTickers: detected, StocksCreated: len(detected)})
}

func (s *Server) getFamilyAudit(c *gin.Context) {
	s.mu.Lock()
	audit := s.data.Audit
	s.mu.Unlock()
	c.JSON(http.StatusOK, audit)
}
