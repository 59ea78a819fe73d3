package views

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// SortKey is a portfolio column that rows can be ordered by.
type SortKey string

const (
	SortTicker    SortKey = "ticker"
	SortSentiment SortKey = "sentiment"
	SortScore     SortKey = "score"
	SortDate      SortKey = "date"
)

// SortKeys lists the keys in column order.
var SortKeys = []SortKey{SortTicker, SortSentiment, SortScore, SortDate}

func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range SortKeys {
		if k == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// defaultAscending is the direction a key starts in when first selected.
func (k SortKey) defaultAscending() bool {
	return k == SortTicker
}

func sentimentRank(s models.Sentiment) int {
	switch s {
	case models.SentimentBullish:
		return 2
	case models.SentimentNeutral:
		return 1
	case models.SentimentBearish:
		return 0
	default:
		return -1
	}
}

// SortStocks orders stocks in place by key. Ties fall back to ticker order.
func SortStocks(stocks []models.Stock, key SortKey, ascending bool) {
	cmp := func(a, b models.Stock) int {
		switch key {
		case SortSentiment:
			return sentimentRank(a.Sentiment) - sentimentRank(b.Sentiment)
		case SortScore:
			return compareFloat(a.Score(), b.Score())
		case SortDate:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return strings.Compare(a.Ticker, b.Ticker)
		}
	}
	sort.SliceStable(stocks, func(i, j int) bool {
		c := cmp(stocks[i], stocks[j])
		if c == 0 {
			return stocks[i].Ticker < stocks[j].Ticker
		}
		if ascending {
			return c < 0
		}
		return c > 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SuggestTickers returns known tickers within edit distance 2 of query,
// closest first.
func SuggestTickers(query string, known []string) []string {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	type candidate struct {
		ticker string
		dist   int
	}
	var cands []candidate
	for _, t := range known {
		d := levenshtein.ComputeDistance(query, strings.ToUpper(t))
		if d <= 2 {
			cands = append(cands, candidate{t, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].ticker < cands[j].ticker
	})
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ticker
	}
	return out
}

// PortfolioData is a stock listing and whether it came from the basic fallback.
type PortfolioData struct {
	Stocks   []models.Stock
	Fallback bool
}

// PortfolioView lists analysed stocks with filters, sorting and a detail pane.
type PortfolioView struct {
	client api.Client
	res    *Resource[PortfolioData]

	mu        sync.Mutex
	filter    api.StockFilter
	sortKey   SortKey
	ascending bool
	search    string
	cursor    int
	selected  string
}

func NewPortfolioView(client api.Client) *PortfolioView {
	p := &PortfolioView{client: client, sortKey: SortScore}
	p.res = NewResource(p.fetch)
	return p
}

// fetch prefers the enriched listing. When it fails the basic listing is used
// and the filter is applied locally.
func (p *PortfolioView) fetch(ctx context.Context) (PortfolioData, error) {
	f := p.Filter()
	stocks, err := p.client.ListEnrichedStocks(ctx, f)
	if err == nil {
		return PortfolioData{Stocks: stocks}, nil
	}
	if ctx.Err() != nil {
		return PortfolioData{}, err
	}
	logger.Warn("Enriched stock listing failed, using basic listing: %v", err)

	basic, err := p.client.ListStocks(ctx)
	if err != nil {
		return PortfolioData{}, err
	}
	filtered := make([]models.Stock, 0, len(basic))
	for _, s := range basic {
		if f.Matches(s) {
			filtered = append(filtered, s)
		}
	}
	return PortfolioData{Stocks: filtered, Fallback: true}, nil
}

func (p *PortfolioView) Title() string { return "Portfolio" }

func (p *PortfolioView) Load(ctx context.Context) error {
	return p.res.Load(ctx)
}

func (p *PortfolioView) Snapshot() Snapshot[PortfolioData] {
	return p.res.Snapshot()
}

func (p *PortfolioView) Filter() api.StockFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetFilter replaces the filter; the next Load applies it.
func (p *PortfolioView) SetFilter(f api.StockFilter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
	p.cursor = 0
}

// CycleSentiment steps the sentiment filter through all, bullish, neutral, bearish.
func (p *PortfolioView) CycleSentiment() models.Sentiment {
	order := []models.Sentiment{"", models.SentimentBullish, models.SentimentNeutral, models.SentimentBearish}
	p.mu.Lock()
	defer p.mu.Unlock()
	next := order[0]
	for i, s := range order {
		if s == p.filter.Sentiment {
			next = order[(i+1)%len(order)]
			break
		}
	}
	p.filter.Sentiment = next
	p.cursor = 0
	return next
}

// Sort selects key. Selecting the current key again flips the direction; a
// new key starts ascending for ticker and descending otherwise.
func (p *PortfolioView) Sort(key SortKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.sortKey {
		p.ascending = !p.ascending
		return
	}
	p.sortKey = key
	p.ascending = key.defaultAscending()
}

func (p *PortfolioView) SortState() (SortKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortKey, p.ascending
}

// SetSearch narrows rows to tickers or company names containing query.
func (p *PortfolioView) SetSearch(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search = strings.TrimSpace(query)
	p.cursor = 0
}

// Rows is the current listing after search and sort.
func (p *PortfolioView) Rows() []models.Stock {
	snap := p.res.Snapshot()
	p.mu.Lock()
	key, asc, search := p.sortKey, p.ascending, strings.ToUpper(p.search)
	p.mu.Unlock()

	rows := make([]models.Stock, 0, len(snap.Data.Stocks))
	for _, s := range snap.Data.Stocks {
		if search != "" && !strings.Contains(s.Ticker, search) && !strings.Contains(strings.ToUpper(s.CompanyName), search) {
			continue
		}
		rows = append(rows, s)
	}
	SortStocks(rows, key, asc)
	return rows
}

// Suggestions offers near-miss tickers when the search matches nothing.
func (p *PortfolioView) Suggestions() []string {
	p.mu.Lock()
	search := p.search
	p.mu.Unlock()
	if search == "" || len(p.Rows()) > 0 {
		return nil
	}
	snap := p.res.Snapshot()
	known := make([]string, len(snap.Data.Stocks))
	for i, s := range snap.Data.Stocks {
		known[i] = s.Ticker
	}
	return SuggestTickers(search, known)
}

// MoveCursor shifts the highlighted row by delta, clamped to the listing.
func (p *PortfolioView) MoveCursor(delta int) {
	n := len(p.Rows())
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor += delta
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *PortfolioView) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// ToggleSelection opens the detail pane for the highlighted row, or closes it
// if that row is already open.
func (p *PortfolioView) ToggleSelection() {
	rows := p.Rows()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return
	}
	if p.selected == rows[p.cursor].Ticker {
		p.selected = ""
		return
	}
	p.selected = rows[p.cursor].Ticker
}

// Select opens the detail pane for ticker.
func (p *PortfolioView) Select(ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	for _, s := range p.res.Snapshot().Data.Stocks {
		if s.Ticker == ticker {
			p.mu.Lock()
			p.selected = ticker
			p.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%s is not in the portfolio", ticker)
}

func (p *PortfolioView) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = ""
}

// Selected returns the stock shown in the detail pane.
func (p *PortfolioView) Selected() (models.Stock, bool) {
	p.mu.Lock()
	ticker := p.selected
	p.mu.Unlock()
	if ticker == "" {
		return models.Stock{}, false
	}
	for _, s := range p.res.Snapshot().Data.Stocks {
		if s.Ticker == ticker {
			return s, true
		}
	}
	return models.Stock{}, false
}

func (p *PortfolioView) Render(width int) string {
	snap := p.res.Snapshot()
	if out, done := renderState(p.Title(), snap); done {
		return out
	}

	key, asc := p.SortState()
	f := p.Filter()
	rows := p.Rows()
	cursor := p.Cursor()

	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title()))
	meta := fmt.Sprintf("  %d stocks", len(rows))
	if f.Sentiment != "" {
		meta += " · " + string(f.Sentiment)
	}
	if f.MinGomesScore > 0 {
		meta += fmt.Sprintf(" · score ≥ %.0f", f.MinGomesScore)
	}
	b.WriteString(mutedStyle.Render(meta) + "\n")
	if snap.Data.Fallback {
		b.WriteString(ToneOrange.Style().Render("Enriched data unavailable, showing basic listing") + "\n")
	}

	b.WriteString(headingStyle.Render(portfolioHeader(key, asc)) + "\n")
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No stocks match"))
		if s := p.Suggestions(); len(s) > 0 {
			b.WriteString(mutedStyle.Render(" · did you mean " + strings.Join(s, ", ") + "?"))
		}
		return b.String() + staleLine(snap)
	}
	for i, s := range rows {
		line := fmt.Sprintf("%-7s %-9s %6s  %-11s %s",
			s.Ticker, s.Sentiment, formatOptional(s.GomesScore, "%.1f"), s.ActionVerdict.Label(), s.CreatedAt.Format("2006-01-02"))
		if i == cursor {
			line = cursorStyle.Render("› " + line)
		} else {
			line = "  " + SentimentTone(s.Sentiment).Style().Render(line)
		}
		b.WriteString(line + "\n")
	}

	if s, ok := p.Selected(); ok {
		b.WriteString("\n" + RenderStockDetail(s, width))
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}

func portfolioHeader(key SortKey, asc bool) string {
	cols := []struct {
		key   SortKey
		title string
		width int
	}{
		{SortTicker, "Ticker", 7},
		{SortSentiment, "Sentiment", 9},
		{SortScore, "Score", 6},
		{"", "Verdict", 11},
		{SortDate, "Added", 10},
	}
	arrow := "▼"
	if asc {
		arrow = "▲"
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		title := c.title
		if c.key != "" && c.key == key {
			title += arrow
		}
		parts[i] = fmt.Sprintf("%-*s", c.width, title)
	}
	return "  " + strings.Join(parts, " ")
}
