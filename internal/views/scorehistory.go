package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

const (
	SparklineWidth  = 120
	SparklineHeight = 40
	// MaxSparklinePoints is how many of the most recent points are plotted.
	MaxSparklinePoints = 10
	scoreDomainMax     = 10.0
	driftPriceRatio    = 1.1
)

var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// Point is a projected chart coordinate, origin top-left.
type Point struct {
	X, Y float64
}

// recent returns the last MaxSparklinePoints entries.
func recent(history []models.ScoreHistoryPoint) []models.ScoreHistoryPoint {
	if len(history) > MaxSparklinePoints {
		return history[len(history)-MaxSparklinePoints:]
	}
	return history
}

// ProjectSparkline maps the recent history onto a width x height box. Scores
// scale linearly over 0-10 so 0 sits on the bottom edge and 10 on the top.
// Out-of-range scores are not clamped. A single point is centred horizontally.
func ProjectSparkline(history []models.ScoreHistoryPoint, width, height float64) []Point {
	pts := recent(history)
	out := make([]Point, len(pts))
	for i, p := range pts {
		x := width / 2
		if len(pts) > 1 {
			x = float64(i) / float64(len(pts)-1) * width
		}
		out[i] = Point{X: x, Y: height - (p.Score/scoreDomainMax)*height}
	}
	return out
}

// Polyline formats points as an SVG polyline "points" attribute.
func Polyline(points []Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatCoord(p.X) + "," + formatCoord(p.Y)
	}
	return strings.Join(parts, " ")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SparklineSVG renders the history as a standalone SVG document.
func SparklineSVG(history []models.ScoreHistoryPoint) string {
	stroke := colorGreen
	if DetectThesisDrift(history) {
		stroke = colorRed
	}
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/></svg>`,
		SparklineWidth, SparklineHeight, SparklineWidth, SparklineHeight,
		string(stroke), Polyline(ProjectSparkline(history, SparklineWidth, SparklineHeight)))
}

// Sparkline renders the recent scores as block glyphs, one per point.
func Sparkline(history []models.ScoreHistoryPoint) string {
	pts := recent(history)
	var b strings.Builder
	top := len(sparkGlyphs) - 1
	for _, p := range pts {
		idx := int(p.Score / scoreDomainMax * float64(top))
		if idx < 0 {
			idx = 0
		}
		if idx > top {
			idx = top
		}
		b.WriteRune(sparkGlyphs[idx])
	}
	return b.String()
}

// DetectThesisDrift reports a falling score while the price rose more than
// 10% against the previous point.
func DetectThesisDrift(history []models.ScoreHistoryPoint) bool {
	if len(history) < 2 {
		return false
	}
	latest := history[len(history)-1]
	prev := history[len(history)-2]
	return latest.Score < prev.Score && latest.Price > prev.Price*driftPriceRatio
}

// ScoreHistoryChart is the mini chart widget for one ticker.
type ScoreHistoryChart struct {
	client api.Client
	limit  int
	res    *Resource[[]models.ScoreHistoryPoint]

	mu     sync.Mutex
	ticker string
}

// NewScoreHistoryChart fetches at most limit points per load.
func NewScoreHistoryChart(client api.Client, limit int) *ScoreHistoryChart {
	c := &ScoreHistoryChart{client: client, limit: limit}
	c.res = NewResource(func(ctx context.Context) ([]models.ScoreHistoryPoint, error) {
		ticker := c.Ticker()
		if ticker == "" {
			return nil, nil
		}
		return c.client.GetScoreHistory(ctx, ticker, c.limit)
	})
	return c
}

// SetTicker switches the chart to ticker, dropping the previous ticker's data.
func (c *ScoreHistoryChart) SetTicker(ticker string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticker == c.ticker {
		return
	}
	c.res.Reset()
	c.ticker = ticker
}

func (c *ScoreHistoryChart) Ticker() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker
}

func (c *ScoreHistoryChart) Load(ctx context.Context) error {
	return c.res.Load(ctx)
}

func (c *ScoreHistoryChart) Snapshot() Snapshot[[]models.ScoreHistoryPoint] {
	return c.res.Snapshot()
}

func (c *ScoreHistoryChart) Render(width int) string {
	title := "Score history"
	if t := c.Ticker(); t != "" {
		title += " · " + t
	}
	snap := c.res.Snapshot()
	if out, done := renderState(title, snap); done {
		return out
	}

	history := snap.Data
	if len(history) == 0 {
		return titleStyle.Render(title) + "\n" + mutedStyle.Render("No history yet")
	}

	latest := history[len(history)-1]
	tone := ScoreColor(latest.Score)
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(tone.Style().Render(Sparkline(history)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %.1f/10 @ $%.2f", latest.Score, latest.Price)))
	if DetectThesisDrift(history) {
		b.WriteString("\n" + bannerStyle.Render("THESIS DRIFT: score falling while price runs"))
	}
	b.WriteString(staleLine(snap))
	return b.String()
}
