package views

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// clock is swapped in tests.
var clock = time.Now

func humanAge(t time.Time) string {
	return humanize.RelTime(t, clock(), "ago", "from now")
}

// TimelineEntry is a mention with its derived age.
type TimelineEntry struct {
	models.TickerMention
	AgeDays int
	Age     string
}

// TimelineEntries orders mentions newest first and derives their ages.
func TimelineEntries(mentions []models.TickerMention, now time.Time) []TimelineEntry {
	sorted := append([]models.TickerMention(nil), mentions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MentionedAt.After(sorted[j].MentionedAt) })

	out := make([]TimelineEntry, len(sorted))
	for i, m := range sorted {
		out[i] = TimelineEntry{
			TickerMention: m,
			AgeDays:       m.AgeDays(now),
			Age:           humanize.RelTime(m.MentionedAt, now, "ago", "from now"),
		}
	}
	return out
}

// TickerTimeline lists every mention of one ticker across ingested sources.
type TickerTimeline struct {
	client api.Client
	res    *Resource[*models.Timeline]

	mu     sync.Mutex
	ticker string
}

func NewTickerTimeline(client api.Client) *TickerTimeline {
	t := &TickerTimeline{client: client}
	t.res = NewResource(func(ctx context.Context) (*models.Timeline, error) {
		ticker := t.Ticker()
		if ticker == "" {
			return nil, ErrNoTicker
		}
		return t.client.GetTimeline(ctx, ticker)
	})
	return t
}

func (t *TickerTimeline) Title() string { return "Timeline" }

func (t *TickerTimeline) Ticker() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker
}

func (t *TickerTimeline) SetTicker(ticker string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	t.mu.Lock()
	changed := ticker != t.ticker
	t.ticker = ticker
	t.mu.Unlock()
	if changed {
		t.res.Reset()
	}
}

func (t *TickerTimeline) Load(ctx context.Context) error {
	if t.Ticker() == "" {
		return nil
	}
	return t.res.Load(ctx)
}

func (t *TickerTimeline) Snapshot() Snapshot[*models.Timeline] {
	return t.res.Snapshot()
}

func (t *TickerTimeline) Render(width int) string {
	ticker := t.Ticker()
	if ticker == "" {
		return ""
	}
	title := t.Title() + " · " + ticker
	snap := t.res.Snapshot()
	if out, done := renderState(title, snap); done {
		return out
	}

	entries := TimelineEntries(snap.Data.Mentions, clock())
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d mentions", snap.Data.TotalMentions)) + "\n")
	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("No mentions recorded"))
		return b.String() + staleLine(snap)
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			mutedStyle.Render(fmt.Sprintf("%4dd", e.AgeDays)),
			SentimentTone(e.Sentiment).Style().Render(fmt.Sprintf("%-8s", e.Sentiment)),
			VerdictTone(e.Action).Style().Render(e.Action.Label()),
			textStyle.Render(e.SourceName)+mutedStyle.Render(fmt.Sprintf(" (w %.1f, %s)", e.Weight, e.Age))))
		if e.Quote != "" {
			quote := e.Quote
			if width > 10 && len([]rune(quote)) > width-8 {
				quote = string([]rune(quote)[:width-9]) + "…"
			}
			b.WriteString(mutedStyle.Italic(true).Render("      “"+quote+"”") + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + staleLine(snap)
}
