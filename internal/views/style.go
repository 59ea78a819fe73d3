package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

var (
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#a6adc8"
	colorBorder  lipgloss.Color = "#585b70"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorYellow  lipgloss.Color = "#f9e2af"
	colorOrange  lipgloss.Color = "#fab387"
	colorRed     lipgloss.Color = "#f38ba8"
	colorSurface lipgloss.Color = "#313244"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle    = lipgloss.NewStyle().Foreground(colorText)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	tickerStyle  = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(colorMuted).Bold(true).Underline(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorSurface).
			Bold(true).
			Padding(0, 1)
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)
)

// Tone is the semantic color bucket for a value.
type Tone int

const (
	ToneGreen Tone = iota
	ToneYellow
	ToneOrange
	ToneRed
	ToneMuted
)

func (t Tone) String() string {
	switch t {
	case ToneGreen:
		return "green"
	case ToneYellow:
		return "yellow"
	case ToneOrange:
		return "orange"
	case ToneRed:
		return "red"
	default:
		return "muted"
	}
}

func (t Tone) Color() lipgloss.Color {
	switch t {
	case ToneGreen:
		return colorGreen
	case ToneYellow:
		return colorYellow
	case ToneOrange:
		return colorOrange
	case ToneRed:
		return colorRed
	default:
		return colorMuted
	}
}

func (t Tone) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Color())
}

// Badge renders text as a colored pill.
func (t Tone) Badge(text string) string {
	return badgeStyle.Foreground(colorSurface).Background(t.Color()).Render(text)
}

// ConfidenceColor buckets a 0-100 buy confidence.
func ConfidenceColor(confidence float64) Tone {
	switch {
	case confidence >= 75:
		return ToneGreen
	case confidence >= 60:
		return ToneYellow
	case confidence >= 40:
		return ToneOrange
	default:
		return ToneRed
	}
}

// ScoreColor buckets a 0-10 score.
func ScoreColor(score float64) Tone {
	return ConfidenceColor(score * 10)
}

// ConfidenceBarWidth is the bar fill as a CSS-style percentage, e.g. "82.3%".
func ConfidenceBarWidth(confidence float64) string {
	return strconv.FormatFloat(clampPct(confidence), 'f', -1, 64) + "%"
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Bar draws a horizontal gauge of width cells filled to pct percent.
func Bar(pct float64, width int, tone Tone) string {
	if width <= 0 {
		return ""
	}
	filled := int(clampPct(pct)/100*float64(width) + 0.5)
	return tone.Style().Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func StrengthTone(s models.SignalStrength) Tone {
	switch s {
	case models.SignalStrongBuy, models.SignalBuy:
		return ToneGreen
	case models.SignalWeakBuy:
		return ToneYellow
	case models.SignalNeutral:
		return ToneMuted
	case models.SignalWeakSell:
		return ToneOrange
	default:
		return ToneRed
	}
}

func SentimentTone(s models.Sentiment) Tone {
	switch s {
	case models.SentimentBullish:
		return ToneGreen
	case models.SentimentBearish:
		return ToneRed
	default:
		return ToneMuted
	}
}

func VerdictTone(v models.ActionVerdict) Tone {
	switch v {
	case models.VerdictBuyNow:
		return ToneGreen
	case models.VerdictAccumulate:
		return ToneYellow
	case models.VerdictWatchList:
		return ToneMuted
	case models.VerdictTrim:
		return ToneOrange
	default:
		return ToneRed
	}
}

func MarketTone(s models.MarketStatus) Tone {
	switch s {
	case models.MarketGreen:
		return ToneGreen
	case models.MarketYellow:
		return ToneYellow
	case models.MarketOrange:
		return ToneOrange
	case models.MarketRed:
		return ToneRed
	default:
		return ToneMuted
	}
}

func SeverityTone(s models.Severity) Tone {
	switch s {
	case models.SeverityCritical:
		return ToneRed
	case models.SeverityWarning:
		return ToneOrange
	default:
		return ToneMuted
	}
}

func formatPrice(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	if d.LessThan(decimal.NewFromInt(1)) {
		return "$" + d.StringFixed(3)
	}
	return "$" + d.StringFixed(2)
}

func formatSignedPct(d decimal.Decimal) string {
	s := d.StringFixed(1) + "%"
	if d.IsPositive() {
		s = "+" + s
	}
	return s
}

func formatOptional(p *float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p)
}

// renderState renders the loading and error states shared by every widget.
// It returns ok=false when the widget should render its content instead.
func renderState[T any](title string, snap Snapshot[T]) (string, bool) {
	switch snap.State {
	case StateLoading:
		return titleStyle.Render(title) + "\n" + mutedStyle.Render("Loading..."), true
	case StateError:
		return titleStyle.Render(title) + "\n" +
			errorStyle.Render(snap.Err.Error()) + "\n" +
			mutedStyle.Render("press r to retry"), true
	}
	return "", false
}

// staleLine annotates content whose latest refresh failed.
func staleLine[T any](snap Snapshot[T]) string {
	if !snap.Stale() {
		return ""
	}
	return "\n" + errorStyle.Render("refresh failed: "+snap.Err.Error()) + mutedStyle.Render(" (r to retry)")
}
