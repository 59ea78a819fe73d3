package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/tickerdesk/internal/models"
)

// RenderStockDetail renders the full record of a selected portfolio stock.
func RenderStockDetail(s models.Stock, width int) string {
	head := tickerStyle.Render(s.Ticker)
	if s.CompanyName != "" {
		head += " " + mutedStyle.Render(s.CompanyName)
	}
	if s.Sentiment != "" {
		head += "  " + SentimentTone(s.Sentiment).Badge(string(s.Sentiment))
	}
	if s.ActionVerdict != "" {
		head += " " + VerdictTone(s.ActionVerdict).Badge(s.ActionVerdict.Label())
	}

	lines := []string{head}
	scores := []string{}
	if s.GomesScore != nil {
		scores = append(scores, ScoreColor(*s.GomesScore).Style().Render(fmt.Sprintf("Gomes %.1f/10", *s.GomesScore)))
	}
	if s.ConvictionScore != nil {
		scores = append(scores, ScoreColor(*s.ConvictionScore).Style().Render(fmt.Sprintf("Conviction %.1f/10", *s.ConvictionScore)))
	}
	if s.BuyConfidence != nil {
		scores = append(scores, ConfidenceColor(*s.BuyConfidence).Style().Render("Confidence "+ConfidenceBarWidth(*s.BuyConfidence)))
	}
	if len(scores) > 0 {
		lines = append(lines, strings.Join(scores, "  "))
	}

	price := []string{}
	if s.CurrentPrice != nil {
		price = append(price, fmt.Sprintf("Price $%.2f", *s.CurrentPrice))
	}
	if s.PriceTarget != "" {
		price = append(price, "Target "+s.PriceTarget)
	}
	if len(price) > 0 {
		lines = append(lines, textStyle.Render(strings.Join(price, "  ")))
	}

	inner := width - 4
	for _, f := range []struct{ label, text string }{
		{"Edge", s.Edge},
		{"Catalysts", s.Catalysts},
		{"Risks", s.Risks},
	} {
		if f.text == "" {
			continue
		}
		body := lipgloss.NewStyle().Foreground(colorText)
		if inner > 20 {
			body = body.Width(inner)
		}
		lines = append(lines, headingStyle.Render(f.label), body.Render(f.text))
	}

	if s.SourceName != "" {
		lines = append(lines, mutedStyle.Render("source: "+s.SourceName+" · added "+humanAge(s.CreatedAt)))
	}

	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}
