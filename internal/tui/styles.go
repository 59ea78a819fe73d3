package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/tickerdesk/internal/views"
)

var (
	accent lipgloss.Color = "#89b4fa"
	border lipgloss.Color = "#585b70"
	base   lipgloss.Color = "#1e1e2e"
)

var (
	brandStyle     = lipgloss.NewStyle().Foreground(base).Background(accent).Bold(true).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Foreground(views.ToneMuted.Color())
	dimStyle       = lipgloss.NewStyle().Foreground(views.ToneMuted.Color())
	warnStyle      = views.ToneOrange.Style()
	okStyle        = views.ToneGreen.Style()
	toastStyle     = lipgloss.NewStyle().Foreground(views.ToneRed.Color()).Bold(true)
	flashStyle     = lipgloss.NewStyle().Foreground(views.ToneGreen.Color())
	ruleStyle      = lipgloss.NewStyle().Foreground(border)
)
