// Package tui is the interactive terminal dashboard. It lays the widgets from
// package views out as tabs and keeps them fresh on the scheduler.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/config"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/marketstatus"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/scheduler"
	"github.com/rewired-gh/tickerdesk/internal/views"
)

const (
	tabActions = iota
	tabPicks
	tabPortfolio
	tabAnalysis
	tabWatchlist
	tabAudit
	tabImport
)

// Scheduler task names.
const (
	taskActions       = "action-center"
	taskPicks         = "top-picks"
	taskWatchlist     = "watchlist"
	taskNotifications = "notifications"
)

type tab struct {
	title  string
	task   string
	load   func(ctx context.Context) error
	render func(width int) string
}

type loadedMsg struct {
	name string
	err  error
}

type statusMsg struct{ err error }

type bellMsg struct{ err error }

type importedMsg struct {
	res *models.ImportResult
	err error
}

// Options wires the dashboard to the backend.
type Options struct {
	Client    api.Client
	Status    *marketstatus.Store
	UserID    string
	Dashboard config.DashboardConfig
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx    context.Context
	sched  *scheduler.Scheduler
	cfg    config.DashboardConfig
	status *marketstatus.Store

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	inputTab int
	form     transcriptForm
	editing  bool

	actions   *views.ActionCenter
	picks     *views.TopPicks
	portfolio *views.PortfolioView
	analysis  *views.AnalysisView
	timeline  *views.TickerTimeline
	watchlist *views.WatchlistRankingTable
	audit     *views.FamilyAuditWidget
	importer  *views.TranscriptImporter
	light     *views.TrafficLight
	bell      *views.NotificationBell

	tabs   []tab
	active int

	width  int
	height int
	ready  bool
	flash  string
}

// New builds the dashboard. Widgets do not fetch until Init or StartPolling.
func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Dashboard
	m := &Model{
		ctx:      ctx,
		cfg:      cfg,
		status:   opts.Status,
		keys:     newKeyMap(),
		help:     help.New(),
		input:    textinput.New(),
		inputTab: -1,
		form:     newTranscriptForm(),

		actions: views.NewActionCenter(opts.Client, api.OpportunityQuery{
			MinConfidence: cfg.MinConfidence,
			Limit:         cfg.ActionCenterLimit,
			UserID:        opts.UserID,
		}),
		picks:     views.NewTopPicks(opts.Client, opts.UserID, cfg.TopPicksMinConfidence, cfg.TopPicksLimit),
		portfolio: views.NewPortfolioView(opts.Client),
		analysis:  views.NewAnalysisView(opts.Client, cfg.HistoryPoints),
		timeline:  views.NewTickerTimeline(opts.Client),
		watchlist: views.NewWatchlistRankingTable(opts.Client),
		audit:     views.NewFamilyAuditWidget(opts.Client),
		importer:  views.NewTranscriptImporter(opts.Client),
		light:     views.NewTrafficLight(opts.Status),
		bell:      views.NewNotificationBell(opts.Client, opts.UserID),
	}
	m.input.CharLimit = 32

	m.tabs = []tab{
		tabActions:   {title: m.actions.Title(), task: taskActions, load: m.actions.Load, render: m.actions.Render},
		tabPicks:     {title: m.picks.Title(), task: taskPicks, load: m.picks.Load, render: m.picks.Render},
		tabPortfolio: {title: m.portfolio.Title(), load: m.portfolio.Load, render: m.renderPortfolio},
		tabAnalysis:  {title: m.analysis.Title(), load: m.loadAnalysis, render: m.renderAnalysis},
		tabWatchlist: {title: m.watchlist.Title(), task: taskWatchlist, load: m.watchlist.Load, render: m.watchlist.Render},
		tabAudit:     {title: m.audit.Title(), load: m.audit.Load, render: m.audit.Render},
		tabImport:    {title: m.importer.Title(), load: m.importer.Load, render: m.renderImport},
	}
	return m
}

// StartPolling registers the periodic widgets on s. Every finished load is
// reported to the program through send so the screen repaints.
func (m *Model) StartPolling(s *scheduler.Scheduler, send func(tea.Msg)) {
	m.sched = s

	poll := func(name string, every time.Duration, load func(context.Context) error) {
		s.Every(name, every, func(ctx context.Context) error {
			err := load(ctx)
			if errors.Is(err, views.ErrSuperseded) {
				err = nil
			}
			if ctx.Err() == nil {
				send(loadedMsg{name: name, err: err})
			}
			return err
		})
	}
	poll(taskActions, m.cfg.ActionCenterInterval, m.actions.Load)
	poll(taskPicks, m.cfg.TopPicksInterval, m.picks.Load)
	poll(taskWatchlist, m.cfg.WatchlistInterval, m.watchlist.Load)
	poll(taskNotifications, m.cfg.NotificationsInterval, m.bell.Load)

	m.status.Subscribe(func(models.MarketStatusState) { send(statusMsg{}) })
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.statusCmd(m.light.Load),
		m.loadCmd(m.tabs[tabPortfolio].title, m.portfolio.Load),
		m.loadCmd(m.tabs[tabAudit].title, m.audit.Load),
	}
	if m.sched == nil {
		for _, t := range m.tabs {
			if t.task != "" {
				cmds = append(cmds, m.loadCmd(t.task, t.load))
			}
		}
		cmds = append(cmds, m.loadCmd(taskNotifications, m.bell.Load))
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadCmd(name string, load func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := load(m.ctx)
		if errors.Is(err, views.ErrSuperseded) {
			err = nil
		}
		return loadedMsg{name: name, err: err}
	}
}

func (m *Model) statusCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{err: fn(m.ctx)}
	}
}

// refresh reloads tab i, through its scheduler task when it has one.
func (m *Model) refresh(i int) tea.Cmd {
	t := m.tabs[i]
	if t.task != "" && m.sched != nil && m.sched.Trigger(t.task) {
		return nil
	}
	name := t.task
	if name == "" {
		name = t.title
	}
	return m.loadCmd(name, t.load)
}

func (m *Model) loadAnalysis(ctx context.Context) error {
	return errors.Join(m.analysis.Load(ctx), m.timeline.Load(ctx))
}

func (m *Model) openAnalysis(ticker string) tea.Cmd {
	m.analysis.SetTicker(ticker)
	m.timeline.SetTicker(ticker)
	m.active = tabAnalysis
	m.viewport.GotoTop()
	return m.loadCmd(m.tabs[tabAnalysis].title, m.loadAnalysis)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case loadedMsg:
		if msg.err != nil {
			logger.Debug("Load %s failed: %v", msg.name, msg.err)
		}

	case statusMsg:
		if msg.err != nil {
			logger.Debug("Market status: %v", msg.err)
		}

	case bellMsg:
		if msg.err != nil {
			m.flash = "Failed to update notifications: " + msg.err.Error()
		}

	case importedMsg:
		if msg.err == nil && msg.res != nil {
			m.form.reset()
			m.form.blur()
			m.editing = false
			m.flash = fmt.Sprintf("Imported transcript: %d tickers detected", len(msg.res.DetectedTickers))
		}

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	default:
		if m.editing {
			cmd = m.form.update(msg)
		} else if m.inputTab >= 0 {
			m.input, cmd = m.input.Update(msg)
		}
	}

	m.syncViewport()
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.form.setWidth(width)
	m.input.Width = width - 20

	bodyHeight := height - lipgloss.Height(m.renderHeader()) - 2
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width, bodyHeight)
		m.ready = true
		return
	}
	m.viewport.Width = width
	m.viewport.Height = bodyHeight
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderBody())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.inputTab >= 0 {
		return m.handleInput(msg)
	}
	if m.editing {
		return m.handleForm(msg)
	}

	if m.bell.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.MarkAllRead):
			return func() tea.Msg { return bellMsg{err: m.bell.MarkAllRead(m.ctx)} }
		case key.Matches(msg, m.keys.Bell):
			m.bell.Toggle()
			return nil
		}
		m.bell.DismissOnOutside()
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(m.active + 1)
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(m.active - 1)
	case key.Matches(msg, m.keys.JumpTab):
		m.switchTab(int(msg.Runes[0] - '1'))
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(m.active)
	case key.Matches(msg, m.keys.Bell):
		m.bell.Toggle()
		if m.bell.IsOpen() {
			return m.loadCmd(taskNotifications, m.bell.Load)
		}
	case key.Matches(msg, m.keys.MarketStatus):
		return m.statusCmd(m.light.Cycle)
	case key.Matches(msg, m.keys.Back):
		m.flash = ""
		m.light.DismissToast()
		if m.active == tabPortfolio {
			m.portfolio.ClearSelection()
		}
	default:
		return m.handleTabKey(msg)
	}
	return nil
}

func (m *Model) switchTab(i int) {
	n := len(m.tabs)
	m.active = ((i % n) + n) % n
	m.viewport.GotoTop()
}

func (m *Model) handleTabKey(msg tea.KeyMsg) tea.Cmd {
	switch m.active {
	case tabPortfolio:
		switch {
		case key.Matches(msg, m.keys.Input):
			return m.startInput("search ticker or company")
		case key.Matches(msg, m.keys.Up):
			m.portfolio.MoveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.portfolio.MoveCursor(1)
		case key.Matches(msg, m.keys.Select):
			m.portfolio.ToggleSelection()
		case key.Matches(msg, m.keys.Sort):
			k, _ := m.portfolio.SortState()
			m.portfolio.Sort(nextSortKey(k))
		case key.Matches(msg, m.keys.SortDir):
			k, _ := m.portfolio.SortState()
			m.portfolio.Sort(k)
		case key.Matches(msg, m.keys.Filter):
			m.portfolio.CycleSentiment()
			return m.refresh(tabPortfolio)
		case key.Matches(msg, m.keys.Open):
			rows := m.portfolio.Rows()
			if c := m.portfolio.Cursor(); c < len(rows) {
				return m.openAnalysis(rows[c].Ticker)
			}
		}
		return nil

	case tabAnalysis:
		if key.Matches(msg, m.keys.Input) {
			return m.startInput("ticker")
		}

	case tabWatchlist:
		if key.Matches(msg, m.keys.Rescan) {
			return m.loadCmd(taskWatchlist, m.watchlist.Rescan)
		}

	case tabImport:
		if key.Matches(msg, m.keys.Edit) {
			m.editing = true
			return m.form.focusField(m.form.focus)
		}
	}

	m.scroll(msg)
	return nil
}

func (m *Model) scroll(msg tea.KeyMsg) {
	m.viewport, _ = m.viewport.Update(msg)
}

func (m *Model) startInput(placeholder string) tea.Cmd {
	m.inputTab = m.active
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.inputTab = -1
	m.input.Blur()
}

func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.inputTab == tabPortfolio {
			m.portfolio.SetSearch("")
		}
		m.stopInput()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		target := m.inputTab
		m.stopInput()
		if target == tabAnalysis && value != "" {
			return m.openAnalysis(value)
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputTab == tabPortfolio {
		m.portfolio.SetSearch(m.input.Value())
	}
	return cmd
}

func (m *Model) handleForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.editing = false
		m.form.blur()
		return nil
	case key.Matches(msg, m.keys.Submit):
		form := m.form.values()
		return func() tea.Msg {
			res, err := m.importer.Submit(m.ctx, form)
			return importedMsg{res: res, err: err}
		}
	case key.Matches(msg, m.keys.NextField):
		return m.form.focusField(m.form.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m.form.focusField(m.form.focus - 1)
	}
	return m.form.update(msg)
}

func nextSortKey(k views.SortKey) views.SortKey {
	for i, v := range views.SortKeys {
		if v == k {
			return views.SortKeys[(i+1)%len(views.SortKeys)]
		}
	}
	return views.SortKeys[0]
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m *Model) renderHeader() string {
	left := brandStyle.Render("tickerdesk")
	right := m.light.RenderBadge() + "  " + m.bell.RenderBadge()
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	top := left + strings.Repeat(" ", gap) + right

	titles := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := fmt.Sprintf("%d %s", i+1, t.title)
		if i == m.active {
			titles[i] = activeTabStyle.Render(label)
		} else {
			titles[i] = tabStyle.Render(label)
		}
	}
	return top + "\n" + strings.Join(titles, dimStyle.Render(" │ ")) + "\n" + ruleStyle.Render(strings.Repeat("─", max(m.width, 1)))
}

func (m *Model) renderBody() string {
	if m.bell.IsOpen() {
		return m.bell.Render(m.width)
	}
	body := m.tabs[m.active].render(m.width)
	if m.inputTab == m.active {
		body = m.input.View() + "\n\n" + body
	}
	return body
}

func (m *Model) renderFooter() string {
	status := ""
	switch {
	case m.light.Toast() != "":
		status = toastStyle.Render(m.light.Toast())
	case m.flash != "":
		status = flashStyle.Render(m.flash)
	}
	return status + "\n" + m.help.View(m.keys)
}

func (m *Model) renderPortfolio(width int) string {
	out := m.portfolio.Render(width)
	if m.inputTab == tabPortfolio {
		if s := m.portfolio.Suggestions(); len(s) > 0 {
			out = dimStyle.Render("did you mean: "+strings.Join(s, ", ")) + "\n" + out
		}
	}
	return out
}

func (m *Model) renderAnalysis(width int) string {
	out := m.analysis.Render(width)
	if m.timeline.Ticker() != "" {
		out += "\n\n" + m.timeline.Render(width)
	}
	return out
}

func (m *Model) renderImport(width int) string {
	hint := dimStyle.Render("e: edit · tab: next field · ctrl+s: submit · esc: done")
	return m.importer.Render(width) + "\n\n" + m.form.view(m.editing) + "\n" + hint
}
