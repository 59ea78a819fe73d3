package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	JumpTab      key.Binding
	Refresh      key.Binding
	Rescan       key.Binding
	Bell         key.Binding
	MarkAllRead  key.Binding
	MarketStatus key.Binding
	Input        key.Binding
	Sort         key.Binding
	SortDir      key.Binding
	Filter       key.Binding
	Up           key.Binding
	Down         key.Binding
	Select       key.Binding
	Open         key.Binding
	Edit         key.Binding
	Submit       key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	Back         key.Binding
	Help         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:      key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		PrevTab:      key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		JumpTab:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7"), key.WithHelp("1-7", "jump to tab")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Rescan:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "force rescan")),
		Bell:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		MarkAllRead:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),
		MarketStatus: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle market status")),
		Input:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search / ticker")),
		Sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		SortDir:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "flip sort")),
		Filter:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "sentiment filter")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open analysis")),
		Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit form")),
		Submit:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		NextField:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.Bell, k.MarketStatus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.JumpTab, k.Refresh, k.Rescan},
		{k.Bell, k.MarkAllRead, k.MarketStatus, k.Input},
		{k.Sort, k.SortDir, k.Filter, k.Select, k.Open},
		{k.Edit, k.Submit, k.Back, k.Help, k.Quit},
	}
}
