package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Panels
	NextPanel      key.Binding
	PrevPanel      key.Binding
	MovePanelUp    key.Binding
	MovePanelDown  key.Binding
	HidePanel      key.Binding
	ShowAllPanels  key.Binding
	ToggleChart    key.Binding
	ToggleTable    key.Binding
	AutoHideTables key.Binding
	ToggleLayout   key.Binding

	// Rows and pages
	Up        key.Binding
	Down      key.Binding
	Expand    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	MorePer   key.Binding
	FewerPer  key.Binding
	Yank      key.Binding

	// Columns and sort
	ColLeft  key.Binding
	ColRight key.Binding
	Sort     key.Binding
	Columns  key.Binding

	// Charts
	NextMetric key.Binding
	NextKind   key.Binding

	// Scrolling
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Modal
	Toggle  key.Binding
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),

		NextPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next panel"),
		),
		PrevPanel: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous panel"),
		),
		MovePanelUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "Move panel up"),
		),
		MovePanelDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "Move panel down"),
		),
		HidePanel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Hide panel"),
		),
		ShowAllPanels: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Show all panels"),
		),
		ToggleChart: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Toggle chart"),
		),
		ToggleTable: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Toggle table"),
		),
		AutoHideTables: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Auto-hide tables"),
		),
		ToggleLayout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Toggle layout"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", " ", "space"),
			key.WithHelp("enter", "Expand row"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown"),
			key.WithHelp("n", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup"),
			key.WithHelp("p", "Previous page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last page"),
		),
		MorePer: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "More rows per page"),
		),
		FewerPer: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Fewer rows per page"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy row"),
		),

		ColLeft: key.NewBinding(
			key.WithKeys("left", "<"),
			key.WithHelp("</left", "Previous column"),
		),
		ColRight: key.NewBinding(
			key.WithKeys("right", ">"),
			key.WithHelp(">/right", "Next column"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Sort by column"),
		),
		Columns: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Choose columns"),
		),

		NextMetric: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Next metric"),
		),
		NextKind: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Chart type"),
		),

		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Scroll up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Scroll down"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "x"),
			key.WithHelp("space", "Toggle"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Done"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPanel, k.Expand, k.NextPage, k.Sort, k.NextMetric, k.Columns, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, one column per group.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPanel, k.PrevPanel, k.MovePanelUp, k.MovePanelDown, k.HidePanel, k.ShowAllPanels},
		{k.Up, k.Down, k.Expand, k.Yank, k.HalfPageDown, k.HalfPageUp},
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.MorePer, k.FewerPer},
		{k.ColLeft, k.ColRight, k.Sort, k.Columns},
		{k.NextMetric, k.NextKind, k.ToggleChart, k.ToggleTable, k.AutoHideTables},
		{k.CycleTheme, k.ToggleLayout, k.Help, k.Quit},
	}
}
