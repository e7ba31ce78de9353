package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme assigns palette colors to UI roles.
type Theme struct {
	Name string

	Background string
	Surface    string // header, command bar
	SurfaceAlt string // panels, overall strip
	FocusBg    string // focused panel

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors maps a link status to its badge color.
	StatusColors map[string]string
}

func newTheme(t Theme) Theme {
	t.StatusColors = map[string]string{
		"connecting":   t.Info,
		"connected":    t.Success,
		"disconnected": t.Warning,
		"auth-failed":  t.Danger,
		"halted":       t.Danger,
		StatusOffline:  t.Faint,
	}
	return t
}

var themeList = []Theme{
	// https://github.com/EdenEast/nightfox.nvim
	newTheme(Theme{
		Name: "Nightfox",
		Background: "#131a24", Surface: "#192330", SurfaceAlt: "#212e3f", FocusBg: "#29394f",
		SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
		Border: "#39506d", BorderFocus: "#719cd6",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf",
	}),
	// https://github.com/rebelot/kanagawa.nvim
	newTheme(Theme{
		Name: "Kanagawa",
		Background: "#16161D", Surface: "#1F1F28", SurfaceAlt: "#2A2A37", FocusBg: "#363646",
		SelectionBg: "#2D4F67", SelectionText: "#DCD7BA",
		Border: "#54546D", BorderFocus: "#7E9CD8",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA",
	}),
	// Tailwind slate and sky.
	newTheme(Theme{
		Name: "Slate",
		Background: "#020617", Surface: "#0f172a", SurfaceAlt: "#1e293b", FocusBg: "#283548",
		SelectionBg: "#0284c7", SelectionText: "#f8fafc",
		Border: "#334155", BorderFocus: "#38bdf8",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b", Accent: "#38bdf8",
		Success: "#22c55e", Warning: "#f59e0b", Danger: "#ef4444", Info: "#06b6d4",
	}),
}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range themeList {
		if t.Name == name {
			return t
		}
	}
	return themeList[0]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, t := range themeList {
		if t.Name == current {
			return themeList[(i+1)%len(themeList)].Name
		}
	}
	return themeList[0].Name
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeList))
	for i, t := range themeList {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles of one theme, optionally pinned to a
// background color.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header      lipgloss.Style
	Logo        lipgloss.Style
	// Selected keeps the selection background under WithBackground.
	Selected    lipgloss.Style
	TableHeader lipgloss.Style
	Highlight   lipgloss.Style
	ChartY0     lipgloss.Style

	theme Theme
}

// Styles builds the theme's styles on their natural backgrounds.
func (t Theme) Styles() Styles { return t.styles("") }

// WithBackground rebuilds the styles with every style on bgColor, so text
// never falls back to the terminal background.
func (s Styles) WithBackground(bgColor string) Styles { return s.theme.styles(bgColor) }

func (t Theme) styles(bg string) Styles {
	on := func(natural string) lipgloss.Style {
		st := lipgloss.NewStyle()
		switch {
		case bg != "":
			st = st.Background(lipgloss.Color(bg))
		case natural != "":
			st = st.Background(lipgloss.Color(natural))
		}
		return st
	}
	fg := func(color string) lipgloss.Style {
		return on("").Foreground(lipgloss.Color(color))
	}

	return Styles{
		Background: on(t.Background),
		Surface:    on(t.Surface).Foreground(lipgloss.Color(t.Text)),
		SurfaceAlt: on(t.SurfaceAlt).Foreground(lipgloss.Color(t.Text)),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header:      on(t.Surface).Foreground(lipgloss.Color(t.Text)).Padding(0, 1),
		Logo:        fg(t.Warning).Bold(true),
		Selected:    lipgloss.NewStyle().Background(lipgloss.Color(t.SelectionBg)).Foreground(lipgloss.Color(t.SelectionText)),
		TableHeader: fg(t.Accent).Bold(true),
		Highlight:   fg(t.Warning).Bold(true),
		ChartY0:     fg(t.Accent),

		theme: t,
	}
}

// StatusStyle returns the badge style for a link status.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.theme.StatusColors[status]
	if !ok {
		color = s.theme.Muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}
