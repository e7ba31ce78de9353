package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Panels", "Rows", "Pages", "Columns", "Charts", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	groups := m.keys.FullHelp()
	var columns []string
	for i, group := range groups {
		var col strings.Builder
		if i < len(helpTitles) {
			col.WriteString(styles.AccentText.Bold(true).Render(helpTitles[i]))
			col.WriteString("\n")
		}
		for _, binding := range group {
			h := binding.Help()
			col.WriteString(keyStyle.Render(h.Key))
			col.WriteString(styles.Text.Render(h.Desc))
			col.WriteString("\n")
		}
		columns = append(columns, lipgloss.NewStyle().Width(34).Render(col.String()))
	}

	// Two columns when there is room, one otherwise.
	if m.width >= 80 {
		var rows []string
		for i := 0; i < len(columns); i += 2 {
			pair := []string{columns[i]}
			if i+1 < len(columns) {
				pair = append(pair, columns[i+1])
			}
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, pair...))
		}
		b.WriteString(strings.Join(rows, "\n"))
		return overlay(m.theme, b.String(), 74, m.width, m.height)
	}
	b.WriteString(strings.Join(columns, "\n"))
	return overlay(m.theme, b.String(), 40, m.width, m.height)
}
