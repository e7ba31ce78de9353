package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/glance/internal/report"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// columnPicker lets the user hide and show the columns of one panel.
type columnPicker struct {
	panelID string
	columns []report.Column
	cursor  int
	hidden  func(key string) bool
	toggle  func(key string) error
	err     string
}

// columnsChangedMsg asks the model to re-render the panel after the picker
// closes.
type columnsChangedMsg struct{ panelID string }

func (c *columnPicker) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape), key.Matches(km, keys.Confirm), key.Matches(km, keys.Columns):
		id := c.panelID
		return c, func() tea.Msg { return columnsChangedMsg{panelID: id} }, true
	case key.Matches(km, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(km, keys.Down):
		if c.cursor < len(c.columns)-1 {
			c.cursor++
		}
	case key.Matches(km, keys.Toggle):
		if c.cursor < len(c.columns) {
			c.err = ""
			if err := c.toggle(c.columns[c.cursor].Key); err != nil {
				c.err = err.Error()
			}
		}
	}
	return c, nil, false
}

func (c *columnPicker) View(t Theme, width, height int) string {
	styles := t.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Columns"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, col := range c.columns {
		mark := "[x]"
		if c.hidden(col.Key) {
			mark = "[ ]"
		}
		line := mark + " " + truncate(col.Title(), 24)
		switch {
		case i == c.cursor:
			b.WriteString(styles.Selected.Render(padRight(line, 30)))
		default:
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	if c.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(truncate(c.err, 30)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("space toggle · enter done"))

	return overlay(t, b.String(), 40, width, height)
}

// overlay centers a bordered box on the screen.
func overlay(t Theme, content string, boxWidth, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Accent)).
		Padding(1, 2).
		Width(boxWidth).
		Render(content)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(t.Background)),
	)
}
