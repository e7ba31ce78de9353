package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/glance/internal/table"
)

const (
	// rowPrefixWidth holds the expand marker and the row index.
	rowPrefixWidth = 6
	minColumnWidth = 4
	columnGap      = 2
)

// tableCursor is where the selection sits inside a rendered page.
type tableCursor struct {
	Row    int // index into View.Rows
	Column int // index into View.Headers
}

// columnWidths sizes each visible column to its widest cell and shrinks the
// widest text columns until the table fits width.
func columnWidths(v table.View, width int) []int {
	widths := make([]int, len(v.Headers))
	for i, h := range v.Headers {
		widths[i] = cellWidth(h.Title) + 2
	}
	measure := func(cells []table.Cell) {
		for i, c := range cells {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], cellWidth(cellText(c)))
		}
	}
	measure(v.Meta)
	for _, r := range v.Rows {
		if !r.Info {
			measure(r.Cells)
		}
	}

	avail := width - rowPrefixWidth - columnGap*max(len(widths)-1, 0)
	for total(widths) > avail {
		i := widestText(v.Headers, widths)
		if i < 0 || widths[i] <= minColumnWidth {
			break
		}
		widths[i] = max(widths[i]-(total(widths)-avail), minColumnWidth)
	}
	return widths
}

func total(ws []int) int {
	n := 0
	for _, w := range ws {
		n += w
	}
	return n
}

// widestText picks the widest non-numeric column, falling back to the widest
// column overall.
func widestText(headers []table.Header, widths []int) int {
	best, bestAny := -1, -1
	for i, w := range widths {
		if w <= minColumnWidth {
			continue
		}
		if bestAny < 0 || w > widths[bestAny] {
			bestAny = i
		}
		if !headers[i].Numeric && (best < 0 || w > widths[best]) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	return bestAny
}

func cellText(c table.Cell) string {
	text := c.Text
	if c.Label != "" && text != "" {
		text = c.Label + " " + text
	}
	if c.Percent != "" {
		text += " " + c.Percent
	}
	return text
}

// renderTable draws one page of a panel. The output depends only on its
// arguments.
func renderTable(v table.View, s Styles, width int, cur tableCursor, active bool) string {
	widths := columnWidths(v, width)
	gap := strings.Repeat(" ", columnGap)
	var lines []string

	// Header
	heads := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		title := h.Title
		if h.Sorted {
			if h.Descending {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		style := s.TableHeader
		if active && i == cur.Column {
			style = style.Underline(true)
		}
		heads[i] = style.Render(fit(title, widths[i], h.Numeric))
	}
	lines = append(lines, strings.Repeat(" ", rowPrefixWidth)+strings.Join(heads, gap))

	// Metadata
	if len(v.Meta) > 0 {
		metas := make([]string, len(v.Headers))
		for i := range v.Headers {
			var text string
			if i < len(v.Meta) {
				text = cellText(v.Meta[i])
			}
			metas[i] = s.MutedText.Render(fit(text, widths[i], v.Headers[i].Numeric))
		}
		lines = append(lines, strings.Repeat(" ", rowPrefixWidth)+strings.Join(metas, gap))
	}

	for i, r := range v.Rows {
		if r.Info {
			lines = append(lines, s.MutedText.Render(truncate(r.Cells[0].Text, width)))
			continue
		}
		selected := active && i == cur.Row
		lines = append(lines, renderRow(r, v.Headers, widths, s, selected, width))
	}

	lines = append(lines, s.FaintText.Render(footer(v)))
	return strings.Join(lines, "\n")
}

func renderRow(r table.RowView, headers []table.Header, widths []int, s Styles, selected bool, width int) string {
	prefix := rowPrefix(r)
	cells := make([]string, len(headers))
	for i, h := range headers {
		var c table.Cell
		if i < len(r.Cells) {
			c = r.Cells[i]
		}
		text := fit(cellText(c), widths[i], h.Numeric)
		switch {
		case selected:
			cells[i] = text
		case c.Highlight:
			cells[i] = s.Highlight.Render(text)
		case r.Depth > 0:
			cells[i] = s.MutedText.Render(text)
		default:
			cells[i] = s.Text.Render(text)
		}
	}
	line := prefix + strings.Join(cells, strings.Repeat(" ", columnGap))
	if selected {
		return s.Selected.Width(width).Render(line)
	}
	return line
}

func rowPrefix(r table.RowView) string {
	if r.Depth > 0 {
		return padRight("   └", rowPrefixWidth)
	}
	marker := " "
	if r.HasChildren {
		marker = "▸"
		if r.Expanded {
			marker = "▾"
		}
	}
	return marker + padLeft(fmt.Sprintf("%d", r.Index), rowPrefixWidth-2) + " "
}

func footer(v table.View) string {
	parts := []string{fmt.Sprintf("page %d/%d", v.Page, v.TotalPages)}
	parts = append(parts, fmt.Sprintf("%d rows", v.TotalRows))
	parts = append(parts, fmt.Sprintf("%d per page", v.PerPage))
	if v.Sort.Field != "" {
		parts = append(parts, "sort "+v.Sort.Field+" "+strings.ToLower(v.Sort.Order))
	}
	return strings.Join(parts, " · ")
}

// titledBox renders content in a box with the title embedded in the top
// border: ┌─── Title ───┐. Focused boxes use the focus colors.
func titledBox(t Theme, title, content string, width, height int, focused bool) string {
	borderColor, bgColor := t.Border, t.SurfaceAlt
	if focused {
		borderColor, bgColor = t.BorderFocus, t.FocusBg
	}
	bg := newBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := cellWidth(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.render("┌"+strings.Repeat("─", leftPad), borderStyle) +
		bg.render(" "+title+" ", titleStyle) +
		bg.render(strings.Repeat("─", rightPad)+"┐", borderStyle)
	bottom := bg.render("└"+strings.Repeat("─", innerWidth)+"┘", borderStyle)

	contentStyle := lipgloss.NewStyle().
		Width(innerWidth).
		MaxWidth(innerWidth).
		Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 1)

	lines := make([]string, 0, boxHeight+2)
	lines = append(lines, top)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.render("│", borderStyle)+contentStyle.Render(line)+bg.render("│", borderStyle))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}
