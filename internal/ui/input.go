package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/table"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := m.prefs.SetTheme(m.theme.Name); err != nil {
			return m, m.failed("save theme", err)
		}
		m.syncContent()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLayout):
		next := LayoutVertical
		if m.prefs.Get().Layout == LayoutVertical {
			next = LayoutHorizontal
		}
		if err := m.prefs.SetLayout(next); err != nil {
			return m, m.failed("save layout", err)
		}
		m.syncContent()
		return m, nil

	case key.Matches(msg, m.keys.NextPanel):
		m.selectPanel(m.current + 1)
		return m, nil

	case key.Matches(msg, m.keys.PrevPanel):
		m.selectPanel(m.current - 1)
		return m, nil

	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()
		return m, nil

	case key.Matches(msg, m.keys.ShowAllPanels):
		if err := m.prefs.SetHiddenPanels(nil); err != nil {
			return m, m.failed("show panels", err)
		}
		m.rebuildNav()
		m.render(table.Current)
		return m, nil

	case key.Matches(msg, m.keys.AutoHideTables):
		on := !m.prefs.Get().AutoHideTables
		if err := m.prefs.SetAutoHideTables(on); err != nil {
			return m, m.failed("save auto-hide", err)
		}
		m.syncContent()
		return m, m.setFlash(fmt.Sprintf("auto-hide tables %s", onOff(on)))
	}

	id := m.currentID()
	if id == "" {
		return m, nil
	}
	return m.handlePanelKey(msg, id)
}

// handlePanelKey processes keys that act on the current panel.
func (m Model) handlePanelKey(msg tea.KeyMsg, id string) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Expand):
		row, ok := m.selectedRow()
		if !ok || row.Depth > 0 || !(row.HasChildren || row.Expanded) {
			return m, nil
		}
		m.view, m.hasView = m.pipeline.ToggleRow(id, row.Key)
		m.clampCursor()
		m.syncContent()

	case key.Matches(msg, m.keys.NextPage):
		m.turnPage(table.Page(m.view.Page + 1))

	case key.Matches(msg, m.keys.PrevPage):
		m.turnPage(table.Page(m.view.Page - 1))

	case key.Matches(msg, m.keys.FirstPage):
		m.turnPage(table.First)

	case key.Matches(msg, m.keys.LastPage):
		m.turnPage(table.Last)

	case key.Matches(msg, m.keys.MorePer), key.Matches(msg, m.keys.FewerPer):
		delta := 1
		if key.Matches(msg, m.keys.FewerPer) {
			delta = -1
		}
		n := stepPerPage(m.view.PerPage, delta)
		if err := m.prefs.SetPerPage(n); err != nil {
			return m, m.failed("save page size", err)
		}
		m.render(table.Current)
		return m, m.setFlash(fmt.Sprintf("%d per page", n))

	case key.Matches(msg, m.keys.ColLeft):
		m.cursor.Column = max(m.cursor.Column-1, 0)
		m.syncContent()

	case key.Matches(msg, m.keys.ColRight):
		m.cursor.Column = min(m.cursor.Column+1, max(len(m.view.Headers)-1, 0))
		m.syncContent()

	case key.Matches(msg, m.keys.Sort):
		if m.cursor.Column >= len(m.view.Headers) {
			return m, nil
		}
		m.view, m.hasView = m.pipeline.SetSort(id, m.view.Headers[m.cursor.Column].Key)
		m.cursor.Row = 0
		// Chart points follow table order.
		m.charts.Refresh(id, true)
		m.syncContent()

	case key.Matches(msg, m.keys.Columns):
		panel, ok := m.registry.Panel(id)
		if !ok || len(panel.Columns) == 0 {
			return m, nil
		}
		store, pipeline := m.prefs, m.pipeline
		m.modal = &columnPicker{
			panelID: id,
			columns: panel.Columns,
			hidden:  func(k string) bool { return store.Panel(id).ColumnHidden(k) },
			toggle:  func(k string) error { return pipeline.ToggleColumn(id, k) },
		}

	case key.Matches(msg, m.keys.NextMetric):
		if err := m.charts.NextMetric(id); err != nil {
			return m, m.failed("switch metric", err)
		}
		m.syncContent()

	case key.Matches(msg, m.keys.NextKind):
		if err := m.charts.NextType(id); err != nil {
			return m, m.failed("switch chart type", err)
		}
		m.syncContent()

	case key.Matches(msg, m.keys.ToggleChart):
		if err := m.prefs.SetChartVisible(id, !m.prefs.Panel(id).ChartVisible()); err != nil {
			return m, m.failed("toggle chart", err)
		}
		m.syncContent()

	case key.Matches(msg, m.keys.ToggleTable):
		if err := m.prefs.SetTableVisible(id, !m.prefs.Panel(id).TableVisible()); err != nil {
			return m, m.failed("toggle table", err)
		}
		m.syncContent()

	case key.Matches(msg, m.keys.MovePanelUp), key.Matches(msg, m.keys.MovePanelDown):
		delta := -1
		if key.Matches(msg, m.keys.MovePanelDown) {
			delta = 1
		}
		order, ok := movePanel(m.nav, id, delta)
		if !ok {
			return m, nil
		}
		if err := m.prefs.SetPanelOrder(order); err != nil {
			return m, m.failed("save panel order", err)
		}
		m.rebuildNav()
		m.syncContent()

	case key.Matches(msg, m.keys.HidePanel):
		if err := m.prefs.SetHiddenPanels(hidePanel(m.prefs.Get().HiddenPanels, id)); err != nil {
			return m, m.failed("hide panel", err)
		}
		m.rebuildNav()
		m.cursor = tableCursor{}
		m.render(table.Current)
		return m, m.setFlash("hidden " + m.panelTitle(id) + " (X restores)")

	case key.Matches(msg, m.keys.Yank):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if err := m.clipboard(rowText(row)); err != nil {
			return m, m.failed("copy", err)
		}
		return m, m.setFlash("copied row")
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if !m.hasView || m.view.Empty() {
		return
	}
	m.cursor.Row = min(max(m.cursor.Row+delta, 0), len(m.view.Rows)-1)
	m.syncContent()
}

func (m *Model) turnPage(req table.PageRequest) {
	m.cursor.Row = 0
	m.render(req)
}

func (m Model) selectedRow() (table.RowView, bool) {
	if !m.hasView || m.cursor.Row >= len(m.view.Rows) {
		return table.RowView{}, false
	}
	r := m.view.Rows[m.cursor.Row]
	if r.Info {
		return table.RowView{}, false
	}
	return r, true
}

// stepPerPage moves to the neighbouring page size choice.
func stepPerPage(current, delta int) int {
	choices := prefs.PerPageChoices
	i := slices.Index(choices, current)
	if i < 0 {
		i = slices.IndexFunc(choices, func(n int) bool { return n >= current })
		if i < 0 {
			i = len(choices) - 1
		}
		if delta > 0 && choices[i] > current {
			return choices[i]
		}
	}
	i = min(max(i+delta, 0), len(choices)-1)
	return choices[i]
}

func rowText(r table.RowView) string {
	parts := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\t")
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
