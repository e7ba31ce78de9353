package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/glance/internal/chart"
	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/state"
	"github.com/five82/glance/internal/table"
)

type fixture struct {
	reg    *state.Registry
	store  *prefs.Store
	charts *chart.Synchronizer
	copied []string
}

func hostsSchema() *report.Schema {
	return report.NewSchema(
		report.Panel{
			ID:      "hosts",
			Head:    "Hosts",
			PerPage: 3,
			Sort:    report.Sort{Field: "hits", Order: report.Desc},
			Columns: []report.Column{
				{Key: "hits", Label: "Hits", DataType: report.TypeNumeric},
				{Key: "data", Label: "Host"},
			},
			Plots: []report.Plot{
				{ClassName: "hits", Label: "Hits", ChartType: report.ChartBar, RedrawOnExpand: true,
					D3: report.Axes{X: report.Axis{Key: "data"}, Y0: report.Axis{Key: "hits", Label: "Hits"}}},
				{ClassName: "visitors", Label: "Visitors",
					D3: report.Axes{X: report.Axis{Key: "data"}, Y0: report.Axis{Key: "visitors", Label: "Visitors"}}},
			},
		},
		report.Panel{
			ID:   "requests",
			Head: "Requests",
			Columns: []report.Column{
				{Key: "hits", Label: "Hits", DataType: report.TypeNumeric},
				{Key: "data", Label: "Path"},
			},
		},
	)
}

func counts(hits, visitors float64) map[string]report.Value {
	return map[string]report.Value{
		"hits":     report.Counted(hits, hits/2),
		"visitors": report.Number(visitors),
	}
}

func hostsSnapshot(extra ...report.Row) *report.Snapshot {
	hosts := []report.Row{
		report.NewRow("10.0.0.1", counts(50, 5),
			report.NewRow("/a", counts(30, 3)),
			report.NewRow("/b", counts(20, 2)),
		),
		report.NewRow("10.0.0.2", counts(40, 4)),
		report.NewRow("10.0.0.3", counts(30, 3)),
		report.NewRow("10.0.0.4", counts(20, 2)),
	}
	hosts = append(hosts, extra...)
	return &report.Snapshot{Panels: map[string]report.PanelData{
		"hosts":    {Data: hosts},
		"requests": {Data: []report.Row{report.NewRow("/index", counts(9, 1))}},
	}}
}

func newModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	f := &fixture{reg: &state.Registry{}, store: prefs.Open(nil)}
	f.reg.SetSchema(hostsSchema())
	f.reg.SetSnapshot(hostsSnapshot())

	pipeline := table.New(f.reg, f.store)
	f.charts = chart.New(f.reg, pipeline, f.store, ChartPainter{})
	pipeline.OnExpand(f.charts.HandleExpand)

	m := New(Options{
		Registry: f.reg,
		Prefs:    f.store,
		Pipeline: pipeline,
		Charts:   f.charts,
		Source:   "report.json",
		Clipboard: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
		Now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, SnapshotMsg{SchemaChanged: true})
	return m, f
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(t, m, msg)
	}
	return m
}

func labels(v table.View) []string {
	var out []string
	for _, r := range v.Rows {
		out = append(out, r.Cells[1].Text)
	}
	return out
}

func TestModel_InitialRender(t *testing.T) {
	m, f := newModel(t)

	assert.Equal(t, []string{"hosts", "requests"}, m.nav)
	assert.Equal(t, "hosts", m.currentID())
	assert.False(t, f.reg.Pending())
	require.True(t, m.hasView)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, labels(m.view))
	assert.Equal(t, StatusOffline, m.link.Status)

	out := m.View()
	assert.Contains(t, out, "glance")
	assert.Contains(t, out, "Hosts")
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "page 1/2")
}

func TestModel_SnapshotWhileBlurredWaitsForFocus(t *testing.T) {
	m, f := newModel(t)

	m = update(t, m, tea.BlurMsg{})
	f.reg.SetSnapshot(hostsSnapshot(report.NewRow("10.0.0.9", counts(99, 9))))
	m = update(t, m, SnapshotMsg{})

	assert.True(t, f.reg.Pending(), "unfocused model must leave the snapshot pending")
	assert.Equal(t, 4, m.view.TotalRows)
	assert.Contains(t, m.renderCommandBar(), "paused")

	m = update(t, m, tea.FocusMsg{})
	assert.False(t, f.reg.Pending())
	assert.Equal(t, 5, m.view.TotalRows)
	assert.Equal(t, "10.0.0.9", labels(m.view)[0])
}

func TestModel_CommandBarKeepsStatusAtNarrowWidths(t *testing.T) {
	m, _ := newModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 48, Height: 40})
	m = update(t, m, tea.BlurMsg{})
	m.flash = "save preferences failed"

	bar := m.renderCommandBar()
	assert.NotContains(t, bar, "\n")
	assert.Contains(t, bar, "save preferences failed")
	assert.Contains(t, bar, "paused")
	assert.Contains(t, bar, m.theme.Name)
	assert.LessOrEqual(t, lipgloss.Width(bar), 48)

	m = update(t, m, tea.WindowSizeMsg{Width: 400, Height: 40})
	hint := m.keys.ShortHelp()[0].Help()
	assert.Contains(t, m.renderCommandBar(), hint.Key+":"+hint.Desc)
}

func TestModel_SchemaReloadKeepsChartDrilled(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "enter")
	require.True(t, m.view.Rows[0].Expanded)

	f.reg.SetSchema(hostsSchema())
	f.reg.SetSnapshot(hostsSnapshot())
	m = update(t, m, SnapshotMsg{SchemaChanged: true})

	assert.True(t, m.view.Rows[0].Expanded)
	series, ok := f.charts.Series("hosts")
	require.True(t, ok)
	assert.True(t, series.Drilled)
	assert.Equal(t, []string{"/a", "/b"}, series.Labels())
}

func TestModel_SnapshotKeepsExpansionAndPage(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "enter")
	require.True(t, m.view.Rows[0].Expanded)
	m = press(t, m, "n")
	require.Equal(t, 2, m.view.Page)

	f.reg.SetSnapshot(hostsSnapshot())
	m = update(t, m, SnapshotMsg{})
	assert.Equal(t, 2, m.view.Page)
	assert.True(t, m.pipeline.Expanded("hosts", report.KeyOf("10.0.0.1")))
}

func TestModel_ExpandRowDrillsChart(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "enter")
	require.True(t, m.view.Rows[0].Expanded)
	assert.Equal(t, []string{"10.0.0.1", "/a", "/b", "10.0.0.2", "10.0.0.3"}, labels(m.view))

	series, ok := f.charts.Series("hosts")
	require.True(t, ok)
	assert.True(t, series.Drilled)
	assert.Equal(t, []string{"/a", "/b"}, series.Labels())

	m = press(t, m, "enter")
	assert.False(t, m.view.Rows[0].Expanded)
	series, _ = f.charts.Series("hosts")
	assert.False(t, series.Drilled)
}

func TestModel_ExpandIgnoresLeafRows(t *testing.T) {
	m, _ := newModel(t)

	m = press(t, m, "j", "enter")
	assert.Equal(t, 1, m.cursor.Row)
	assert.Len(t, m.view.Rows, 3)
}

func TestModel_Paging(t *testing.T) {
	m, _ := newModel(t)

	m = press(t, m, "j", "n")
	assert.Equal(t, 2, m.view.Page)
	assert.Equal(t, 0, m.cursor.Row)
	assert.Equal(t, []string{"10.0.0.4"}, labels(m.view))

	m = press(t, m, "n")
	assert.Equal(t, 2, m.view.Page, "next past the end stays on the last page")

	m = press(t, m, "g")
	assert.Equal(t, 1, m.view.Page)
	m = press(t, m, "G")
	assert.Equal(t, 2, m.view.Page)
}

func TestModel_SortByCursorColumn(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, ">", "s")
	assert.Equal(t, "data", m.view.Sort.Field)
	assert.Equal(t, report.Asc, m.view.Sort.Order)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, labels(m.view))

	m = press(t, m, "s")
	assert.Equal(t, report.Desc, m.view.Sort.Order)
	assert.Equal(t, "10.0.0.4", labels(m.view)[0])

	series, _ := f.charts.Series("hosts")
	assert.Equal(t, "10.0.0.4", series.Points[0].Label, "chart follows table order")
}

func TestModel_PanelNavigationAndHiding(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "tab")
	assert.Equal(t, "requests", m.currentID())
	m = press(t, m, "tab")
	assert.Equal(t, "hosts", m.currentID())

	m = press(t, m, "J")
	assert.Equal(t, []string{"requests", "hosts"}, f.store.Get().PanelOrder)
	assert.Equal(t, []string{"requests", "hosts"}, m.nav)
	assert.Equal(t, "hosts", m.currentID())

	m = press(t, m, "x")
	assert.Equal(t, []string{"hosts"}, f.store.Get().HiddenPanels)
	assert.Equal(t, []string{"requests"}, m.nav)
	assert.Equal(t, "requests", m.currentID())
	assert.Contains(t, m.flash, "hidden Hosts")

	m = press(t, m, "X")
	assert.Empty(t, f.store.Get().HiddenPanels)
	assert.Len(t, m.nav, 2)
}

func TestModel_ChartSwitching(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "m")
	assert.Equal(t, "visitors", f.store.Panel("hosts").Metric)
	series, _ := f.charts.Series("hosts")
	assert.Equal(t, "visitors", series.Metric)

	m = press(t, m, "t")
	assert.NotEmpty(t, f.store.Panel("hosts").ChartType)

	_ = press(t, m, "v")
	assert.False(t, f.store.Panel("hosts").ChartVisible())
}

func TestModel_ColumnPicker(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "c")
	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "Columns")

	m = press(t, m, "space")
	assert.Equal(t, []string{"hits"}, f.store.Panel("hosts").HiddenColumns)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, m.modal)
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	require.Len(t, m.view.Headers, 1)
	assert.Equal(t, "data", m.view.Headers[0].Key)
}

func TestModel_YankCopiesRow(t *testing.T) {
	m, f := newModel(t)

	m = press(t, m, "j", "y")
	require.Len(t, f.copied, 1)
	assert.True(t, strings.HasSuffix(f.copied[0], "\t10.0.0.2"), f.copied[0])
	assert.Equal(t, "copied row", m.flash)

	m = update(t, m, flashClearMsg{id: m.flashID})
	assert.Empty(t, m.flash)
}

func TestModel_ThemeCyclePersists(t *testing.T) {
	m, f := newModel(t)
	start := m.theme.Name

	m = press(t, m, "T")
	assert.Equal(t, NextTheme(start), m.theme.Name)
	assert.Equal(t, m.theme.Name, f.store.Get().Theme)
}

func TestModel_LinkMsgUpdatesHeader(t *testing.T) {
	m, _ := newModel(t)

	m = update(t, m, LinkMsg{Status: "disconnected", Retries: 3})
	out := m.renderHeader()
	assert.Contains(t, out, "RECONNECTING")
	assert.Contains(t, out, "retry 3")
}

func TestModel_AutoHideTablesOnNarrowTerminal(t *testing.T) {
	m, _ := newModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})

	panel, ok := m.registry.Panel("hosts")
	require.True(t, ok)
	showChart, showTable := m.visibility(panel)
	assert.True(t, showChart)
	assert.False(t, showTable)
	assert.Equal(t, -1, m.cursorLine)

	m = press(t, m, "a")
	_, showTable = m.visibility(panel)
	assert.True(t, showTable)
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newModel(t)

	m = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, "j")
	assert.False(t, m.showHelp)
	assert.Equal(t, 0, m.cursor.Row, "closing help swallows the key")
}

func TestModel_WaitsWithoutSchema(t *testing.T) {
	reg := &state.Registry{}
	store := prefs.Open(nil)
	pipeline := table.New(reg, store)
	m := New(Options{
		Registry: reg,
		Prefs:    store,
		Pipeline: pipeline,
		Charts:   chart.New(reg, pipeline, store, ChartPainter{}),
		Live:     true,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = update(t, m, SnapshotMsg{SchemaChanged: true})

	assert.Empty(t, m.nav)
	assert.Contains(t, m.View(), "Waiting for report")
	m = press(t, m, "j", "enter", "n")
	assert.False(t, m.hasView)
}
