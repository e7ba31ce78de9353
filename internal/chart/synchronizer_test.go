package chart

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/state"
	"github.com/five82/glance/internal/table"
)

type countingPainter struct{ calls int }

func (p *countingPainter) Paint(s Series, width int) string {
	p.calls++
	return fmt.Sprintf("%s/%s/%d/%d", s.Metric, s.Kind, len(s.Points), width)
}

type harness struct {
	reg     *state.Registry
	store   *prefs.Store
	table   *table.Pipeline
	sync    *Synchronizer
	painter *countingPainter
}

func requestsPanel(drill bool) report.Panel {
	return report.Panel{
		ID:   "requests",
		Sort: report.Sort{Field: "hits", Order: report.Desc},
		Columns: []report.Column{
			{Key: "hits", DataType: report.TypeNumeric},
			{Key: "bytes", DataType: report.TypeBytes},
			{Key: "data"},
		},
		Plots: []report.Plot{
			{ClassName: "hits", Label: "Hits", ChartType: report.ChartBar, RedrawOnExpand: report.Flag(drill),
				D3: report.Axes{Y0: report.Axis{Key: "hits"}}},
			{ClassName: "bytes", Label: "Bandwidth", RedrawOnExpand: report.Flag(drill),
				D3: report.Axes{Y0: report.Axis{Key: "bytes"}}},
		},
	}
}

func row(label string, n float64, children ...report.Row) report.Row {
	return report.NewRow(label, map[string]report.Value{
		"hits":  report.Counted(n, 1),
		"bytes": report.Number(n * 100),
	}, children...)
}

func requestRows() []report.Row {
	return []report.Row{
		row("a", 30, row("a1", 3), row("a2", 2)),
		row("b", 20, row("b1", 9)),
		row("c", 10),
	}
}

func newHarness(t *testing.T, panel report.Panel) *harness {
	t.Helper()
	h := &harness{reg: &state.Registry{}, store: prefs.Open(nil), painter: &countingPainter{}}
	h.reg.SetSchema(report.NewSchema(panel))
	h.reg.SetSnapshot(&report.Snapshot{Panels: map[string]report.PanelData{panel.ID: {Data: requestRows()}}})
	h.table = table.New(h.reg, h.store)
	h.sync = New(h.reg, h.table, h.store, h.painter)
	h.table.OnExpand(h.sync.HandleExpand)
	return h
}

func labels(s Series) []string { return s.Labels() }

func TestAddChartUsesRowsInTableOrder(t *testing.T) {
	h := newHarness(t, requestsPanel(false))

	s, ok := h.sync.AddChart("requests")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, labels(s))
	assert.Equal(t, []float64{30, 20, 10}, []float64{s.Points[0].Y0, s.Points[1].Y0, s.Points[2].Y0})
	assert.Equal(t, "hits", s.Metric)
	assert.Equal(t, report.ChartBar, s.Kind)
	assert.False(t, s.Drilled)
}

func TestAddChartReversesWhenAsked(t *testing.T) {
	panel := requestsPanel(false)
	panel.ChartReverse = true
	h := newHarness(t, panel)

	s, _ := h.sync.AddChart("requests")
	assert.Equal(t, []string{"c", "b", "a"}, labels(s))
}

func TestAddChartReplacesInstance(t *testing.T) {
	h := newHarness(t, requestsPanel(false))
	h.sync.AddChart("requests")
	_, _ = h.sync.Repaint("requests", 40)
	require.Equal(t, 1, h.painter.calls)

	h.sync.AddChart("requests")
	inst, ok := h.sync.Instance("requests")
	require.True(t, ok)
	assert.Equal(t, 1, inst.Paints, "fresh instance, painted once at the carried width")
	assert.Equal(t, 40, inst.Width)
}

func TestDrillDownConsistency(t *testing.T) {
	h := newHarness(t, requestsPanel(true))
	h.sync.AddChart("requests")
	h.table.Render("requests", table.First)

	h.table.ToggleRow("requests", report.KeyOf("a"))
	s, _ := h.sync.Series("requests")
	assert.True(t, s.Drilled)
	assert.Equal(t, []string{"a1", "a2"}, labels(s))

	h.table.ToggleRow("requests", report.KeyOf("b"))
	s, _ = h.sync.Series("requests")
	assert.Equal(t, []string{"a1", "a2", "b1"}, labels(s))

	h.table.ToggleRow("requests", report.KeyOf("a"))
	s, _ = h.sync.Series("requests")
	assert.Equal(t, []string{"b1"}, labels(s))

	h.table.ToggleRow("requests", report.KeyOf("b"))
	s, _ = h.sync.Series("requests")
	assert.False(t, s.Drilled)
	assert.Equal(t, []string{"a", "b", "c"}, labels(s))
}

func TestDrillFollowsTableOrderNotExpandOrder(t *testing.T) {
	h := newHarness(t, requestsPanel(true))
	h.sync.AddChart("requests")

	h.table.ToggleRow("requests", report.KeyOf("b"))
	h.table.ToggleRow("requests", report.KeyOf("a"))
	s, _ := h.sync.Series("requests")
	assert.Equal(t, []string{"a1", "a2", "b1"}, labels(s))

	h.table.SetSort("requests", "hits") // flip to ascending
	h.sync.Refresh("requests", true)
	s, _ = h.sync.Series("requests")
	assert.Equal(t, []string{"b1", "a2", "a1"}, labels(s))
}

func TestExpandIgnoredWithoutRedrawOnExpand(t *testing.T) {
	h := newHarness(t, requestsPanel(false))
	h.sync.AddChart("requests")

	h.table.ToggleRow("requests", report.KeyOf("a"))
	s, _ := h.sync.Series("requests")
	assert.False(t, s.Drilled)
	assert.Empty(t, h.sync.Drilled("requests"))
}

func TestDrillSurvivesTeardown(t *testing.T) {
	h := newHarness(t, requestsPanel(true))
	h.sync.AddChart("requests")
	h.table.ToggleRow("requests", report.KeyOf("a"))

	h.sync.TeardownAll()
	h.reg.SetSchema(report.NewSchema(requestsPanel(true)))
	require.True(t, h.sync.Refresh("requests", true))

	s, _ := h.sync.Series("requests")
	assert.True(t, s.Drilled)
	assert.Equal(t, []string{"a1", "a2"}, labels(s))
	assert.Equal(t, []string{report.KeyOf("a")}, h.sync.Drilled("requests"))
}

func TestMetricSwitchPicksUpEarlierExpansion(t *testing.T) {
	panel := requestsPanel(false)
	panel.Plots[1].RedrawOnExpand = true
	h := newHarness(t, panel)
	h.sync.AddChart("requests")

	h.table.ToggleRow("requests", report.KeyOf("a"))
	s, _ := h.sync.Series("requests")
	require.False(t, s.Drilled, "hits plot ignores drill-down")

	require.NoError(t, h.sync.SetMetric("requests", "bytes"))
	s, _ = h.sync.Series("requests")
	assert.True(t, s.Drilled)
	assert.Equal(t, []string{"a1", "a2"}, labels(s))
	assert.Equal(t, []float64{300, 200}, []float64{s.Points[0].Y0, s.Points[1].Y0})

	require.NoError(t, h.sync.SetMetric("requests", "hits"))
	s, _ = h.sync.Series("requests")
	assert.False(t, s.Drilled)
	assert.Equal(t, []string{"a", "b", "c"}, labels(s))
}

func TestDrilledRowMissingFromNewDataContributesNothing(t *testing.T) {
	h := newHarness(t, requestsPanel(true))
	h.sync.AddChart("requests")
	h.table.ToggleRow("requests", report.KeyOf("a"))
	h.table.ToggleRow("requests", report.KeyOf("b"))

	h.reg.SetSnapshot(&report.Snapshot{Panels: map[string]report.PanelData{
		"requests": {Data: []report.Row{row("b", 20, row("b1", 9), row("b2", 1))}},
	}})
	h.sync.Refresh("requests", true)

	s, _ := h.sync.Series("requests")
	assert.Equal(t, []string{"b1", "b2"}, labels(s))
	assert.Len(t, h.sync.Drilled("requests"), 2, "expansion of the missing row is kept")
}

func TestMetricAndTypeSwitching(t *testing.T) {
	h := newHarness(t, requestsPanel(false))
	h.sync.AddChart("requests")

	require.NoError(t, h.sync.SetMetric("requests", "bytes"))
	s, _ := h.sync.Series("requests")
	assert.Equal(t, "bytes", s.Metric)
	assert.Equal(t, 3000.0, s.Points[0].Y0)
	assert.Equal(t, "bytes", h.store.Panel("requests").Metric)
	assert.Equal(t, report.ChartArea, s.Kind)

	require.NoError(t, h.sync.NextType("requests"))
	s, _ = h.sync.Series("requests")
	assert.Equal(t, report.ChartBar, s.Kind)
	assert.Equal(t, report.ChartBar, h.store.Panel("requests").ChartType)

	require.NoError(t, h.sync.NextMetric("requests"))
	s, _ = h.sync.Series("requests")
	assert.Equal(t, "hits", s.Metric)

	err := h.sync.SetMetric("requests", "nope")
	assert.True(t, errors.Is(err, ErrUnknownMetric))
	err = h.sync.SetType("requests", "pie")
	assert.True(t, errors.Is(err, ErrUnknownKind))
	err = h.sync.SetMetric("ghost", "hits")
	assert.True(t, errors.Is(err, report.ErrUnknownPanel))
}

func TestRefreshOffScreenOnlyMarksDirty(t *testing.T) {
	h := newHarness(t, requestsPanel(false))
	h.sync.AddChart("requests")
	h.sync.Repaint("requests", 50)
	require.Equal(t, 1, h.painter.calls)

	h.sync.Refresh("requests", false)
	inst, _ := h.sync.Instance("requests")
	assert.True(t, inst.Dirty)
	assert.Equal(t, 1, h.painter.calls)

	frame, ok := h.sync.Repaint("requests", 50)
	require.True(t, ok)
	assert.Equal(t, "hits/bar/3/50", frame)
	assert.Equal(t, 2, h.painter.calls)

	_, _ = h.sync.Repaint("requests", 50)
	assert.Equal(t, 2, h.painter.calls, "clean frame is reused")

	h.sync.Refresh("requests", true)
	assert.Equal(t, 3, h.painter.calls)
}

func TestChartSkipsInvalidPanels(t *testing.T) {
	h := newHarness(t, requestsPanel(false))
	h.reg.SetSnapshot(&report.Snapshot{Panels: map[string]report.PanelData{}})

	_, ok := h.sync.AddChart("requests")
	assert.False(t, ok)
	assert.False(t, h.sync.Refresh("requests", true))
	_, ok = h.sync.Repaint("requests", 10)
	assert.False(t, ok)
}
