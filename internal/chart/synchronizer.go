package chart

import (
	"errors"
	"fmt"
	"slices"

	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/table"
)

var (
	// ErrUnknownMetric is returned when a panel has no plot of that name.
	ErrUnknownMetric = errors.New("unknown chart metric")
	// ErrUnknownKind is returned for chart kinds other than area-spline and bar.
	ErrUnknownKind = errors.New("unknown chart kind")
)

// Kinds lists the supported chart kinds in cycling order.
var Kinds = []string{report.ChartArea, report.ChartBar}

// PanelSource supplies valid panel descriptors.
type PanelSource interface {
	Panel(id string) (*report.Panel, bool)
}

// RowSource supplies a panel's top-level rows in table order and the keys
// of the rows the table has expanded.
type RowSource interface {
	Rows(panelID string) []report.Row
	ExpandedKeys(panelID string) map[string]bool
}

// Preferences is the subset of the preference store charts use.
type Preferences interface {
	Panel(id string) prefs.PanelPrefs
	SetMetric(panelID, metric string) error
	SetChartType(panelID, kind string) error
}

// Painter draws a series into a frame of the given width.
type Painter interface {
	Paint(s Series, width int) string
}

// Instance is the chart attached to one panel.
type Instance struct {
	Series Series
	Width  int
	Frame  string
	// Dirty is set when Series changed since Frame was painted.
	Dirty  bool
	Paints int
}

// Synchronizer keeps each panel's chart consistent with its table. It is not
// safe for concurrent use.
type Synchronizer struct {
	panels    PanelSource
	rows      RowSource
	prefs     Preferences
	painter   Painter
	instances map[string]*Instance
	widths    map[string]int
}

// New builds a synchronizer.
func New(panels PanelSource, rows RowSource, p Preferences, painter Painter) *Synchronizer {
	return &Synchronizer{
		panels:    panels,
		rows:      rows,
		prefs:     p,
		painter:   painter,
		instances: map[string]*Instance{},
		widths:    map[string]int{},
	}
}

// ActivePlot is the preferred metric when the panel defines it, else the
// panel's first plot.
func (s *Synchronizer) ActivePlot(panel *report.Panel) (report.Plot, bool) {
	if m := s.prefs.Panel(panel.ID).Metric; m != "" {
		if plot, ok := panel.Plot(m); ok {
			return plot, true
		}
	}
	return panel.DefaultPlot()
}

// Kind is the preferred chart kind, else the plot's, else the panel's.
func (s *Synchronizer) Kind(panel *report.Panel, plot report.Plot) string {
	if k := s.prefs.Panel(panel.ID).ChartType; slices.Contains(Kinds, k) {
		return k
	}
	if slices.Contains(Kinds, plot.ChartType) {
		return plot.ChartType
	}
	if slices.Contains(Kinds, panel.ChartType) {
		return panel.ChartType
	}
	return report.ChartArea
}

// AddChart replaces the panel's chart with a fresh instance built from the
// current rows. The previous instance is torn down first; its width carries
// over so the new chart paints at once when it had been on screen.
func (s *Synchronizer) AddChart(panelID string) (Series, bool) {
	return s.addChart(panelID, true)
}

func (s *Synchronizer) addChart(panelID string, paint bool) (Series, bool) {
	width := s.widths[panelID]
	s.Teardown(panelID)

	series, ok := s.build(panelID)
	if !ok {
		return Series{}, false
	}
	inst := &Instance{Series: series, Dirty: true}
	s.instances[panelID] = inst
	if paint && width > 0 {
		s.paint(panelID, inst, width)
	}
	return series, true
}

// Series returns the current series of a panel chart.
func (s *Synchronizer) Series(panelID string) (Series, bool) {
	inst, ok := s.instances[panelID]
	if !ok {
		return Series{}, false
	}
	return inst.Series, true
}

// Instance returns a copy of the panel's chart instance.
func (s *Synchronizer) Instance(panelID string) (Instance, bool) {
	inst, ok := s.instances[panelID]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// Refresh recomputes the series after a data update. Off-screen charts are
// only marked dirty; on-screen charts repaint at their last width.
func (s *Synchronizer) Refresh(panelID string, onScreen bool) bool {
	inst, ok := s.instances[panelID]
	if !ok {
		_, ok = s.addChart(panelID, onScreen)
		return ok
	}
	series, ok := s.build(panelID)
	if !ok {
		s.Teardown(panelID)
		return false
	}
	inst.Series = series
	inst.Dirty = true
	if onScreen && inst.Width > 0 {
		s.paint(panelID, inst, inst.Width)
	}
	return true
}

// Repaint draws the current series at width without recomputing it.
func (s *Synchronizer) Repaint(panelID string, width int) (string, bool) {
	inst, ok := s.instances[panelID]
	if !ok {
		return "", false
	}
	if !inst.Dirty && inst.Width == width && inst.Frame != "" {
		return inst.Frame, true
	}
	s.paint(panelID, inst, width)
	return inst.Frame, true
}

func (s *Synchronizer) paint(panelID string, inst *Instance, width int) {
	inst.Width = width
	s.widths[panelID] = width
	if s.painter != nil {
		inst.Frame = s.painter.Paint(inst.Series, width)
	}
	inst.Dirty = false
	inst.Paints++
}

// Teardown drops the panel's chart instance.
func (s *Synchronizer) Teardown(panelID string) {
	delete(s.instances, panelID)
}

// TeardownAll drops every instance. Drill-down survives because it is read
// from the table's expanded rows.
func (s *Synchronizer) TeardownAll() {
	s.instances = map[string]*Instance{}
	s.widths = map[string]int{}
}

// HandleExpand reacts to a table row toggle. Only plots flagged
// redrawOnExpand follow drill-down, so other plots are left alone.
func (s *Synchronizer) HandleExpand(e table.ExpandEvent) {
	panel, ok := s.panels.Panel(e.PanelID)
	if !ok {
		return
	}
	if plot, ok := s.ActivePlot(panel); !ok || !bool(plot.RedrawOnExpand) {
		return
	}
	s.Refresh(e.PanelID, true)
}

// Drilled lists the row keys whose children feed the panel's series. It is
// empty unless the active plot follows drill-down.
func (s *Synchronizer) Drilled(panelID string) []string {
	panel, ok := s.panels.Panel(panelID)
	if !ok {
		return nil
	}
	plot, ok := s.ActivePlot(panel)
	if !ok {
		return nil
	}
	var out []string
	for k := range s.drillKeys(panelID, plot) {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// drillKeys is the panel's drill cache: the table's expanded keys when the
// plot follows drill-down. Rows sharing a label share a key, so their
// children merge.
func (s *Synchronizer) drillKeys(panelID string, plot report.Plot) map[string]bool {
	if !bool(plot.RedrawOnExpand) {
		return nil
	}
	return s.rows.ExpandedKeys(panelID)
}

// SetMetric stores the metric preference and rebuilds the chart.
func (s *Synchronizer) SetMetric(panelID, metric string) error {
	panel, ok := s.panels.Panel(panelID)
	if !ok {
		return report.ErrUnknownPanel
	}
	if _, ok := panel.Plot(metric); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if err := s.prefs.SetMetric(panelID, metric); err != nil {
		return fmt.Errorf("save metric: %w", err)
	}
	s.AddChart(panelID)
	return nil
}

// SetType stores the chart kind preference and rebuilds the chart.
func (s *Synchronizer) SetType(panelID, kind string) error {
	if _, ok := s.panels.Panel(panelID); !ok {
		return report.ErrUnknownPanel
	}
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if err := s.prefs.SetChartType(panelID, kind); err != nil {
		return fmt.Errorf("save chart type: %w", err)
	}
	s.AddChart(panelID)
	return nil
}

// NextMetric switches to the plot after the active one.
func (s *Synchronizer) NextMetric(panelID string) error {
	panel, ok := s.panels.Panel(panelID)
	if !ok {
		return report.ErrUnknownPanel
	}
	if len(panel.Plots) == 0 {
		return nil
	}
	active, _ := s.ActivePlot(panel)
	i := slices.IndexFunc(panel.Plots, func(p report.Plot) bool { return p.ClassName == active.ClassName })
	next := panel.Plots[(i+1)%len(panel.Plots)]
	return s.SetMetric(panelID, next.ClassName)
}

// NextType cycles the chart kind.
func (s *Synchronizer) NextType(panelID string) error {
	panel, ok := s.panels.Panel(panelID)
	if !ok {
		return report.ErrUnknownPanel
	}
	plot, ok := s.ActivePlot(panel)
	if !ok {
		return nil
	}
	i := slices.Index(Kinds, s.Kind(panel, plot))
	return s.SetType(panelID, Kinds[(i+1)%len(Kinds)])
}

func (s *Synchronizer) build(panelID string) (Series, bool) {
	panel, ok := s.panels.Panel(panelID)
	if !ok {
		return Series{}, false
	}
	plot, ok := s.ActivePlot(panel)
	if !ok {
		return Series{}, false
	}

	rows := s.rows.Rows(panelID)
	series := Series{
		PanelID: panelID,
		Metric:  plot.ClassName,
		Title:   plot.Label,
		Kind:    s.Kind(panel, plot),
		X:       plot.D3.X,
		Y0:      plot.D3.Y0,
		Y1:      plot.D3.Y1,
	}

	if keys := s.drillKeys(panelID, plot); len(keys) > 0 {
		var drilled []report.Row
		for _, r := range rows {
			if keys[r.Key()] {
				drilled = append(drilled, r.Children...)
			}
		}
		series.Points = Extract(plot, drilled)
		series.Drilled = true
	} else {
		series.Points = Extract(plot, rows)
	}

	if plot.ChartReverse || panel.ChartReverse {
		series.Points = reversed(series.Points)
	}
	return series, true
}
