package chart

import (
	"slices"

	"github.com/five82/glance/internal/format"
	"github.com/five82/glance/internal/report"
)

// Point is one x position of a series.
type Point struct {
	Label string
	Y0    float64
	Y1    float64
}

// Series is the flat data a chart paints.
type Series struct {
	PanelID string
	Metric  string
	Title   string
	Kind    string
	X       report.Axis
	Y0      report.Axis
	Y1      *report.Axis
	Points  []Point
	// Drilled is set when the points come from expanded rows' children.
	Drilled bool
}

// Max returns the largest value on each y axis.
func (s Series) Max() (y0, y1 float64) {
	for _, p := range s.Points {
		y0 = max(y0, p.Y0)
		y1 = max(y1, p.Y1)
	}
	return y0, y1
}

// Labels returns the x labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Extract reduces each row to its counts on the plot's axes. Percent data is
// dropped and missing values count as zero.
func Extract(plot report.Plot, rows []report.Row) []Point {
	xKey := plot.D3.X.Key
	if xKey == "" {
		xKey = report.LabelColumn
	}
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		p := Point{Label: format.Value(r.Value(xKey), plot.D3.X.Format)}
		p.Y0 = count(r.Value(plot.D3.Y0.Key))
		if plot.D3.Y1 != nil {
			p.Y1 = count(r.Value(plot.D3.Y1.Key))
		}
		out = append(out, p)
	}
	return out
}

func count(v report.Value) float64 {
	n, _ := v.Number()
	return n
}

func reversed(points []Point) []Point {
	out := slices.Clone(points)
	slices.Reverse(out)
	return out
}
