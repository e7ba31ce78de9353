package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/five82/glance/internal/chart"
	"github.com/five82/glance/internal/format"
	"github.com/five82/glance/internal/report"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// axisWidth is the label plus scale prefix of a sparkline row.
const axisWidth = 19

// ChartPainter draws series as plain text. Output depends only on the series
// and the width, so the synchronizer can cache frames.
type ChartPainter struct {
	// MaxBars caps bar charts; zero means ChartBars.
	MaxBars int
}

var _ chart.Painter = ChartPainter{}

// Paint implements chart.Painter.
func (p ChartPainter) Paint(s chart.Series, width int) string {
	if width < 10 {
		width = 10
	}
	if len(s.Points) == 0 {
		return "No data"
	}
	switch s.Kind {
	case report.ChartBar:
		return p.bars(s, width)
	default:
		return spark(s, width)
	}
}

func (p ChartPainter) bars(s chart.Series, width int) string {
	limit := p.MaxBars
	if limit <= 0 {
		limit = ChartBars
	}
	points := s.Points
	rest := 0
	if len(points) > limit {
		rest = len(points) - limit
		points = points[:limit]
	}

	max0, max1 := s.Max()
	labelW := 0
	valueW := 0
	values := make([]string, len(points))
	for i, pt := range points {
		labelW = max(labelW, cellWidth(pt.Label))
		values[i] = format.Axis(pt.Y0, s.Y0.Format)
		if s.Y1 != nil {
			values[i] += " / " + format.Axis(pt.Y1, s.Y1.Format)
		}
		valueW = max(valueW, cellWidth(values[i]))
	}
	labelW = min(labelW, width/3)
	barW := max(width-labelW-valueW-2, 1)

	var lines []string
	for i, pt := range points {
		n := scaled(pt.Y0, max0, barW)
		bar := strings.Repeat("█", n)
		if s.Y1 != nil && max1 > 0 {
			// Secondary metric shares the row as a lighter tail.
			tail := min(scaled(pt.Y1, max1, barW), barW-n)
			bar += strings.Repeat("░", max(tail, 0))
		}
		lines = append(lines, fit(pt.Label, labelW, false)+" "+padRight(bar, barW)+" "+padLeft(values[i], valueW))
	}
	if rest > 0 {
		lines = append(lines, fmt.Sprintf("… %d more", rest))
	}
	return strings.Join(lines, "\n")
}

func spark(s chart.Series, width int) string {
	points := s.Points
	// Keep the newest points when the series is wider than the frame.
	avail := max(width-axisWidth-2, 1)
	if len(points) > avail {
		points = points[len(points)-avail:]
	}
	max0, max1 := s.Max()

	var lines []string
	lines = append(lines, axisLine(s.Y0, max0)+"  "+sparkline(points, max0, func(p chart.Point) float64 { return p.Y0 }))
	if s.Y1 != nil {
		lines = append(lines, axisLine(*s.Y1, max1)+"  "+sparkline(points, max1, func(p chart.Point) float64 { return p.Y1 }))
	}
	first, last := points[0].Label, points[len(points)-1].Label
	span := first
	if last != first {
		span = first + " → " + last
	}
	lines = append(lines, truncate(span, width))
	return strings.Join(lines, "\n")
}

func axisLine(a report.Axis, top float64) string {
	label := a.Label
	if label == "" {
		label = a.Key
	}
	return fit(label, 10, false) + " " + fit(format.Axis(top, a.Format), 8, true)
}

func sparkline(points []chart.Point, top float64, value func(chart.Point) float64) string {
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if top > 0 {
			idx = int(math.Round(value(p) / top * float64(len(sparkLevels)-1)))
		}
		idx = min(max(idx, 0), len(sparkLevels)-1)
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

func scaled(v, top float64, width int) int {
	if top <= 0 || v <= 0 {
		return 0
	}
	n := int(math.Round(v / top * float64(width)))
	return min(max(n, 1), width)
}
