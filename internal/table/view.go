package table

import "github.com/five82/glance/internal/report"

// NoDataText is the body of an empty panel.
const NoDataText = "No data on this panel."

// Header is one visible column heading.
type Header struct {
	Key        string
	Title      string
	DataType   string
	Numeric    bool
	Sorted     bool
	Descending bool
}

// Cell is one formatted value.
type Cell struct {
	Key     string
	Text    string
	Percent string
	// Highlight is set when a highlight rule rewrote the text.
	Highlight bool
	// Label names the aggregate in the metadata row.
	Label string
}

// RowView is one display row. Children of expanded rows follow their parent
// with Depth 1.
type RowView struct {
	Key         string
	ParentKey   string
	Index       int
	Depth       int
	Cells       []Cell
	HasChildren bool
	Expanded    bool
	// Info marks the placeholder row of an empty panel; its single cell spans
	// every column.
	Info bool
}

// View is the display model of one panel page. Rendering the same View twice
// produces the same output.
type View struct {
	PanelID     string
	Title       string
	Desc        string
	Headers     []Header
	Meta        []Cell
	Rows        []RowView
	Page        int
	TotalPages  int
	TotalRows   int
	PerPage     int
	HasPrev     bool
	HasNext     bool
	Sort        report.Sort
	HasSubItems bool
}

// Empty reports whether the view carries only the placeholder row.
func (v View) Empty() bool {
	return len(v.Rows) == 1 && v.Rows[0].Info
}

// TopLevel returns the keys of the page's top-level rows in display order.
func (v View) TopLevel() []string {
	var out []string
	for _, r := range v.Rows {
		if r.Depth == 0 && !r.Info {
			out = append(out, r.Key)
		}
	}
	return out
}
