package table

import (
	"slices"

	"golang.org/x/text/language"

	"github.com/five82/glance/internal/format"
	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/report"
)

// DefaultPerPage is used when neither the schema nor preferences set a size.
const DefaultPerPage = 7

// Source supplies schema and data for valid panels only.
type Source interface {
	Panel(id string) (*report.Panel, bool)
	Data(id string) (report.PanelData, bool)
}

// Preferences is the subset of the preference store the pipeline reads and
// writes.
type Preferences interface {
	Get() prefs.Prefs
	Panel(id string) prefs.PanelPrefs
	SetHiddenColumns(panelID string, keys []string) error
}

// PanelState is the ephemeral view state of one panel. It survives snapshot
// replacement.
type PanelState struct {
	Page     int
	Sort     *report.Sort
	Expanded map[string]bool
}

// ExpandEvent reports a row expansion change.
type ExpandEvent struct {
	PanelID  string
	Key      string
	Expanded bool
	Children []report.Row
}

// Pipeline turns schema, data, panel state and preferences into Views. It is
// not safe for concurrent use; the UI drives it from its single event loop.
type Pipeline struct {
	source   Source
	prefs    Preferences
	sorter   *Sorter
	hl       *highlighter
	states   map[string]*PanelState
	onExpand func(ExpandEvent)
}

// New builds a pipeline collating strings in English.
func New(source Source, p Preferences) *Pipeline {
	return NewWithLanguage(source, p, language.English)
}

// NewWithLanguage builds a pipeline collating strings for tag.
func NewWithLanguage(source Source, p Preferences, tag language.Tag) *Pipeline {
	return &Pipeline{
		source: source,
		prefs:  p,
		sorter: NewSorter(tag),
		hl:     newHighlighter(),
		states: map[string]*PanelState{},
	}
}

// OnExpand registers the listener notified after a row is toggled.
func (p *Pipeline) OnExpand(fn func(ExpandEvent)) { p.onExpand = fn }

// State returns the panel state, creating it on first use.
func (p *Pipeline) State(panelID string) *PanelState {
	st, ok := p.states[panelID]
	if !ok {
		st = &PanelState{Expanded: map[string]bool{}}
		p.states[panelID] = st
	}
	return st
}

// ActiveSort is the sort override, else the schema default.
func (p *Pipeline) ActiveSort(panelID string) report.Sort {
	if st, ok := p.states[panelID]; ok && st.Sort != nil {
		return *st.Sort
	}
	if panel, ok := p.source.Panel(panelID); ok {
		return panel.Sort
	}
	return report.Sort{}
}

// PerPage is the page size for the panel.
func (p *Pipeline) PerPage(panel *report.Panel) int {
	if panel != nil && panel.PerPage > 0 {
		return panel.PerPage
	}
	if n := p.prefs.Get().PerPage; n > 0 {
		return n
	}
	return DefaultPerPage
}

// Rows returns the panel's top-level rows in current sort order.
func (p *Pipeline) Rows(panelID string) []report.Row {
	panel, ok := p.source.Panel(panelID)
	if !ok {
		return nil
	}
	data, ok := p.source.Data(panelID)
	if !ok {
		return nil
	}
	return p.sorted(panel, data.Data, p.ActiveSort(panelID))
}

func (p *Pipeline) sorted(panel *report.Panel, rows []report.Row, by report.Sort) []report.Row {
	numeric := false
	if col, ok := panel.Column(by.Field); ok {
		numeric = col.Numeric()
	}
	return p.sorter.Sort(rows, by, numeric)
}

// Render builds the view of one panel page. It reports false, without
// touching any state, when the panel is not valid.
func (p *Pipeline) Render(panelID string, req PageRequest) (View, bool) {
	panel, ok := p.source.Panel(panelID)
	if !ok {
		return View{}, false
	}
	data, ok := p.source.Data(panelID)
	if !ok {
		return View{}, false
	}

	st := p.State(panelID)
	pp := p.prefs.Panel(panelID)
	by := p.ActiveSort(panelID)
	rows := p.sorted(panel, data.Data, by)

	perPage := p.PerPage(panel)
	total := TotalPages(len(rows), perPage)
	page := req.Resolve(st.Page, total)
	st.Page = page

	columns := visibleColumns(panel, pp)
	view := View{
		PanelID:     panelID,
		Title:       panel.Title(),
		Desc:        panel.Desc,
		Headers:     headers(columns, by),
		Meta:        metaCells(columns, data.Metadata),
		Page:        page,
		TotalPages:  total,
		TotalRows:   len(rows),
		PerPage:     perPage,
		HasPrev:     page > 1,
		HasNext:     page < total,
		Sort:        by,
		HasSubItems: panel.HasSubItems(rows),
	}

	if len(rows) == 0 {
		view.Rows = []RowView{{Info: true, Cells: []Cell{{Text: NoDataText}}}}
		return view, true
	}

	start, end := Bounds(page, perPage, len(rows))
	for i, row := range rows[start:end] {
		key := row.Key()
		expanded := st.Expanded[key]
		view.Rows = append(view.Rows, RowView{
			Key:         key,
			Index:       start + i + 1,
			Cells:       p.cells(columns, row),
			HasChildren: row.HasChildren(),
			Expanded:    expanded,
		})
		if !expanded {
			continue
		}
		for j, child := range row.Children {
			view.Rows = append(view.Rows, RowView{
				Key:         child.Key(),
				ParentKey:   key,
				Index:       j + 1,
				Depth:       1,
				Cells:       p.cells(columns, child),
				HasChildren: child.HasChildren(),
			})
		}
	}
	return view, true
}

// ToggleRow flips the expansion of rowKey and re-renders the current page.
// Unknown keys can only be collapsed.
func (p *Pipeline) ToggleRow(panelID, rowKey string) (View, bool) {
	if _, ok := p.source.Panel(panelID); !ok {
		return View{}, false
	}
	st := p.State(panelID)

	var children []report.Row
	expanding := !st.Expanded[rowKey]
	if expanding {
		row, found := findRow(p.Rows(panelID), rowKey)
		if !found {
			return p.Render(panelID, Current)
		}
		children = row.Children
		st.Expanded[rowKey] = true
	} else {
		delete(st.Expanded, rowKey)
	}

	if p.onExpand != nil {
		p.onExpand(ExpandEvent{PanelID: panelID, Key: rowKey, Expanded: expanding, Children: children})
	}
	return p.Render(panelID, Current)
}

// Expanded reports whether rowKey is expanded in the panel.
func (p *Pipeline) Expanded(panelID, rowKey string) bool {
	st, ok := p.states[panelID]
	return ok && st.Expanded[rowKey]
}

// ExpandedKeys lists the expanded keys of the panel.
func (p *Pipeline) ExpandedKeys(panelID string) map[string]bool {
	out := map[string]bool{}
	if st, ok := p.states[panelID]; ok {
		for k := range st.Expanded {
			out[k] = true
		}
	}
	return out
}

// SetSort flips the direction when field is already active. Otherwise numeric
// columns start descending and text columns ascending. The panel returns to
// its first page.
func (p *Pipeline) SetSort(panelID, field string) (View, bool) {
	panel, ok := p.source.Panel(panelID)
	if !ok {
		return View{}, false
	}
	col, ok := panel.Column(field)
	if !ok {
		return p.Render(panelID, Current)
	}

	current := p.ActiveSort(panelID)
	var next report.Sort
	switch {
	case current.Field == field:
		next = current.Flip()
	case col.Numeric():
		next = report.Sort{Field: field, Order: report.Desc}
	default:
		next = report.Sort{Field: field, Order: report.Asc}
	}
	p.State(panelID).Sort = &next
	return p.Render(panelID, First)
}

// SetSortOrder sets field and direction explicitly.
func (p *Pipeline) SetSortOrder(panelID string, by report.Sort) (View, bool) {
	if _, ok := p.source.Panel(panelID); !ok {
		return View{}, false
	}
	s := by
	p.State(panelID).Sort = &s
	return p.Render(panelID, First)
}

// ToggleColumn hides or shows a column and persists the choice. The last
// visible column cannot be hidden.
func (p *Pipeline) ToggleColumn(panelID, key string) error {
	panel, ok := p.source.Panel(panelID)
	if !ok {
		return report.ErrUnknownPanel
	}
	if _, ok := panel.Column(key); !ok {
		return nil
	}
	hidden := slices.Clone(p.prefs.Panel(panelID).HiddenColumns)
	if i := slices.Index(hidden, key); i >= 0 {
		hidden = slices.Delete(hidden, i, i+1)
	} else {
		if len(visibleColumns(panel, p.prefs.Panel(panelID))) <= 1 {
			return nil
		}
		hidden = append(hidden, key)
	}
	return p.prefs.SetHiddenColumns(panelID, hidden)
}

func findRow(rows []report.Row, key string) (report.Row, bool) {
	for _, r := range rows {
		if r.Key() == key {
			return r, true
		}
	}
	return report.Row{}, false
}

func visibleColumns(panel *report.Panel, pp prefs.PanelPrefs) []report.Column {
	out := make([]report.Column, 0, len(panel.Columns))
	for _, c := range panel.Columns {
		if pp.ColumnHidden(c.Key) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func headers(columns []report.Column, by report.Sort) []Header {
	out := make([]Header, len(columns))
	for i, c := range columns {
		out[i] = Header{
			Key:        c.Key,
			Title:      c.Title(),
			DataType:   c.Type(),
			Numeric:    c.Numeric(),
			Sorted:     c.Key == by.Field,
			Descending: c.Key == by.Field && by.Descending(),
		}
	}
	return out
}

func metaCells(columns []report.Column, meta map[string]report.Meta) []Cell {
	var out []Cell
	found := false
	for _, c := range columns {
		cell := Cell{Key: c.Key, Label: c.MetaLabel}
		if c.Meta != "" {
			if v, ok := meta[c.Key].Get(c.Meta); ok {
				dataType := c.MetaType
				if dataType == "" {
					dataType = c.Type()
				}
				cell.Text = format.Value(v, dataType)
				found = true
			}
		}
		out = append(out, cell)
	}
	if !found {
		return nil
	}
	return out
}

func (p *Pipeline) cells(columns []report.Column, row report.Row) []Cell {
	out := make([]Cell, len(columns))
	for i, c := range columns {
		v := row.Value(c.Key)
		cell := Cell{Key: c.Key, Text: format.Value(v, c.Type())}
		if pct, ok := v.Percent(); ok {
			cell.Percent = format.Percent(pct)
		}
		if len(c.Highlight) > 0 {
			cell.Text, cell.Highlight = p.hl.apply(c.Highlight, cell.Text)
		}
		out[i] = cell
	}
	return out
}
