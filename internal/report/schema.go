package report

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrUnknownPanel is returned when a panel id is absent from the schema or the
// snapshot.
var ErrUnknownPanel = errors.New("unknown panel")

// OverallID is the schema and snapshot key of the overall stats section.
const OverallID = "general"

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort names a column and a direction.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Descending reports whether the sort runs high to low.
func (s Sort) Descending() bool { return strings.EqualFold(s.Order, Desc) }

// Flip returns the same sort in the opposite direction.
func (s Sort) Flip() Sort {
	if s.Descending() {
		return Sort{Field: s.Field, Order: Asc}
	}
	return Sort{Field: s.Field, Order: Desc}
}

// Data types understood by the formatter.
const (
	TypeNumeric = "numeric"
	TypeBytes   = "bytes"
	TypeUtime   = "utime"
	TypeDate    = "date"
	TypePercent = "percent"
	TypeSecs    = "secs"
	TypeString  = "string"
)

// HighlightRule rewrites string cells matching Pattern.
type HighlightRule struct {
	Pattern     string
	Replacement string
}

// HighlightRules is the decoded form of a column's hlregex. The report
// generator emits it either as an object or as a JSON string holding one.
type HighlightRules []HighlightRule

// UnmarshalJSON accepts a pattern→replacement object or a string encoding one.
func (h *HighlightRules) UnmarshalJSON(data []byte) error {
	*h = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return fmt.Errorf("decode hlregex: %w", err)
		}
		if strings.TrimSpace(inner) == "" {
			return nil
		}
		trimmed = []byte(inner)
	}
	var rules map[string]string
	if err := json.Unmarshal(trimmed, &rules); err != nil {
		return fmt.Errorf("decode hlregex: %w", err)
	}
	out := make(HighlightRules, 0, len(rules))
	for pattern, repl := range rules {
		out = append(out, HighlightRule{Pattern: pattern, Replacement: repl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	*h = out
	return nil
}

// Column describes one table column.
type Column struct {
	Key       string         `json:"key"`
	Label     string         `json:"label"`
	ClassName string         `json:"className"`
	ColWidth  string         `json:"colWidth"`
	DataType  string         `json:"dataType"`
	ValueType string         `json:"valueType"`
	Meta      string         `json:"meta"`
	MetaType  string         `json:"metaType"`
	MetaLabel string         `json:"metaLabel"`
	Highlight HighlightRules `json:"hlregex"`
}

// Type returns the formatting type, honouring the legacy valueType field.
func (c Column) Type() string {
	if c.DataType != "" {
		return c.DataType
	}
	if c.ValueType != "" {
		return c.ValueType
	}
	return TypeString
}

// Numeric reports whether the column holds numbers rather than text.
func (c Column) Numeric() bool {
	switch c.Type() {
	case TypeNumeric, TypeBytes, TypeUtime, TypePercent, TypeSecs:
		return true
	default:
		return false
	}
}

// Title is the header text for the column.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// Axis describes one chart axis.
type Axis struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format string `json:"format"`
}

// Axes groups the chart axes.
type Axes struct {
	X  Axis  `json:"x"`
	Y0 Axis  `json:"y0"`
	Y1 *Axis `json:"y1,omitempty"`
}

// Chart kinds.
const (
	ChartArea = "area-spline"
	ChartBar  = "bar"
)

// Plot is one selectable chart metric for a panel.
type Plot struct {
	ClassName      string `json:"className"`
	Label          string `json:"label"`
	ChartType      string `json:"chartType"`
	ChartReverse   Flag   `json:"chartReverse"`
	RedrawOnExpand Flag   `json:"redrawOnExpand"`
	D3             Axes   `json:"d3"`
}

// Panel is the schema entry for one report section.
type Panel struct {
	ID           string   `json:"id"`
	Head         string   `json:"head"`
	Desc         string   `json:"desc"`
	Sort         Sort     `json:"sort"`
	Columns      []Column `json:"items"`
	Plots        []Plot   `json:"plot"`
	ChartType    string   `json:"chartType"`
	ChartReverse Flag     `json:"chartReverse"`
	Table        *Flag    `json:"table"`
	HasMap       Flag     `json:"hasMap"`
	PerPage      int      `json:"perPage"`
}

// HasTable reports whether the panel renders a table. Panels without the
// field default to having one.
func (p *Panel) HasTable() bool {
	return p.Table == nil || bool(*p.Table)
}

// HasChart reports whether the panel defines any plot.
func (p *Panel) HasChart() bool { return len(p.Plots) > 0 }

// HasSubItems reports whether any row carries children.
func (p *Panel) HasSubItems(rows []Row) bool {
	for _, r := range rows {
		if r.HasChildren() {
			return true
		}
	}
	return false
}

// Column looks up a column by key.
func (p *Panel) Column(key string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Plot looks up a plot by its metric name.
func (p *Panel) Plot(metric string) (Plot, bool) {
	for _, pl := range p.Plots {
		if pl.ClassName == metric {
			return pl, true
		}
	}
	return Plot{}, false
}

// DefaultPlot returns the first plot defined for the panel.
func (p *Panel) DefaultPlot() (Plot, bool) {
	if len(p.Plots) == 0 {
		return Plot{}, false
	}
	return p.Plots[0], true
}

// Title is the header shown for the panel.
func (p *Panel) Title() string {
	if p.Head != "" {
		return p.Head
	}
	return p.ID
}

// OverallItem describes one figure of the overall stats strip.
type OverallItem struct {
	Key       string `json:"-"`
	Label     string `json:"label"`
	ClassName string `json:"className"`
	DataType  string `json:"dataType"`
	ValueType string `json:"valueType"`
}

// Type returns the formatting type of the item.
func (o OverallItem) Type() string {
	if o.DataType != "" {
		return o.DataType
	}
	if o.ValueType != "" {
		return o.ValueType
	}
	return TypeString
}

// Overall is the schema entry for the overall stats section.
type Overall struct {
	Head  string
	Items []OverallItem
}

// Schema is the ordered set of panel descriptors.
type Schema struct {
	order   []string
	panels  map[string]*Panel
	Overall *Overall
}

// NewSchema builds a schema from panels in the given order. Later duplicates
// replace earlier ones without moving them.
func NewSchema(panels ...Panel) *Schema {
	s := &Schema{panels: make(map[string]*Panel, len(panels))}
	for i := range panels {
		s.add(panels[i])
	}
	return s
}

func (s *Schema) add(p Panel) {
	if _, ok := s.panels[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	panel := p
	s.panels[p.ID] = &panel
}

// IDs returns panel ids in schema order.
func (s *Schema) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Panel returns the descriptor for id.
func (s *Schema) Panel(id string) (*Panel, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.panels[id]
	return p, ok
}

// Len returns the number of panels.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// ParseSchema decodes a UI schema document. Panel order follows the key order
// of the JSON object. Entries that do not decode as panels are skipped.
func ParseSchema(data []byte) (*Schema, error) {
	keys, raws, err := orderedObject(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	s := &Schema{panels: make(map[string]*Panel, len(keys))}
	for i, key := range keys {
		if key == OverallID {
			overall, err := parseOverall(raws[i])
			if err == nil {
				s.Overall = overall
			}
			continue
		}
		var p Panel
		if err := json.Unmarshal(raws[i], &p); err != nil {
			continue
		}
		if p.ID == "" {
			p.ID = key
		}
		if p.ID != key {
			continue
		}
		s.add(p)
	}
	return s, nil
}

func parseOverall(data []byte) (*Overall, error) {
	var raw struct {
		Head  string          `json:"head"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode overall: %w", err)
	}
	out := &Overall{Head: raw.Head}
	if len(raw.Items) == 0 {
		return out, nil
	}
	keys, raws, err := orderedObject(raw.Items)
	if err != nil {
		return nil, fmt.Errorf("decode overall items: %w", err)
	}
	for i, key := range keys {
		var item OverallItem
		if err := json.Unmarshal(raws[i], &item); err != nil {
			continue
		}
		item.Key = key
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// orderedObject splits a JSON object into its keys and raw values, keeping
// document order.
func orderedObject(data []byte) ([]string, []stdjson.RawMessage, error) {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	var raws []stdjson.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var raw stdjson.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		raws = append(raws, raw)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	return keys, raws, nil
}
