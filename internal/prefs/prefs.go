// Package prefs handles glance user preferences persistence.
package prefs

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/five82/glance/internal/logging"
)

const (
	defaultPerPage = 7
	defaultTheme   = "Nightfox"
	defaultLayout  = "horizontal"
)

// PerPageChoices are the page sizes offered by the UI.
var PerPageChoices = []int{3, 5, 7, 10, 15, 20, 24, 50, 100}

// Prefs is the typed view of the global preferences.
type Prefs struct {
	PerPage        int                   `json:"perPage"`
	Theme          string                `json:"theme"`
	Layout         string                `json:"layout"`
	PanelOrder     []string              `json:"panelOrder"`
	HiddenPanels   []string              `json:"hiddenPanels"`
	AutoHideTables bool                  `json:"autoHideTables"`
	Panels         map[string]PanelPrefs `json:"panels"`
}

// PanelPrefs holds per-panel preferences. Zero fields mean "use the schema".
type PanelPrefs struct {
	ChartType     string   `json:"chartType,omitempty"`
	Metric        string   `json:"metric,omitempty"`
	HiddenColumns []string `json:"hiddenColumns,omitempty"`
	ShowChart     *bool    `json:"showChart,omitempty"`
	ShowTable     *bool    `json:"showTable,omitempty"`
}

// ChartVisible reports whether the chart should be shown.
func (p PanelPrefs) ChartVisible() bool { return p.ShowChart == nil || *p.ShowChart }

// TableVisible reports whether the table should be shown.
func (p PanelPrefs) TableVisible() bool { return p.ShowTable == nil || *p.ShowTable }

// ColumnHidden reports whether key is in the hidden-column list.
func (p PanelPrefs) ColumnHidden(key string) bool {
	return slices.Contains(p.HiddenColumns, key)
}

// PanelHidden reports whether id is in the hidden-panel list.
func (p Prefs) PanelHidden(id string) bool {
	return slices.Contains(p.HiddenPanels, id)
}

// Defaults returns the built-in preference tree.
func Defaults() map[string]any {
	return map[string]any{
		KeyPerPage:        float64(defaultPerPage),
		KeyTheme:          defaultTheme,
		KeyLayout:         defaultLayout,
		KeyAutoHideTables: true,
	}
}

// Store is the merged, persisted preference tree. It is safe for concurrent
// use.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	server  map[string]any
	stored  map[string]any
	tree    map[string]any
}

// Open builds a store backed by storage. A nil storage keeps preferences in
// memory only. Unreadable storage degrades to defaults and is only logged.
func Open(storage Storage) *Store {
	s := &Store{storage: storage}
	if storage != nil {
		stored, err := storage.Load()
		if err != nil {
			logging.Warn("prefs", "stored preferences unavailable, using defaults: %v", err)
		} else {
			s.stored = stored
		}
	}
	s.rebuild()
	return s
}

func (s *Store) rebuild() {
	s.tree = Merge(Defaults(), s.server, s.stored)
}

// ApplyServerDefaults layers defaults supplied with the report beneath any
// stored values.
func (s *Store) ApplyServerDefaults(server map[string]any) {
	if len(server) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = Merge(s.server, normalizeTree(server))
	s.rebuild()
}

// Tree returns a deep copy of the merged tree, unknown keys included.
func (s *Store) Tree() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTree(s.tree)
}

// Lookup returns the raw value at p.
func (s *Store) Lookup(p Path) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := lookup(s.tree, p)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Get returns the typed global preferences. Fields that fail to decode fall
// back to their defaults individually.
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Prefs{
		PerPage:        defaultPerPage,
		Theme:          defaultTheme,
		Layout:         defaultLayout,
		AutoHideTables: true,
		Panels:         map[string]PanelPrefs{},
	}
	decodeField(s.tree, KeyPerPage, &p.PerPage)
	decodeField(s.tree, KeyTheme, &p.Theme)
	decodeField(s.tree, KeyLayout, &p.Layout)
	decodeField(s.tree, KeyPanelOrder, &p.PanelOrder)
	decodeField(s.tree, KeyHiddenPanels, &p.HiddenPanels)
	decodeField(s.tree, KeyAutoHideTables, &p.AutoHideTables)

	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if panels, ok := s.tree[KeyPanels].(map[string]any); ok {
		for id, raw := range panels {
			if obj, ok := raw.(map[string]any); ok {
				p.Panels[id] = decodePanel(obj)
			}
		}
	}
	return p
}

// Panel returns the typed preferences for one panel.
func (s *Store) Panel(id string) PanelPrefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := lookup(s.tree, Path{KeyPanels, id})
	if !ok {
		return PanelPrefs{}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return PanelPrefs{}
	}
	return decodePanel(obj)
}

// Set deep-assigns value at p in the stored layer and persists that layer.
// Defaults and server defaults stay beneath it, so paths the user never set
// keep following them. A storage failure keeps the change for this session
// and is only logged.
func (s *Store) Set(p Path, value any) error {
	if err := p.validate(); err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}

	s.mu.Lock()
	next := cloneTree(s.stored)
	if next == nil {
		next = map[string]any{}
	}
	assign(next, p, normalized)
	s.stored = next
	s.rebuild()
	next = cloneTree(next)
	storage := s.storage
	s.mu.Unlock()

	if storage != nil {
		if err := storage.Save(next); err != nil {
			logging.Error("prefs", err, "persist %s", p)
		}
	}
	return nil
}

// SetPerPage sets the global page size.
func (s *Store) SetPerPage(n int) error { return s.Set(Path{KeyPerPage}, n) }

// SetTheme sets the theme name.
func (s *Store) SetTheme(name string) error { return s.Set(Path{KeyTheme}, name) }

// SetLayout sets the layout name.
func (s *Store) SetLayout(name string) error { return s.Set(Path{KeyLayout}, name) }

// SetPanelOrder sets the navigation order.
func (s *Store) SetPanelOrder(ids []string) error { return s.Set(Path{KeyPanelOrder}, ids) }

// SetHiddenPanels sets the hidden panel list.
func (s *Store) SetHiddenPanels(ids []string) error { return s.Set(Path{KeyHiddenPanels}, ids) }

// SetAutoHideTables toggles hiding tables on narrow terminals.
func (s *Store) SetAutoHideTables(on bool) error { return s.Set(Path{KeyAutoHideTables}, on) }

// SetHiddenColumns sets the hidden columns of a panel.
func (s *Store) SetHiddenColumns(panelID string, keys []string) error {
	return s.Set(PanelPath(panelID, FieldHiddenColumns), keys)
}

// SetChartType sets the chart kind of a panel.
func (s *Store) SetChartType(panelID, kind string) error {
	return s.Set(PanelPath(panelID, FieldChartType), kind)
}

// SetMetric sets the plotted metric of a panel.
func (s *Store) SetMetric(panelID, metric string) error {
	return s.Set(PanelPath(panelID, FieldMetric), metric)
}

// SetChartVisible shows or hides a panel chart.
func (s *Store) SetChartVisible(panelID string, on bool) error {
	return s.Set(PanelPath(panelID, FieldShowChart), on)
}

// SetTableVisible shows or hides a panel table.
func (s *Store) SetTableVisible(panelID string, on bool) error {
	return s.Set(PanelPath(panelID, FieldShowTable), on)
}

func decodePanel(obj map[string]any) PanelPrefs {
	var pp PanelPrefs
	decodeField(obj, FieldChartType, &pp.ChartType)
	decodeField(obj, FieldMetric, &pp.Metric)
	decodeField(obj, FieldHiddenColumns, &pp.HiddenColumns)
	var show bool
	if decodeField(obj, FieldShowChart, &show) {
		v := show
		pp.ShowChart = &v
	}
	if decodeField(obj, FieldShowTable, &show) {
		v := show
		pp.ShowTable = &v
	}
	return pp
}

// decodeField decodes tree[key] into dst, leaving dst untouched on failure.
func decodeField(tree map[string]any, key string, dst any) bool {
	raw, ok := tree[key]
	if !ok || raw == nil {
		return false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// normalize converts any Go value into the generic JSON shape used by the
// tree (maps, slices, float64, string, bool, nil).
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeTree(tree map[string]any) map[string]any {
	v, err := normalize(tree)
	if err != nil {
		return cloneTree(tree)
	}
	obj, _ := v.(map[string]any)
	return obj
}
