package prefs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for empty paths or paths with empty segments.
var ErrInvalidPath = errors.New("invalid preference path")

// Path addresses a value in the preference tree.
type Path []string

// Preference keys.
const (
	KeyPerPage        = "perPage"
	KeyTheme          = "theme"
	KeyLayout         = "layout"
	KeyPanelOrder     = "panelOrder"
	KeyHiddenPanels   = "hiddenPanels"
	KeyAutoHideTables = "autoHideTables"
	KeyPanels         = "panels"

	FieldChartType     = "chartType"
	FieldMetric        = "metric"
	FieldHiddenColumns = "hiddenColumns"
	FieldShowChart     = "showChart"
	FieldShowTable     = "showTable"
)

// ParsePath splits a dotted path such as "panels.hosts.metric".
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	p := Path(strings.Split(s, "."))
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// PanelPath addresses a per-panel field.
func PanelPath(panelID, field string) Path {
	return Path{KeyPanels, panelID, field}
}

// String renders the path in dotted form.
func (p Path) String() string { return strings.Join(p, ".") }

func (p Path) validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for i, seg := range p {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: segment %d of %q is empty", ErrInvalidPath, i, p.String())
		}
	}
	return nil
}

// lookup walks the tree along p.
func lookup(tree map[string]any, p Path) (any, bool) {
	var cur any = tree
	for _, seg := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign sets value at p, creating intermediate objects and replacing any
// non-object found on the way.
func assign(tree map[string]any, p Path, value any) {
	cur := tree
	for _, seg := range p[:len(p)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[p[len(p)-1]] = value
}
