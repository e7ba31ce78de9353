package ui

import (
	"slices"

	"github.com/five82/glance/internal/prefs"
)

// NavOrder lists the panels to show: ids from the stored panel order first,
// then the remaining valid panels in schema order. Hidden panels and ids that
// are no longer valid are dropped.
func NavOrder(valid []string, p prefs.Prefs) []string {
	out := make([]string, 0, len(valid))
	seen := make(map[string]bool, len(valid))
	add := func(id string) {
		if seen[id] || !slices.Contains(valid, id) || p.PanelHidden(id) {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, id := range p.PanelOrder {
		add(id)
	}
	for _, id := range valid {
		add(id)
	}
	return out
}

// movePanel swaps id with the panel delta places away.
func movePanel(order []string, id string, delta int) ([]string, bool) {
	i := slices.Index(order, id)
	j := i + delta
	if i < 0 || j < 0 || j >= len(order) {
		return order, false
	}
	out := slices.Clone(order)
	out[i], out[j] = out[j], out[i]
	return out, true
}

// hidePanel appends id to the hidden list once.
func hidePanel(hidden []string, id string) []string {
	if slices.Contains(hidden, id) {
		return hidden
	}
	return append(slices.Clone(hidden), id)
}
