package state

import (
	"sync"
	"time"

	"github.com/five82/glance/internal/report"
)

// Link is the outward view of the live channel. Raw transport errors never
// reach it; Detail carries a short human message at most.
type Link struct {
	Status  string
	Retries int
	Since   time.Time
	Detail  string
}

// Registry holds the current schema and snapshot. Both are replaced wholesale;
// readers always see a complete pair.
type Registry struct {
	mu       sync.RWMutex
	schema   *report.Schema
	snapshot *report.Snapshot
	version  uint64
	updated  time.Time
	pending  bool
	link     Link
}

// SetSchema replaces the UI schema.
func (r *Registry) SetSchema(s *report.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schema = s
}

// SetSnapshot replaces the data snapshot and marks an update pending. It
// returns the new snapshot version.
func (r *Registry) SetSnapshot(s *report.Snapshot) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = s
	r.version++
	r.updated = time.Now()
	r.pending = true
	return r.version
}

// Schema returns the current schema, possibly nil.
func (r *Registry) Schema() *report.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schema
}

// Snapshot returns the current snapshot, possibly nil.
func (r *Registry) Snapshot() *report.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Version counts snapshot replacements.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Updated reports when the last snapshot arrived.
func (r *Registry) Updated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updated
}

// Valid reports whether id names a panel present in both schema and snapshot.
func (r *Registry) Valid(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validLocked(id)
}

func (r *Registry) validLocked(id string) bool {
	if id == "" || id == report.OverallID {
		return false
	}
	p, ok := r.schema.Panel(id)
	if !ok || p.ID == "" {
		return false
	}
	_, ok = r.snapshot.Panel(id)
	return ok
}

// Panel returns the schema entry for a valid panel.
func (r *Registry) Panel(id string) (*report.Panel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.validLocked(id) {
		return nil, false
	}
	return r.schema.Panel(id)
}

// Data returns the snapshot entry for a valid panel.
func (r *Registry) Data(id string) (report.PanelData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.validLocked(id) {
		return report.PanelData{}, false
	}
	return r.snapshot.Panel(id)
}

// ValidPanels lists valid panel ids in schema order.
func (r *Registry) ValidPanels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, id := range r.schema.IDs() {
		if r.validLocked(id) {
			out = append(out, id)
		}
	}
	return out
}

// Overall returns the overall stats definition and values when both exist.
func (r *Registry) Overall() (*report.Overall, map[string]report.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.schema == nil || r.schema.Overall == nil || r.snapshot == nil || r.snapshot.Overall == nil {
		return nil, nil, false
	}
	return r.schema.Overall, r.snapshot.Overall, true
}

// TakePending reports whether a snapshot arrived since the last call and
// clears the flag.
func (r *Registry) TakePending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pending
	r.pending = false
	return p
}

// Pending reports whether a snapshot arrived that has not been rendered.
func (r *Registry) Pending() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending
}

// SetLink records the channel status. Since is stamped when the status
// changes.
func (r *Registry) SetLink(l Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.Since.IsZero() {
		if l.Status == r.link.Status && !r.link.Since.IsZero() {
			l.Since = r.link.Since
		} else {
			l.Since = time.Now()
		}
	}
	r.link = l
}

// Link returns the last recorded channel status.
func (r *Registry) Link() Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.link
}
