package report

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Meta holds the aggregates reported for one column, keyed by aggregate name
// (count, min, max, avg, total, value).
type Meta map[string]Value

// Get returns the named aggregate.
func (m Meta) Get(name string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m[name]
	return v, ok && !v.IsNone()
}

// PanelData is the snapshot entry for one panel.
type PanelData struct {
	Data     []Row           `json:"data"`
	Metadata map[string]Meta `json:"metadata,omitempty"`
}

// UnmarshalJSON decodes rows strictly and metadata leniently: a panel keeps its
// rows even when its aggregates are malformed.
func (p *PanelData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data     json.RawMessage `json:"data"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode panel data: %w", err)
	}
	*p = PanelData{}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, &p.Data); err != nil {
			return fmt.Errorf("decode panel rows: %w", err)
		}
	}
	if len(raw.Metadata) > 0 {
		var meta map[string]Meta
		if err := json.Unmarshal(raw.Metadata, &meta); err == nil {
			p.Metadata = meta
		}
	}
	return nil
}

// Snapshot is a full replacement data payload.
type Snapshot struct {
	Panels  map[string]PanelData
	Overall map[string]Value
	// Rejected lists panel ids whose entries failed to decode.
	Rejected []string
}

// Panel returns the data for id.
func (s *Snapshot) Panel(id string) (PanelData, bool) {
	if s == nil {
		return PanelData{}, false
	}
	p, ok := s.Panels[id]
	return p, ok
}

// IDs returns the panel ids present in the snapshot, sorted.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Panels))
	for id := range s.Panels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ParseSnapshot decodes a data snapshot document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	snap := &Snapshot{Panels: make(map[string]PanelData, len(raw))}
	for id, msg := range raw {
		if id == OverallID {
			var overall map[string]Value
			if err := json.Unmarshal(msg, &overall); err == nil {
				snap.Overall = overall
			}
			continue
		}
		var pd PanelData
		if err := json.Unmarshal(msg, &pd); err != nil {
			snap.Rejected = append(snap.Rejected, id)
			continue
		}
		snap.Panels[id] = pd
	}
	sort.Strings(snap.Rejected)
	return snap, nil
}

// Envelope is one decoded live message or report file. Schema and Prefs are
// nil unless the payload carried them.
type Envelope struct {
	Schema   *Schema
	Snapshot *Snapshot
	Prefs    map[string]any
}

// DecodeMessage decodes either a bare snapshot or the combined
// {"uiData", "panelData", "prefs"} form.
func DecodeMessage(data []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, fmt.Errorf("decode message: %w", err)
	}

	panelData, hasData := fields["panelData"]
	uiData, hasUI := fields["uiData"]
	if !hasData && !hasUI {
		snap, err := ParseSnapshot(data)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Snapshot: snap}, nil
	}

	var env Envelope
	if hasUI {
		schema, err := ParseSchema(uiData)
		if err != nil {
			return Envelope{}, err
		}
		env.Schema = schema
	}
	if hasData {
		snap, err := ParseSnapshot(panelData)
		if err != nil {
			return Envelope{}, err
		}
		env.Snapshot = snap
	}
	if raw, ok := fields["prefs"]; ok {
		var prefs map[string]any
		if err := json.Unmarshal(raw, &prefs); err == nil {
			env.Prefs = prefs
		}
	}
	return env, nil
}
