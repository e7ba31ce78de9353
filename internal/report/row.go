package report

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// LabelColumn is the column holding a row's primary label.
const LabelColumn = "data"

// Row is one record of a panel. Children come from the nested "items" list and
// share the same shape.
type Row struct {
	Columns  map[string]Value
	Children []Row
}

// Value returns the cell for key, or an empty value when absent.
func (r Row) Value(key string) Value {
	if r.Columns == nil {
		return Value{}
	}
	return r.Columns[key]
}

// Label returns the primary label of the row.
func (r Row) Label() string {
	return r.Value(LabelColumn).Text()
}

// Key is the expansion identity of the row: a hash of its primary label.
// Distinct rows with the same label share a key.
func (r Row) Key() string {
	return KeyOf(r.Label())
}

// KeyOf hashes a label into an expansion key.
func KeyOf(label string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(label))
}

// HasChildren reports whether the row carries nested items.
func (r Row) HasChildren() bool { return len(r.Children) > 0 }

// UnmarshalJSON splits the record into column values and nested items. Cells
// that fail to decode are dropped so one odd value cannot sink the snapshot.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}

	r.Columns = make(map[string]Value, len(raw))
	r.Children = nil
	for key, msg := range raw {
		if key == "items" {
			var children []Row
			if err := json.Unmarshal(msg, &children); err != nil {
				return fmt.Errorf("decode row items: %w", err)
			}
			r.Children = children
			continue
		}
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			continue
		}
		r.Columns[key] = v
	}
	return nil
}

// MarshalJSON writes the row back in snapshot form.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Columns)+1)
	for k, v := range r.Columns {
		out[k] = v
	}
	if len(r.Children) > 0 {
		out["items"] = r.Children
	}
	return json.Marshal(out)
}

// NewRow builds a row labelled label with the given cells and children.
func NewRow(label string, cols map[string]Value, children ...Row) Row {
	columns := make(map[string]Value, len(cols)+1)
	for k, v := range cols {
		columns[k] = v
	}
	columns[LabelColumn] = String(label)
	return Row{Columns: columns, Children: children}
}

// Flag is a boolean that also accepts the 0/1 integers used by the report
// generator.
type Flag bool

// UnmarshalJSON accepts true/false, 0/1 and "0"/"1".
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	switch s {
	case "", "null", "0", "false":
		*f = false
	case "1", "true":
		*f = true
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decode flag %q: %w", s, err)
		}
		*f = n != 0
	}
	return nil
}
