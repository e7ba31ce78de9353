package report

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindString
	KindCounted
)

// Value is a single cell of a data row. It is either a scalar (number or
// string) or a counted pair carrying a share of the panel total.
//
// JSON forms accepted:
//
//	4824825140
//	"Mozilla/5.0"
//	{"count": 14351, "percent": 5.79}
//	{"value": 118609}
type Value struct {
	kind    Kind
	num     float64
	str     string
	percent float64
}

// Number builds a numeric scalar.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String builds a string scalar.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Counted builds a count with its percentage of the panel total.
func Counted(count, percent float64) Value {
	return Value{kind: KindCounted, num: count, percent: percent}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v carries no value at all.
func (v Value) IsNone() bool { return v.kind == KindNone }

// Number extracts the numeric count of v. Counted values yield their count,
// numeric scalars their value; strings and empty values report false.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber, KindCounted:
		return v.num, true
	default:
		return 0, false
	}
}

// Percent returns the percentage of a counted value.
func (v Value) Percent() (float64, bool) {
	if v.kind != KindCounted {
		return 0, false
	}
	return v.percent, true
}

// Text renders v without any data-type formatting.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber, KindCounted:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	if v.kind == KindCounted {
		return fmt.Sprintf("%s (%.2f%%)", v.Text(), v.percent)
	}
	return v.Text()
}

// UnmarshalJSON decodes any of the accepted JSON forms. Unknown shapes decode
// to an empty value rather than failing the whole row.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*v = Value{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var obj struct {
			Count   json.RawMessage `json:"count"`
			Percent float64         `json:"percent"`
			Value   json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("decode value object: %w", err)
		}
		if len(obj.Count) > 0 {
			var count float64
			if err := json.Unmarshal(obj.Count, &count); err != nil {
				return fmt.Errorf("decode count: %w", err)
			}
			*v = Counted(count, obj.Percent)
			return nil
		}
		if len(obj.Value) > 0 {
			return v.UnmarshalJSON(obj.Value)
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("decode bool value: %w", err)
		}
		*v = String(strconv.FormatBool(b))
		return nil
	case '[':
		return nil
	default:
		n, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return fmt.Errorf("decode number value: %w", err)
		}
		*v = Number(n)
		return nil
	}
}

// MarshalJSON writes v back in the same shape it was read from.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindCounted:
		return json.Marshal(struct {
			Count   float64 `json:"count"`
			Percent float64 `json:"percent"`
		}{v.num, v.percent})
	default:
		return []byte("null"), nil
	}
}
