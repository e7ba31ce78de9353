package table

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/five82/glance/internal/report"
)

// Sorter orders rows by one column. Numbers compare arithmetically and come
// before strings, then empty values, in either direction; strings use
// locale-aware collation.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter builds a sorter collating strings for tag.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag)}
}

type sortKey struct {
	rank int // 0 number, 1 string, 2 empty
	num  float64
	str  string
}

func keyFor(v report.Value, numeric bool) sortKey {
	if n, ok := v.Number(); ok {
		return sortKey{rank: 0, num: n}
	}
	if v.IsNone() {
		return sortKey{rank: 2}
	}
	text := v.Text()
	if numeric {
		if n, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return sortKey{rank: 0, num: n}
		}
	}
	return sortKey{rank: 1, str: text}
}

// compare orders by rank first. Only the comparison within a rank follows
// the direction.
func (s *Sorter) compare(a, b sortKey, desc bool) int {
	if a.rank != b.rank {
		return a.rank - b.rank
	}
	c := 0
	switch a.rank {
	case 0:
		switch {
		case a.num < b.num:
			c = -1
		case a.num > b.num:
			c = 1
		}
	case 1:
		c = s.collator.CompareString(a.str, b.str)
	}
	if desc {
		return -c
	}
	return c
}

// Sort returns a sorted copy of rows. Each row's children are sorted the same
// way, independently of their parent's position. Rows sharing a key keep their
// relative order.
func (s *Sorter) Sort(rows []report.Row, by report.Sort, numeric bool) []report.Row {
	if len(rows) == 0 {
		return nil
	}
	out := make([]report.Row, len(rows))
	copy(out, rows)
	if by.Field == "" {
		return out
	}

	keys := make([]sortKey, len(out))
	for i, r := range out {
		keys[i] = keyFor(r.Value(by.Field), numeric)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	desc := by.Descending()
	sort.SliceStable(idx, func(i, j int) bool {
		return s.compare(keys[idx[i]], keys[idx[j]], desc) < 0
	})

	sorted := make([]report.Row, len(out))
	for i, k := range idx {
		row := out[k]
		if len(row.Children) > 0 {
			row.Children = s.Sort(row.Children, by, numeric)
		}
		sorted[i] = row
	}
	return sorted
}
