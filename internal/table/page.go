package table

type pageKind int

const (
	pageCurrent pageKind = iota
	pageFirst
	pageLast
	pageNumber
)

// PageRequest selects the page to render.
type PageRequest struct {
	kind pageKind
	n    int
}

var (
	// Current keeps the panel on the page it was last rendered at.
	Current = PageRequest{kind: pageCurrent}
	// First is page one.
	First = PageRequest{kind: pageFirst}
	// Last is the final page.
	Last = PageRequest{kind: pageLast}
)

// Page requests page n. Out of range values are clamped on render.
func Page(n int) PageRequest { return PageRequest{kind: pageNumber, n: n} }

// Resolve turns the request into a concrete page in [1, totalPages]. With no
// pages at all the result is 1.
func (r PageRequest) Resolve(current, totalPages int) int {
	if totalPages <= 0 {
		return 1
	}
	var n int
	switch r.kind {
	case pageFirst:
		n = 1
	case pageLast:
		n = totalPages
	case pageNumber:
		n = r.n
	default:
		n = current
	}
	return clamp(n, 1, totalPages)
}

// TotalPages is ceil(rows/perPage).
func TotalPages(rows, perPage int) int {
	if rows <= 0 || perPage <= 0 {
		return 0
	}
	return (rows + perPage - 1) / perPage
}

// Bounds returns the half-open slice range of the page's top-level rows.
func Bounds(page, perPage, rows int) (start, end int) {
	if perPage <= 0 || rows <= 0 {
		return 0, 0
	}
	start = (page - 1) * perPage
	if start < 0 {
		start = 0
	}
	if start > rows {
		start = rows
	}
	end = start + perPage
	if end > rows {
		end = rows
	}
	return start, end
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
