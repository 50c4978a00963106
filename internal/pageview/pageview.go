// Package pageview slices a full in-memory result set into numbered pages
// the way a catalog grid renders them. The view owns the complete filtered
// ordering, so page numbers stay meaningful while the user filters and sorts.
package pageview

import "sort"

// View holds the working set and the cursor into it.
type View[T any] struct {
	items   []T
	page    int
	perPage int
}

// Page is one rendered slice of the view plus the controls the client needs
// to draw the pager. Pages is nil when there is a single page or none, which
// the client reads as "draw no controls".
type Page[T any] struct {
	Number      int   `json:"page"`
	Items       []T   `json:"items"`
	Pages       []int `json:"pages,omitempty"`
	PrevEnabled bool  `json:"prevEnabled"`
	NextEnabled bool  `json:"nextEnabled"`
}

func New[T any](items []T, perPage int) *View[T] {
	if perPage < 1 {
		perPage = 1
	}
	return &View[T]{items: items, page: 1, perPage: perPage}
}

// Filter narrows the view to items keep reports true for and resets the
// cursor to the first page, since the old page number is meaningless against
// a new result set.
func (v *View[T]) Filter(keep func(T) bool) {
	kept := make([]T, 0, len(v.items))
	for _, it := range v.items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	v.items = kept
	v.page = 1
}

// Sort reorders the view in place. The result set is unchanged in size, so
// the cursor keeps its page number, clamped in case it was past the end.
func (v *View[T]) Sort(less func(a, b T) bool) {
	sort.SliceStable(v.items, func(i, j int) bool { return less(v.items[i], v.items[j]) })
	v.page = clamp(v.page, 1, v.PageCount())
}

// Goto moves the cursor, clamping out-of-range targets instead of failing.
func (v *View[T]) Goto(n int) {
	v.page = clamp(n, 1, v.PageCount())
}

func (v *View[T]) PageCount() int {
	if len(v.items) == 0 {
		return 1
	}
	return (len(v.items) + v.perPage - 1) / v.perPage
}

func (v *View[T]) Len() int { return len(v.items) }

// Current renders the page under the cursor.
func (v *View[T]) Current() Page[T] {
	count := v.PageCount()
	start := (v.page - 1) * v.perPage
	end := start + v.perPage
	if start > len(v.items) {
		start = len(v.items)
	}
	if end > len(v.items) {
		end = len(v.items)
	}

	p := Page[T]{
		Number:      v.page,
		Items:       v.items[start:end],
		PrevEnabled: v.page > 1,
		NextEnabled: v.page < count,
	}
	if count > 1 {
		p.Pages = make([]int, count)
		for i := range p.Pages {
			p.Pages[i] = i + 1
		}
	}
	return p
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
