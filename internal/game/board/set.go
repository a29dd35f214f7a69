package board

import "sort"

// Set is an unordered set of cell indices.
type Set map[int]struct{}

// NewSet builds a Set holding cells.
func NewSet(cells ...int) Set {
	s := make(Set, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts c.
func (s Set) Add(c int) { s[c] = struct{}{} }

// Has reports membership; a nil Set is empty.
func (s Set) Has(c int) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of cells.
func (s Set) Len() int { return len(s) }

// Sorted returns the cells in ascending order.
func (s Set) Sorted() []int {
	out := make([]int, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Union returns a new Set with the cells of s and o.
func (s Set) Union(o Set) Set {
	out := make(Set, len(s)+len(o))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

// Without returns a new Set with the given cells removed.
func (s Set) Without(cells ...int) Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	for _, c := range cells {
		delete(out, c)
	}
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set { return s.Without() }
