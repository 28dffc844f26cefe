package sparse

import "sort"

// IndexSet names a collection of row or column indices to delete, in one
// of three equivalent forms (spec.md 4.G "Delete semantics").
type IndexSet interface {
	// Indices returns the indices to delete, given the current dimension
	// n of the axis being deleted from.
	Indices(n int) []int
}

// Interval names the contiguous range [Lo, Hi] inclusive.
type Interval struct {
	Lo, Hi int
}

// Indices implements IndexSet.
func (iv Interval) Indices(n int) []int {
	lo, hi := iv.Lo, iv.Hi
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo > hi {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

// SortedSet names an explicit, ascending, duplicate-free set of indices.
type SortedSet []int

// Indices implements IndexSet.
func (s SortedSet) Indices(n int) []int {
	out := append([]int(nil), []int(s)...)
	sort.Ints(out)
	return out
}

// Mask is a boolean-style selection: a non-zero entry at position i marks
// index i for deletion. After a delete operation completes, the caller's
// Mask is overwritten in place with the old->new index map (kept indices
// get their new position, deleted indices get -1), per spec.md 4.G.
type Mask []int

// Indices implements IndexSet.
func (m *Mask) Indices(n int) []int {
	var out []int
	for i, v := range *m {
		if i >= n {
			break
		}
		if v != 0 {
			out = append(out, i)
		}
	}
	return out
}
