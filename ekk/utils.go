package ekk

import "sort"

// expandSlice expands slice to length n filling with fillValue if slice
// is empty, or returns an error if it has some other length than n.
func expandSlice(n int, slice []float64, fillValue float64) ([]float64, error) {
	if len(slice) == n {
		return slice, nil
	}
	if len(slice) == 0 {
		out := make([]float64, n)
		for i := range out {
			out[i] = fillValue
		}
		return out, nil
	}
	return nil, newErrorMsg("expandSlice", "inconsistent slice length")
}

// nonzerosToCSR converts nonzeros into row-major CSR arrays with one
// Start entry per row (numRow+1 total), validating upper-triangularity
// when triangular is true (used for the Hessian).
func nonzerosToCSR(nz []Nonzero, numRow int, triangular bool) (start, index []int, value []float64, err error) {
	sorted := make([]Nonzero, len(nz))
	copy(sorted, nz)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	filtered := make([]Nonzero, 0, len(sorted))
	for _, n := range sorted {
		if n.Row < 0 || n.Col < 0 {
			return nil, nil, nil, newErrorMsg("nonzerosToCSR", "negative row or column index")
		}
		if triangular && n.Row > n.Col {
			return nil, nil, nil, newErrorMsg("nonzerosToCSR", "Hessian must be upper triangular")
		}
		if len(filtered) > 0 && filtered[len(filtered)-1].Row == n.Row && filtered[len(filtered)-1].Col == n.Col {
			filtered[len(filtered)-1].Val = n.Val
		} else {
			filtered = append(filtered, n)
		}
	}

	start = make([]int, numRow+1)
	index = make([]int, len(filtered))
	value = make([]float64, len(filtered))
	row := 0
	for i, n := range filtered {
		for row < n.Row {
			row++
			start[row] = i
		}
		index[i] = n.Col
		value[i] = n.Val
	}
	for row < numRow {
		row++
		start[row] = len(filtered)
	}
	return start, index, value, nil
}
