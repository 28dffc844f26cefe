package lp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ekksolve/ekk/internal/sparse"
)

// AddCols appends numNew columns with the given cost/bounds/kind and the
// column-wise coefficient block (numRow x numNew). Inputs are validated
// before any mutation (spec.md 4.G: "validate inputs, return error
// without side effects").
func (l *LP) AddCols(cost, lower, upper []float64, kind []VarKind, names []string, block *sparse.Matrix) error {
	n := len(cost)
	if len(lower) != n || len(upper) != n {
		return errors.New("lp: AddCols bound slices length mismatch")
	}
	if kind != nil && len(kind) != n {
		return errors.New("lp: AddCols kind slice length mismatch")
	}
	if names != nil && len(names) != n {
		return errors.New("lp: AddCols names slice length mismatch")
	}
	if block != nil && block.NumRow != l.NumRow {
		return errors.Errorf("lp: AddCols block has %d rows, want %d", block.NumRow, l.NumRow)
	}
	nl, nu, err := AssessBounds(lower, upper, math.Inf(1))
	if err != nil {
		return err
	}

	l.ColCost = append(l.ColCost, cost...)
	l.ColLower = append(l.ColLower, nl...)
	l.ColUpper = append(l.ColUpper, nu...)
	if kind == nil {
		kind = make([]VarKind, n)
	}
	l.ColKind = append(l.ColKind, kind...)
	if names == nil {
		names = make([]string, n)
	}
	l.ColNames = append(l.ColNames, names...)

	if block == nil {
		block = sparse.New(l.NumRow, n, sparse.ColWise)
	}
	if err := l.AMatrix.AddCols(block); err != nil {
		return err
	}
	l.NumCol += n
	return nil
}

// AddRows appends numNew rows with the given bounds and the row-wise
// coefficient block (numNew x numCol).
func (l *LP) AddRows(lower, upper []float64, names []string, block *sparse.Matrix) error {
	n := len(lower)
	if len(upper) != n {
		return errors.New("lp: AddRows bound slices length mismatch")
	}
	if names != nil && len(names) != n {
		return errors.New("lp: AddRows names slice length mismatch")
	}
	if block != nil && block.NumCol != l.NumCol {
		return errors.Errorf("lp: AddRows block has %d cols, want %d", block.NumCol, l.NumCol)
	}
	nl, nu, err := AssessBounds(lower, upper, math.Inf(1))
	if err != nil {
		return err
	}

	l.RowLower = append(l.RowLower, nl...)
	l.RowUpper = append(l.RowUpper, nu...)
	if names == nil {
		names = make([]string, n)
	}
	l.RowNames = append(l.RowNames, names...)

	if block == nil {
		block = sparse.New(n, l.NumCol, sparse.RowWise)
	}
	if err := l.AMatrix.AddRows(block); err != nil {
		return err
	}
	l.NumRow += n
	return nil
}

// DeleteCols removes the named columns from cost/bounds/kind/names and
// the constraint matrix. It does not look at the basis; the caller
// checks separately whether a deleted column is basic.
func (l *LP) DeleteCols(idx sparse.IndexSet) error {
	remapHolder, err := resolveRemap(idx, l.NumCol)
	if err != nil {
		return err
	}
	l.ColCost = filterByRemap(l.ColCost, remapHolder)
	l.ColLower = filterByRemap(l.ColLower, remapHolder)
	l.ColUpper = filterByRemap(l.ColUpper, remapHolder)
	l.ColKind = filterKindByRemap(l.ColKind, remapHolder)
	l.ColNames = filterStringByRemap(l.ColNames, remapHolder)
	if err := l.AMatrix.DeleteCols(idx); err != nil {
		return err
	}
	l.NumCol = countKeptRemap(remapHolder)
	return nil
}

// DeleteRows removes the named rows from bounds/names and the matrix.
func (l *LP) DeleteRows(idx sparse.IndexSet) error {
	remapHolder, err := resolveRemap(idx, l.NumRow)
	if err != nil {
		return err
	}
	l.RowLower = filterByRemap(l.RowLower, remapHolder)
	l.RowUpper = filterByRemap(l.RowUpper, remapHolder)
	l.RowNames = filterStringByRemap(l.RowNames, remapHolder)
	if err := l.AMatrix.DeleteRows(idx); err != nil {
		return err
	}
	l.NumRow = countKeptRemap(remapHolder)
	return nil
}

// resolveRemap computes the old->new index map without mutating idx; if
// idx is a *sparse.Mask the caller (Matrix.DeleteCols/Rows) overwrites it
// afterwards, so we compute independently here to filter the LP's own
// parallel arrays in lock-step.
func resolveRemap(idx sparse.IndexSet, n int) ([]int, error) {
	toDelete := idx.Indices(n)
	del := make([]bool, n)
	for _, i := range toDelete {
		if i < 0 || i >= n {
			return nil, errors.Errorf("lp: delete index %d out of range [0,%d)", i, n)
		}
		del[i] = true
	}
	remap := make([]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if del[i] {
			remap[i] = -1
			continue
		}
		remap[i] = next
		next++
	}
	return remap, nil
}

func countKeptRemap(remap []int) int {
	n := 0
	for _, v := range remap {
		if v >= 0 {
			n++
		}
	}
	return n
}

func filterByRemap(v []float64, remap []int) []float64 {
	out := make([]float64, 0, countKeptRemap(remap))
	for i, r := range remap {
		if r >= 0 {
			out = append(out, v[i])
		}
	}
	return out
}

func filterStringByRemap(v []string, remap []int) []string {
	out := make([]string, 0, countKeptRemap(remap))
	for i, r := range remap {
		if r >= 0 {
			out = append(out, v[i])
		}
	}
	return out
}

func filterKindByRemap(v []VarKind, remap []int) []VarKind {
	out := make([]VarKind, 0, countKeptRemap(remap))
	for i, r := range remap {
		if r >= 0 {
			out = append(out, v[i])
		}
	}
	return out
}

// ChangeColCost sets a single column's objective coefficient.
func (l *LP) ChangeColCost(col int, cost float64) error {
	if col < 0 || col >= l.NumCol {
		return errors.Errorf("lp: ChangeColCost index %d out of range", col)
	}
	l.ColCost[col] = cost
	return nil
}

// ChangeColBounds sets a single column's bounds.
func (l *LP) ChangeColBounds(col int, lower, upper float64) error {
	if col < 0 || col >= l.NumCol {
		return errors.Errorf("lp: ChangeColBounds index %d out of range", col)
	}
	if lower > upper+1e-9 {
		return errors.Errorf("lp: ChangeColBounds infeasible pair [%g, %g]", lower, upper)
	}
	l.ColLower[col], l.ColUpper[col] = lower, upper
	return nil
}

// ChangeRowBounds sets a single row's bounds.
func (l *LP) ChangeRowBounds(row int, lower, upper float64) error {
	if row < 0 || row >= l.NumRow {
		return errors.Errorf("lp: ChangeRowBounds index %d out of range", row)
	}
	if lower > upper+1e-9 {
		return errors.Errorf("lp: ChangeRowBounds infeasible pair [%g, %g]", lower, upper)
	}
	l.RowLower[row], l.RowUpper[row] = lower, upper
	return nil
}

// ChangeCoefficient overwrites a_{row,col}. The caller (facade) drops the
// engine's factorization after every coefficient change, whether or not
// the column is basic.
func (l *LP) ChangeCoefficient(row, col int, value float64) error {
	if row < 0 || row >= l.NumRow || col < 0 || col >= l.NumCol {
		return errors.Errorf("lp: ChangeCoefficient (%d,%d) out of range", row, col)
	}
	l.AMatrix.EnsureColWise()
	lo, hi := l.AMatrix.Start[col], l.AMatrix.Start[col+1]
	for p := lo; p < hi; p++ {
		if l.AMatrix.Index[p] == row {
			l.AMatrix.Value[p] = value
			return nil
		}
	}
	// Not previously stored: insert by rebuilding the column's slice.
	newIndex := append([]int(nil), l.AMatrix.Index[:hi]...)
	newIndex = append(newIndex, row)
	newIndex = append(newIndex, l.AMatrix.Index[hi:]...)
	newValue := append([]float64(nil), l.AMatrix.Value[:hi]...)
	newValue = append(newValue, value)
	newValue = append(newValue, l.AMatrix.Value[hi:]...)
	l.AMatrix.Index = newIndex
	l.AMatrix.Value = newValue
	for k := col + 1; k < len(l.AMatrix.Start); k++ {
		l.AMatrix.Start[k]++
	}
	return nil
}

// ScaleCol multiplies column col's cost, bounds and matrix entries by
// factor.
func (l *LP) ScaleCol(col int, factor float64) error {
	if col < 0 || col >= l.NumCol {
		return errors.Errorf("lp: ScaleCol index %d out of range", col)
	}
	if factor == 0 {
		return errors.New("lp: ScaleCol factor must be non-zero")
	}
	l.ColCost[col] *= factor
	if factor > 0 {
		l.ColLower[col] *= factor
		l.ColUpper[col] *= factor
	} else {
		l.ColLower[col], l.ColUpper[col] = l.ColUpper[col]*factor, l.ColLower[col]*factor
	}
	scale := make([]float64, l.NumCol)
	for i := range scale {
		scale[i] = 1
	}
	scale[col] = factor
	l.AMatrix.ApplyColScale(scale)
	return nil
}

// ScaleRow multiplies row's bounds and matrix entries by factor.
func (l *LP) ScaleRow(row int, factor float64) error {
	if row < 0 || row >= l.NumRow {
		return errors.Errorf("lp: ScaleRow index %d out of range", row)
	}
	if factor == 0 {
		return errors.New("lp: ScaleRow factor must be non-zero")
	}
	if factor > 0 {
		l.RowLower[row] *= factor
		l.RowUpper[row] *= factor
	} else {
		l.RowLower[row], l.RowUpper[row] = l.RowUpper[row]*factor, l.RowLower[row]*factor
	}
	scale := make([]float64, l.NumRow)
	for i := range scale {
		scale[i] = 1
	}
	scale[row] = factor
	l.AMatrix.ApplyRowScale(scale)
	return nil
}
