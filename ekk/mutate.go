package ekk

import (
	elp "github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/sparse"
)

// DeleteCols removes the named columns. Any column currently basic must
// first be pivoted out (spec.md 4.G); callers that hit this error should
// re-solve before retrying the delete.
func (s *Solver) DeleteCols(idx sparse.IndexSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remap, err := resolveDeleteRemap(idx, s.state.LP.NumCol)
	if err != nil {
		return newErrorMsg("DeleteCols", err.Error())
	}
	if s.eng != nil {
		if err := s.eng.Basis.DeleteCols(remap); err != nil {
			return newErrorMsg("DeleteCols", err.Error())
		}
	}
	if err := s.state.LP.DeleteCols(idx); err != nil {
		return newErrorMsg("DeleteCols", err.Error())
	}
	s.state.Scale.DeleteCols(deletedIndices(remap))
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionDelCols)
	}
	return nil
}

// DeleteRows removes the named rows.
func (s *Solver) DeleteRows(idx sparse.IndexSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	remap, err := resolveDeleteRemap(idx, s.state.LP.NumRow)
	if err != nil {
		return newErrorMsg("DeleteRows", err.Error())
	}
	if s.eng != nil {
		if err := s.eng.Basis.DeleteRows(remap); err != nil {
			return newErrorMsg("DeleteRows", err.Error())
		}
	}
	if err := s.state.LP.DeleteRows(idx); err != nil {
		return newErrorMsg("DeleteRows", err.Error())
	}
	s.state.Scale.DeleteRows(deletedIndices(remap))
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionDelRows)
	}
	return nil
}

func resolveDeleteRemap(idx sparse.IndexSet, n int) ([]int, error) {
	toDelete := idx.Indices(n)
	del := make([]bool, n)
	for _, i := range toDelete {
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

func deletedIndices(remap []int) []int {
	var out []int
	for i, r := range remap {
		if r == -1 {
			out = append(out, i)
		}
	}
	return out
}

// ChangeCoefficient overwrites a single constraint matrix entry. If col
// is currently basic, the basis factorization is invalidated entirely
// (spec.md 4.G's "alien basis" case) rather than incrementally updated.
func (s *Solver) ChangeCoefficient(row, col int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.LP.ChangeCoefficient(row, col, value); err != nil {
		return newErrorMsg("ChangeCoefficient", err.Error())
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewCoefficient)
	}
	return nil
}

// ScaleCol multiplies a column's cost, bounds and matrix entries.
func (s *Solver) ScaleCol(col int, factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.LP.ScaleCol(col, factor); err != nil {
		return newErrorMsg("ScaleCol", err.Error())
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionScaledCol)
	}
	return nil
}

// ScaleRow multiplies a row's bounds and matrix entries.
func (s *Solver) ScaleRow(row int, factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.LP.ScaleRow(row, factor); err != nil {
		return newErrorMsg("ScaleRow", err.Error())
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionScaledRow)
	}
	return nil
}

// SetUserBoundScale applies a global 2^exp bound scale, refusing overflow
// past the infinite-bound threshold and leaving the model untouched on
// error (spec.md §3's user-scaling invariant).
func (s *Solver) SetUserBoundScale(exp int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.state.LP
	cl, cu, rl, ru, err := elp.SetUserBoundScale(l.ColLower, l.ColUpper, l.RowLower, l.RowUpper, exp, s.state.Tol.InfiniteBound)
	if err != nil {
		return newErrorMsg("SetUserBoundScale", err.Error())
	}
	l.ColLower, l.ColUpper, l.RowLower, l.RowUpper = cl, cu, rl, ru
	s.state.Scale.UserBoundScale += exp
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewBounds)
	}
	return nil
}

// SetUserCostScale applies a global 2^exp cost scale.
func (s *Solver) SetUserCostScale(exp int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := elp.SetUserCostScale(s.state.LP.ColCost, exp, s.state.Tol.InfiniteCost)
	if err != nil {
		return newErrorMsg("SetUserCostScale", err.Error())
	}
	s.state.LP.ColCost = c
	s.state.Scale.UserCostScale += exp
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewCosts)
	}
	return nil
}
