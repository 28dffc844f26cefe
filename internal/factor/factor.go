// Package factor is component B: the basis-factor numerical linear
// algebra layer. It maintains a factorization of the current basis
// matrix B and exposes BTRAN/FTRAN triangular solves and an Update
// operation for a single pivot, the primitives the simplex engine drives
// every iteration.
//
// The real HEkk factors B sparsely (Markowitz pivoting, eta-file or
// Forrest-Tomlin product-form update). Here the basis is kept as a dense
// gonum matrix and factored with partial-pivot LU (gonum/mat), which
// spec.md itself allows ("equivalent pivoting" scheme) at the cost of
// losing sparse-update performance; Update tracks how many pivots have
// been folded in since the last ComputeFactor, and NeedsRefactor reports
// true once that count reaches the update budget.
package factor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ekksolve/ekk/internal/sparse"
)

// RefactorInfo reports what ComputeFactor found: rank deficiency and,
// when present, which basic slots are structurally singular (spec.md
// 4.B "singular-column reporting").
type RefactorInfo struct {
	Rank           int
	SingularRows   []int
	NumericTrouble bool
}

// Factor is component B's basis factorization handle.
type Factor struct {
	numRow int

	dense *mat.Dense
	lu    mat.LU

	updateCount int
	updateBudget int

	lastCond float64
}

const defaultUpdateBudget = 100

// New allocates a Factor for an numRow x numRow basis.
func New(numRow int) *Factor {
	return &Factor{numRow: numRow, updateBudget: defaultUpdateBudget}
}

// ComputeFactor builds B from the constraint matrix A (column-wise) and
// the basis's BasicIndex, where index v < numCol selects column v of A
// and v >= numCol selects the unit column e_{v-numCol} (a row slack).
func (f *Factor) ComputeFactor(a *sparse.Matrix, basicIndex []int, numCol int) (RefactorInfo, error) {
	n := f.numRow
	if len(basicIndex) != n {
		return RefactorInfo{}, errors.Errorf("factor: basicIndex length %d != numRow %d", len(basicIndex), n)
	}
	a.EnsureColWise()
	dense := mat.NewDense(n, n, nil)
	for col, v := range basicIndex {
		if v < numCol {
			idx, val := a.GetCol(v)
			for k, row := range idx {
				dense.Set(row, col, val[k])
			}
		} else {
			dense.Set(v-numCol, col, 1)
		}
	}
	var lu mat.LU
	lu.Factorize(dense)
	f.dense = dense
	f.lu = lu
	f.updateCount = 0

	info := RefactorInfo{Rank: n}
	cond := lu.Cond()
	f.lastCond = cond
	if math.IsInf(cond, 1) || math.IsNaN(cond) {
		info.NumericTrouble = true
		info.Rank = f.estimateRank()
		info.SingularRows = f.singularRows()
	} else if cond > 1e14 {
		info.NumericTrouble = true
	}
	return info, nil
}

// estimateRank reports how many diagonal pivots of U are numerically
// non-zero, a cheap proxy for rank when LU.Cond() signals singularity.
func (f *Factor) estimateRank() int {
	n := f.numRow
	var u mat.TriDense
	f.lu.UTo(&u)
	rank := 0
	for i := 0; i < n; i++ {
		if math.Abs(u.At(i, i)) > 1e-12 {
			rank++
		}
	}
	return rank
}

func (f *Factor) singularRows() []int {
	n := f.numRow
	var u mat.TriDense
	f.lu.UTo(&u)
	var rows []int
	for i := 0; i < n; i++ {
		if math.Abs(u.At(i, i)) <= 1e-12 {
			rows = append(rows, i)
		}
	}
	return rows
}

// NeedsRefactor reports whether the update budget has been exceeded.
func (f *Factor) NeedsRefactor() bool { return f.updateCount >= f.updateBudget }

// FTRAN solves B x = rhs, returning x as a new slice and leaving rhs
// unchanged (spec.md 4.B "forward
// transform").
func (f *Factor) FTRAN(rhs []float64) ([]float64, error) {
	if f.dense == nil {
		return nil, errors.New("factor: FTRAN before ComputeFactor")
	}
	b := mat.NewVecDense(len(rhs), rhs)
	var x mat.VecDense
	if err := x.SolveVec(&f.lu, b); err != nil {
		return nil, errors.Wrap(err, "factor: FTRAN solve")
	}
	out := make([]float64, f.numRow)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// BTRAN solves B^T x = rhs, returning x as a new slice and leaving rhs
// unchanged (spec.md 4.B "backward
// transform").
func (f *Factor) BTRAN(rhs []float64) ([]float64, error) {
	if f.dense == nil {
		return nil, errors.New("factor: BTRAN before ComputeFactor")
	}
	b := mat.NewVecDense(len(rhs), rhs)
	var x mat.VecDense
	lut := f.lu.T()
	if err := solveTransposed(&x, lut, b); err != nil {
		return nil, errors.Wrap(err, "factor: BTRAN solve")
	}
	out := make([]float64, f.numRow)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// solveTransposed solves A x = b for A given as a mat.Matrix (here the
// transpose view of an LU factorization) via a plain dense solve, since
// mat.VecDense.SolveVec requires a mat.LU specifically. gonum's Transpose
// type is a mat.Matrix but not a Solver, so materialize it once.
func solveTransposed(x *mat.VecDense, a mat.Matrix, b *mat.VecDense) error {
	r, c := a.Dims()
	dense := mat.NewDense(r, c, nil)
	dense.Copy(a)
	var lu mat.LU
	lu.Factorize(dense)
	return x.SolveVec(&lu, b)
}

// Update folds a single pivot into the factorization: column leaveRow of
// B is replaced by newCol. The dense scheme here substitutes the column
// and refactorizes the whole dense matrix, so FTRAN/BTRAN always use the
// current basis; the update count still grows, and once it reaches
// updateBudget NeedsRefactor reports true and the engine calls
// ComputeFactor again. No eta vector or product-form update is kept.
func (f *Factor) Update(leaveRow int, newCol []float64) error {
	if f.dense == nil {
		return errors.New("factor: Update before ComputeFactor")
	}
	if leaveRow < 0 || leaveRow >= f.numRow {
		return errors.Errorf("factor: Update leaveRow %d out of range", leaveRow)
	}
	for i := 0; i < f.numRow; i++ {
		f.dense.Set(i, leaveRow, newCol[i])
	}
	f.lu.Factorize(f.dense)
	f.updateCount++
	return nil
}

// Cond returns the condition number estimate from the last factorization.
func (f *Factor) Cond() float64 { return f.lastCond }
