// Package ray is component F: certificates of infeasibility and
// unboundedness materialized from a terminated simplex engine, plus the
// elasticity-filter algorithm that extracts an irreducible infeasible
// subsystem (IIS) from an infeasible model.
package ray

import (
	"math"

	"github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/simplex"
)

// DualRay is the materialized certificate of primal infeasibility: for
// every row and column, the coefficient of that row/column in the
// infeasible constraint combination y^T A <= 0 with y^T b > 0 (or the
// reverse sense), scaled so the caller can read off which rows/bounds
// participate.
type DualRay struct {
	RowWeight []float64 // length NumRow, y in y^T A
	ColSign   []float64 // length NumCol, sign of y^T A_j at the bound
}

// PrimalRay is the materialized certificate of unboundedness: a direction
// d with A d = 0 (up to slack), c^T d having the sign of the improving
// objective, and d respecting the recession cone of the bounds.
type PrimalRay struct {
	ColDirection []float64 // length NumCol
}

// FromDual builds a DualRay from the engine's raw certificate.
func FromDual(l *lp.LP, r *simplex.DualRay) *DualRay {
	if r == nil {
		return nil
	}
	out := &DualRay{
		RowWeight: append([]float64(nil), r.Direction...),
		ColSign:   make([]float64, l.NumCol),
	}
	l.AMatrix.EnsureColWise()
	for j := 0; j < l.NumCol; j++ {
		idx, val := l.AMatrix.GetCol(j)
		var s float64
		for k, row := range idx {
			s += val[k] * r.Direction[row]
		}
		out.ColSign[j] = s
	}
	return out
}

// FromPrimal builds a PrimalRay from the engine's raw certificate,
// expanding the basic-variable components of the FTRAN direction back
// into full column space using the basis index the engine held at
// termination.
func FromPrimal(l *lp.LP, r *simplex.PrimalRay, basicIndex []int) *PrimalRay {
	if r == nil {
		return nil
	}
	dir := make([]float64, l.NumCol)
	if r.EnterVar < l.NumCol {
		dir[r.EnterVar] = 1
	}
	for i, bv := range basicIndex {
		if bv < l.NumCol {
			dir[bv] = -r.Direction[i]
		}
	}
	return &PrimalRay{ColDirection: dir}
}

// IISReport is the outcome of ExtractIIS: the rows and column bounds that
// together form an irreducible infeasible subsystem.
type IISReport struct {
	Rows        []int
	ColBounds   []int
	Certificate *DualRay
}

// ElasticSolveFunc resolves an elasticized LP (every row and column bound
// relaxed by a penalized elastic variable) to optimality or infeasibility,
// returning which elastic variables ended up strictly positive. It is
// supplied by the caller (the ekk facade) since running the actual
// simplex engine requires wiring cost/bound scaling the ray package does
// not own.
type ElasticSolveFunc func(elasticRowPenalty, elasticColPenalty []float64) (positiveRows, positiveCols []int, feasible bool, err error)

// ExtractIIS implements spec.md 4.F's elasticity filter: start with every
// row and bound elastic at a shared penalty, solve, and iteratively fix
// (de-elasticize) any row/bound whose elastic variable came out positive,
// tightening the penalty set until a further solve is feasible without
// elastics, at which point the fixed set is the IIS. Rows/bounds flagged
// true in rowExempt/colExempt get penalty zero (spec.md 4.F
// "negative-penalty exemption") and never enter the candidate set.
func ExtractIIS(numRow, numCol int, rowExempt, colExempt []bool, solve ElasticSolveFunc, maxPasses int) (*IISReport, error) {
	rowPenalty := make([]float64, numRow)
	colPenalty := make([]float64, numCol)
	for i := range rowPenalty {
		if !rowExempt[i] {
			rowPenalty[i] = 1
		}
	}
	for j := range colPenalty {
		if !colExempt[j] {
			colPenalty[j] = 1
		}
	}

	fixedRow := make([]bool, numRow)
	fixedCol := make([]bool, numCol)

	for pass := 0; pass < maxPasses; pass++ {
		posRows, posCols, feasible, err := solve(rowPenalty, colPenalty)
		if err != nil {
			return nil, err
		}
		if feasible && len(posRows) == 0 && len(posCols) == 0 {
			return buildReport(fixedRow, fixedCol), nil
		}
		if len(posRows) == 0 && len(posCols) == 0 {
			// No elastic absorbed slack yet the model is still infeasible:
			// nothing left to tighten, report what has been fixed so far.
			return buildReport(fixedRow, fixedCol), nil
		}
		for _, i := range posRows {
			fixedRow[i] = true
			rowPenalty[i] = 0
		}
		for _, j := range posCols {
			fixedCol[j] = true
			colPenalty[j] = 0
		}
	}
	return buildReport(fixedRow, fixedCol), nil
}

func buildReport(fixedRow, fixedCol []bool) *IISReport {
	r := &IISReport{}
	for i, v := range fixedRow {
		if v {
			r.Rows = append(r.Rows, i)
		}
	}
	for j, v := range fixedCol {
		if v {
			r.ColBounds = append(r.ColBounds, j)
		}
	}
	return r
}

// Verify sanity-checks a dual ray: the smallest value the rows allow for
// y^T A x must exceed the largest value the column bounds allow for it by
// more than tol, certifying the row combination is infeasible. An
// infinite bound on either side means no certificate, and false.
func Verify(l *lp.LP, r *DualRay, tol float64) bool {
	if r == nil {
		return false
	}
	var lhs float64
	for i, w := range r.RowWeight {
		if w == 0 {
			continue
		}
		bound := l.RowLower[i]
		if w < 0 {
			bound = l.RowUpper[i]
		}
		if math.IsInf(bound, 0) {
			return false
		}
		lhs += w * bound
	}
	var rhs float64
	for j, s := range r.ColSign {
		if s == 0 {
			continue
		}
		bound := l.ColUpper[j]
		if s < 0 {
			bound = l.ColLower[j]
		}
		if math.IsInf(bound, 0) {
			return false
		}
		rhs += s * bound
	}
	return lhs-rhs > tol
}
