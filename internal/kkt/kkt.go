// Package kkt is component I: post-solve verification of the KKT
// conditions (primal feasibility, dual feasibility, complementary
// slackness) against tolerance margins, gating whether a claimed optimal
// solution is actually trustworthy.
package kkt

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ekksolve/ekk/internal/lp"
)

// Residuals holds the three KKT residual norms and the worst per-term
// violation, so callers can both gate on an aggregate and report where
// the largest violation occurred.
type Residuals struct {
	PrimalInfeasibility float64
	DualInfeasibility   float64
	Complementarity     float64

	WorstPrimalRow int
	WorstDualCol   int

	// WithinMargin is true when every residual, though over its raw
	// tolerance, is still within tol.Margin times that tolerance
	// (spec.md 4.I). A caller that reached Unknown for exceeding a raw
	// tolerance may still treat the solution as Optimal when this holds.
	WithinMargin bool
}

// Check computes the KKT residuals for a claimed primal solution x, dual
// row multipliers y and reduced costs d (dual values for the column
// bounds), against l's bounds and cost. Ok reports whether every residual
// is within tol.
func Check(l *lp.LP, x, y, d []float64, tol lp.Tolerances) (Residuals, bool) {
	var res Residuals

	primalRes := make([]float64, l.NumRow)
	l.AMatrix.EnsureRowWise()
	for i := 0; i < l.NumRow; i++ {
		idx, val := l.AMatrix.GetRow(i)
		var ax float64
		for k, col := range idx {
			ax += val[k] * x[col]
		}
		lo, up := l.RowLower[i], l.RowUpper[i]
		switch {
		case ax < lo:
			primalRes[i] = lo - ax
		case ax > up:
			primalRes[i] = ax - up
		default:
			primalRes[i] = 0
		}
	}
	res.PrimalInfeasibility = floats.Norm(primalRes, math.Inf(1))
	res.WorstPrimalRow = argmax(primalRes)

	colBoundRes := make([]float64, l.NumCol)
	for j := 0; j < l.NumCol; j++ {
		lo, up := l.ColLower[j], l.ColUpper[j]
		switch {
		case x[j] < lo:
			colBoundRes[j] = lo - x[j]
		case x[j] > up:
			colBoundRes[j] = x[j] - up
		}
	}
	res.PrimalInfeasibility = math.Max(res.PrimalInfeasibility, floats.Norm(colBoundRes, math.Inf(1)))

	dualRes := make([]float64, l.NumCol)
	sign := l.ObjectiveSign()
	for j := 0; j < l.NumCol; j++ {
		idx, val := colOf(l, j)
		var aty float64
		for k, row := range idx {
			aty += val[k] * y[row]
		}
		stationarity := sign*l.ColCost[j] - aty - d[j]
		dualRes[j] = math.Abs(stationarity)
	}
	res.DualInfeasibility = floats.Norm(dualRes, math.Inf(1))
	res.WorstDualCol = argmax(dualRes)

	comp := make([]float64, l.NumCol)
	for j := 0; j < l.NumCol; j++ {
		lo, up := l.ColLower[j], l.ColUpper[j]
		distLo, distUp := math.Abs(x[j]-lo), math.Abs(x[j]-up)
		dist := math.Min(distLo, distUp)
		if math.IsInf(lo, -1) && math.IsInf(up, 1) {
			dist = 0
		}
		comp[j] = math.Abs(d[j]) * dist
	}
	res.Complementarity = floats.Sum(comp)

	compTol := tol.Optimality * float64(max(l.NumCol, 1))
	ok := res.PrimalInfeasibility <= tol.Feasibility &&
		res.DualInfeasibility <= tol.Optimality &&
		res.Complementarity <= compTol

	margin := tol.Margin
	if margin <= 0 {
		margin = 1
	}
	res.WithinMargin = relativeViolation(res.PrimalInfeasibility, tol.Feasibility) <= margin &&
		relativeViolation(res.DualInfeasibility, tol.Optimality) <= margin &&
		relativeViolation(res.Complementarity, compTol) <= margin

	return res, ok
}

// relativeViolation is how many multiples of tol the residual exceeds it
// by, or 0 when the residual is already within tol. A zero tolerance
// with a nonzero residual is an unconditional, unbounded violation.
func relativeViolation(residual, tol float64) float64 {
	if residual <= tol {
		return 0
	}
	if tol <= 0 {
		return math.Inf(1)
	}
	return residual / tol
}

func colOf(l *lp.LP, j int) ([]int, []float64) {
	l.AMatrix.EnsureColWise()
	return l.AMatrix.GetCol(j)
}

func argmax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
