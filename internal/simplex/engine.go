// Package simplex is component E: the dual and primal revised simplex
// engine. It drives component B (factor) and component D (simplexdata)
// through the classic CHUZR/BTRAN/PRICE/CHUZC/FTRAN/UPDATE cycle, with
// dual steepest-edge weights on the dual side and Devex weights as the
// primal fallback, cycling protection by counting visits to each basis
// and perturbing lower bounds once one recurs more than tabooLimit times,
// and termination into one of the statuses spec.md names.
package simplex

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ekksolve/ekk/internal/factor"
	"github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/simplexdata"
)

// Algorithm selects which simplex variant Solve runs.
type Algorithm int

const (
	Dual Algorithm = iota
	Primal
)

// Status is the terminal outcome of a Solve call.
type Status int

const (
	Unknown Status = iota
	Optimal
	Infeasible
	Unbounded
	IterationLimit
	TimeLimit
	Interrupted
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case IterationLimit:
		return "IterationLimit"
	case TimeLimit:
		return "TimeLimit"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// DualRay is the certificate produced when the dual simplex proves primal
// infeasibility: the leaving row and its BTRAN direction.
type DualRay struct {
	Row       int
	Direction []float64
}

// PrimalRay is the certificate produced when the primal simplex proves
// unboundedness: the entering variable and its FTRAN direction.
type PrimalRay struct {
	EnterVar  int
	Direction []float64
}

// Limits bounds a Solve call (spec.md 4.E "termination statuses").
type Limits struct {
	MaxIterations int
	MaxSeconds    float64
}

// Result is what Solve returns.
type Result struct {
	Status        Status
	Iterations    int
	RefactorCount int
	DualRay       *DualRay
	PrimalRay     *PrimalRay
}

// Engine is component E's state: the model it is solving, the basis and
// work-array bundle it mutates, and the factor it drives.
type Engine struct {
	LP    *lp.LP
	Basis *simplexdata.Basis
	Data  *simplexdata.Data
	Fac   *factor.Factor

	tol lp.Tolerances

	visited map[string]int
	tabooLimit int
	refactorCount int

	elapsed func() float64 // injected clock, nil means unlimited
	cancel  func() bool    // injected cooperative-cancellation check
}

// New builds an Engine for the given LP starting from the logical basis.
func New(l *lp.LP, tol lp.Tolerances) *Engine {
	basis := simplexdata.New(l.NumRow, l.NumCol)
	data := simplexdata.NewData(l.NumCol+l.NumRow, l.NumRow)
	e := &Engine{
		LP:         l,
		Basis:      basis,
		Data:       data,
		Fac:        factor.New(l.NumRow),
		tol:        tol,
		visited:    make(map[string]int),
		tabooLimit: 3,
	}
	e.initWorkArrays()
	return e
}

// SetClock injects a monotonic-seconds-elapsed function for wall-clock
// time limits; nil disables the check.
func (e *Engine) SetClock(f func() float64) { e.elapsed = f }

// SetCancel injects a cooperative cancellation check consulted once per
// iteration (spec.md's context.Context cancellation seam).
func (e *Engine) SetCancel(f func() bool) { e.cancel = f }

// ApplyAction collapses the lifecycle stage in response to a model
// mutation token (spec.md 4.G "selective invalidation").
func (e *Engine) ApplyAction(a lp.Action) {
	switch a {
	case lp.ActionNewCosts:
		e.Data.Collapse(simplexdata.StageHasInvert)
	case lp.ActionNewBounds:
		e.Data.Collapse(simplexdata.StageHasInvert)
	case lp.ActionScaledCol, lp.ActionScaledRow:
		e.Data.Collapse(simplexdata.StageHasBasis)
	case lp.ActionNewCoefficient:
		e.Data.Collapse(simplexdata.StageNone)
	case lp.ActionNewRows, lp.ActionNewCols, lp.ActionDelCols, lp.ActionDelRows:
		e.resizeData()
	}
}

// resizeData rebuilds Data from scratch against the engine's current LP
// and Basis dimensions. A structural mutation (added/deleted row or
// column) changes which variable index every WorkCost/Lower/Upper/
// Value/Dual slot belongs to, so growing or shrinking the old arrays in
// place would leave stale or misaligned entries; Collapse alone (as for
// the other actions) is not enough since it never touches array length.
// Callers must apply the mutation to LP and Basis before calling this.
func (e *Engine) resizeData() {
	if !e.Basis.Valid {
		// DeleteRows already reset Basis to the logical basis at the new
		// row count when a tight row's deletion invalidated it; acknowledge
		// the reset before reusing it so the flag doesn't stick around.
		e.Basis.Valid = true
	}
	e.Data = simplexdata.NewData(e.LP.NumCol+e.LP.NumRow, e.LP.NumRow)
	e.Fac = factor.New(e.LP.NumRow)
	e.initWorkArrays()
}

func (e *Engine) initWorkArrays() {
	l := e.LP
	sign := l.ObjectiveSign()
	for j := 0; j < l.NumCol; j++ {
		e.Data.WorkCost[j] = sign * l.ColCost[j]
		e.Data.WorkLower[j] = l.ColLower[j]
		e.Data.WorkUpper[j] = l.ColUpper[j]
	}
	for i := 0; i < l.NumRow; i++ {
		v := l.NumCol + i
		// Row slack: Ax + s = 0 with lo <= -s <= up convention folded so
		// that WorkLower/WorkUpper on the slack mirror the row bounds
		// with sign flipped to keep A augmented with +I.
		e.Data.WorkLower[v] = -l.RowUpper[i]
		e.Data.WorkUpper[v] = -l.RowLower[i]
		e.Data.WorkCost[v] = 0
	}
	e.Data.RecomputeRange()
	for v := 0; v < e.Basis.NumTot(); v++ {
		if e.Basis.IsBasic(v) {
			continue
		}
		e.setNonbasicAtBound(v)
	}
	for i := range e.Data.DualEdgeWeight {
		e.Data.DualEdgeWeight[i] = 1
	}
}

func (e *Engine) setNonbasicAtBound(v int) {
	lo, up := e.Data.WorkLower[v], e.Data.WorkUpper[v]
	switch {
	case math.IsInf(lo, -1) && math.IsInf(up, 1):
		e.Basis.Status[v] = simplexdata.NonbasicFree
		e.Basis.NonbasicMove[v] = simplexdata.MoveNone
		e.Data.WorkValue[v] = 0
	case math.IsInf(up, 1):
		e.Basis.Status[v] = simplexdata.Lower
		e.Basis.NonbasicMove[v] = simplexdata.MoveUp
		e.Data.WorkValue[v] = lo
	case math.IsInf(lo, -1):
		e.Basis.Status[v] = simplexdata.Upper
		e.Basis.NonbasicMove[v] = simplexdata.MoveDown
		e.Data.WorkValue[v] = up
	case lo == up:
		e.Basis.Status[v] = simplexdata.Zero
		e.Basis.NonbasicMove[v] = simplexdata.MoveNone
		e.Data.WorkValue[v] = lo
	default:
		e.Basis.Status[v] = simplexdata.Lower
		e.Basis.NonbasicMove[v] = simplexdata.MoveUp
		e.Data.WorkValue[v] = lo
	}
}

// setNonbasicAtTarget puts v into nonbasic Status/NonbasicMove matching
// the bound its WorkValue was just driven to by a pivot. Unlike
// setNonbasicAtBound (cold-start convention: always start at the lower
// bound), a variable leaving the basis can land at either bound, and
// which one is a fact already established by the pivot's ratio test, not
// something to re-derive from a default.
func (e *Engine) setNonbasicAtTarget(v int, atUpper bool) {
	lo, up := e.Data.WorkLower[v], e.Data.WorkUpper[v]
	if lo == up {
		e.Basis.Status[v] = simplexdata.Zero
		e.Basis.NonbasicMove[v] = simplexdata.MoveNone
		e.Data.WorkValue[v] = lo
		return
	}
	if atUpper {
		e.Basis.Status[v] = simplexdata.Upper
		e.Basis.NonbasicMove[v] = simplexdata.MoveDown
		e.Data.WorkValue[v] = up
		return
	}
	e.Basis.Status[v] = simplexdata.Lower
	e.Basis.NonbasicMove[v] = simplexdata.MoveUp
	e.Data.WorkValue[v] = lo
}

func (e *Engine) timeUp(limits Limits) bool {
	return e.elapsed != nil && limits.MaxSeconds > 0 && e.elapsed() > limits.MaxSeconds
}

func (e *Engine) cancelled() bool {
	return e.cancel != nil && e.cancel()
}

// basisSignature hashes BasicIndex for cycling detection.
func (e *Engine) basisSignature() string {
	b := make([]byte, 0, 4*len(e.Basis.BasicIndex))
	for _, v := range e.Basis.BasicIndex {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return string(b)
}

func (e *Engine) markVisited() bool {
	sig := e.basisSignature()
	e.visited[sig]++
	return e.visited[sig] > e.tabooLimit
}

func (e *Engine) refactorIfNeeded() error {
	if e.Data.Stage >= simplexdata.StageHasInvert && !e.Fac.NeedsRefactor() {
		return nil
	}
	return e.refactor(true)
}

// refactor recomputes the basis factorization. On a rank-deficient result
// it retries once by swapping every structurally singular basic column
// for its row's own logical slack and refactoring again (spec.md 4.E.3
// "on refactor failure ... swap singular columns back in and their
// replacements out, marking affected rows, and retrying"); a column that
// is itself singular as a unit slack cannot be repaired this way and
// still falls through to the hard error.
func (e *Engine) refactor(allowRetry bool) error {
	info, err := e.Fac.ComputeFactor(e.LP.AMatrix, e.Basis.BasicIndex, e.LP.NumCol)
	if err != nil {
		return err
	}
	if info.NumericTrouble {
		if allowRetry && len(info.SingularRows) > 0 {
			for _, row := range info.SingularRows {
				e.swapForSlack(row)
			}
			return e.refactor(false)
		}
		return errors.Errorf("simplex: numerically singular basis (rank %d of %d)", info.Rank, e.LP.NumRow)
	}
	e.refactorCount++
	e.Data.Stage = simplexdata.StageHasInvert
	e.computeBasicValues()
	return nil
}

// swapForSlack ejects the basic variable occupying row and installs that
// row's own logical slack in its place, the standard repair for a
// structurally singular basic column.
func (e *Engine) swapForSlack(row int) {
	old := e.Basis.BasicIndex[row]
	slack := e.LP.NumCol + row
	if old == slack {
		return
	}
	e.Basis.NonbasicFlag[old] = true
	e.setNonbasicAtBound(old)
	e.Basis.NonbasicFlag[slack] = false
	e.Basis.Status[slack] = simplexdata.Basic
	e.Basis.BasicIndex[row] = slack
}

// computeBasicValues sets WorkValue for basic variables from B x_B = b -
// N x_N, using FTRAN against the current nonbasic values.
func (e *Engine) computeBasicValues() {
	n := e.LP.NumRow
	rhs := make([]float64, n)
	e.LP.AMatrix.EnsureColWise()
	for v := 0; v < e.Basis.NumTot(); v++ {
		if e.Basis.IsBasic(v) {
			continue
		}
		val := e.Data.WorkValue[v]
		if val == 0 {
			continue
		}
		if v < e.LP.NumCol {
			idx, coef := e.LP.AMatrix.GetCol(v)
			for k, row := range idx {
				rhs[row] -= coef[k] * val
			}
		} else {
			rhs[v-e.LP.NumCol] -= val
		}
	}
	x, err := e.Fac.FTRAN(rhs)
	if err != nil {
		return
	}
	for i, v := range e.Basis.BasicIndex {
		e.Data.WorkValue[v] = x[i]
	}
}

// Solve runs the configured algorithm to termination or a limit.
func (e *Engine) Solve(alg Algorithm, limits Limits) (Result, error) {
	if err := e.refactorIfNeeded(); err != nil {
		return Result{Status: Unknown}, err
	}
	var result Result
	var err error
	switch alg {
	case Dual:
		result, err = e.solveDual(limits)
	default:
		result, err = e.solvePrimal(limits)
	}
	result.RefactorCount = e.refactorCount
	return result, err
}
