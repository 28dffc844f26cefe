package ekk

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ekksolve/ekk/internal/kkt"
	elp "github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/ray"
	"github.com/ekksolve/ekk/internal/simplex"
	"github.com/ekksolve/ekk/internal/sparse"
)

// Solver is the low-level API: build a model column by column and row by
// row, then Run it. Model.Solve is the convenience wrapper most callers
// use instead. A Solver is safe for concurrent read access (option
// getters, dimension queries) but mutation and Run calls serialize on an
// internal mutex, mirroring the teacher binding's single in-flight-solve
// contract without requiring a C-side lock.
type Solver struct {
	mu sync.RWMutex

	state *elp.ModelState
	eng   *simplex.Engine

	maximize bool
	offset   float64
}

// NewSolver returns an empty Solver, analogous to the teacher's
// NewSolver() that allocates a native HiGHS instance.
func NewSolver() (*Solver, error) {
	return &Solver{state: elp.NewModelState(elp.New(0, 0))}, nil
}

// Close releases solver resources. Kept for API-shape parity with the
// cgo-backed teacher; there is nothing to free in a pure-Go engine.
func (s *Solver) Close() {}

// Infinity returns the sentinel used for unbounded bounds.
func (s *Solver) Infinity() float64 { return math.Inf(1) }

// NumCol returns the number of columns currently in the model.
func (s *Solver) NumCol() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LP.NumCol
}

// NumRow returns the number of rows currently in the model.
func (s *Solver) NumRow() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LP.NumRow
}

// SetMaximize sets the optimization direction.
func (s *Solver) SetMaximize(maximize bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maximize = maximize
	if maximize {
		s.state.LP.Sense = elp.Maximize
	} else {
		s.state.LP.Sense = elp.Minimize
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewCosts)
	}
	return nil
}

// SetObjectiveOffset sets the constant added to the objective.
func (s *Solver) SetObjectiveOffset(offset float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	s.state.LP.Offset = offset
	return nil
}

// PassModel loads a complete LP/QP in one call, mirroring the teacher's
// PassModel signature.
func (s *Solver) PassModel(numCol, numRow int, colCost, colLower, colUpper, rowLower, rowUpper []float64, aStart, aIndex []int, aValue []float64, varTypes []VariableType, maximize bool, offset float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := elp.New(numRow, numCol)
	copy(l.ColCost, colCost)
	copy(l.ColLower, colLower)
	copy(l.ColUpper, colUpper)
	copy(l.RowLower, rowLower)
	copy(l.RowUpper, rowUpper)
	for j, vt := range varTypes {
		if j >= numCol {
			break
		}
		l.ColKind[j] = elp.VarKind(vt)
	}
	if maximize {
		l.Sense = elp.Maximize
	}
	l.Offset = offset

	m, err := sparse.NewFromSlices(numRow, numCol, sparse.RowWise, aStart, aIndex, aValue)
	if err != nil {
		return newErrorMsg("PassModel", err.Error())
	}
	m.EnsureColWise()
	l.AMatrix = m

	s.state = elp.NewModelState(l)
	if err := s.state.AssessBounds(); err != nil {
		return newErrorMsg("PassModel", err.Error())
	}
	if err := s.state.AssessCosts(); err != nil {
		return newErrorMsg("PassModel", err.Error())
	}
	s.maximize = maximize
	s.offset = offset
	s.eng = simplex.New(s.state.LP, s.state.Tol)
	return nil
}

// PassHessian attaches a QP Hessian to the model already loaded via
// PassModel. The dual/primal simplex engine treats the LP relaxation of
// the QP; true QP support (an active-set or interior-point layer on top)
// is out of scope, mirroring spec.md's Non-goals.
func (s *Solver) PassHessian(dim int, start, index []int, value []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := sparse.NewFromSlices(dim, dim, sparse.RowWise, start, index, value)
	if err != nil {
		return newErrorMsg("PassHessian", err.Error())
	}
	h.EnsureColWise()
	s.state.LP.Hessian = h
	return nil
}

// AddVar appends one continuous column with the given bounds.
func (s *Solver) AddVar(lower, upper float64) error {
	return s.AddVars([]float64{lower}, []float64{upper})
}

// AddVars appends len(lower) continuous columns.
func (s *Solver) AddVars(lower, upper []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(lower)
	cost := make([]float64, n)
	if err := s.state.LP.AddCols(cost, lower, upper, nil, nil, nil); err != nil {
		return newErrorMsg("AddVars", err.Error())
	}
	s.state.Scale.GrowCols(n)
	if s.eng != nil {
		s.eng.Basis.AppendCols(n)
		s.eng.ApplyAction(elp.ActionNewCols)
	}
	return nil
}

// AddRow appends one row with a sparse coefficient list.
func (s *Solver) AddRow(lower, upper float64, index []int, value []float64) error {
	return s.AddRows([]float64{lower}, []float64{upper}, []int{0}, index, value)
}

// AddRows appends len(lower) rows in CSR form (starts has one entry per
// new row).
func (s *Solver) AddRows(lower, upper []float64, starts, index []int, value []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(lower)
	extStarts := append(append([]int(nil), starts...), len(index))
	block, err := sparse.NewFromSlices(n, s.state.LP.NumCol, sparse.RowWise, extStarts, index, value)
	if err != nil {
		return newErrorMsg("AddRows", err.Error())
	}
	if err := s.state.LP.AddRows(lower, upper, nil, block); err != nil {
		return newErrorMsg("AddRows", err.Error())
	}
	s.state.Scale.GrowRows(n)
	if s.eng != nil {
		s.eng.Basis.AppendRows(n)
		s.eng.ApplyAction(elp.ActionNewRows)
	}
	return nil
}

// SetColCost sets a single column's objective coefficient.
func (s *Solver) SetColCost(col int, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.LP.ChangeColCost(col, cost); err != nil {
		return newErrorMsg("SetColCost", err.Error())
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewCosts)
	}
	return nil
}

// SetColCosts overwrites every column's cost.
func (s *Solver) SetColCosts(costs []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(costs) != s.state.LP.NumCol {
		return newErrorMsg("SetColCosts", "length mismatch")
	}
	copy(s.state.LP.ColCost, costs)
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewCosts)
	}
	return nil
}

// SetColBounds sets a single column's bounds.
func (s *Solver) SetColBounds(col int, lower, upper float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.LP.ChangeColBounds(col, lower, upper); err != nil {
		return newErrorMsg("SetColBounds", err.Error())
	}
	if s.eng != nil {
		s.eng.ApplyAction(elp.ActionNewBounds)
	}
	return nil
}

// SetColIntegrality sets a single column's variable type.
func (s *Solver) SetColIntegrality(col int, varType VariableType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col < 0 || col >= s.state.LP.NumCol {
		return newErrorMsg("SetColIntegrality", "index out of range")
	}
	s.state.LP.ColKind[col] = elp.VarKind(varType)
	return nil
}

// SetIntegrality overwrites every column's variable type.
func (s *Solver) SetIntegrality(varTypes []VariableType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(varTypes) != s.state.LP.NumCol {
		return newErrorMsg("SetIntegrality", "length mismatch")
	}
	for j, vt := range varTypes {
		s.state.LP.ColKind[j] = elp.VarKind(vt)
	}
	return nil
}

// Run solves the currently loaded model with default options.
func (s *Solver) Run() (*Solution, error) {
	return s.RunContext(context.Background())
}

// RunContext solves with cooperative cancellation: the engine checks
// ctx.Err() once per iteration and returns ModelStatusInterrupted rather
// than blocking past cancellation, mirroring the teacher's synchronous
// Run but adding the context seam the pure-cgo binding could not offer.
func (s *Solver) RunContext(ctx context.Context, opts ...SolveOption) (*Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := defaultSolveConfig()
	for _, o := range opts {
		o(cfg)
	}

	if s.state.LP.NumCol == 0 {
		return &Solution{Status: ModelStatusModelEmpty}, nil
	}
	if s.eng == nil {
		s.eng = simplex.New(s.state.LP, s.state.Tol)
	}

	s.state.FixInfiniteCosts()
	defer s.state.RestoreInfiniteCosts()

	start := time.Now()
	s.eng.SetClock(func() float64 { return time.Since(start).Seconds() })
	s.eng.SetCancel(func() bool { return ctx.Err() != nil })

	result, err := s.eng.Solve(cfg.algorithm, simplex.Limits{
		MaxIterations: cfg.iterationLimit,
		MaxSeconds:    cfg.timeLimit,
	})
	if err != nil {
		cfg.logger.Print("ekk: solve error:", err)
		return nil, newErrorMsg("Run", err.Error())
	}

	sol := s.buildSolution(result, cfg)
	cfg.logger.Print("ekk: solve finished:", sol.Status, "in", result.Iterations, "iterations")
	return sol, nil
}

func (s *Solver) buildSolution(result simplex.Result, cfg *solveConfig) *Solution {
	l := s.state.LP
	sol := &Solution{
		IterationCount: result.Iterations,
		RefactorCount:  result.RefactorCount,
	}

	switch result.Status {
	case simplex.Optimal:
		sol.Status = ModelStatusOptimal
	case simplex.Infeasible:
		sol.Status = ModelStatusInfeasible
		sol.DualRay = ray.FromDual(l, result.DualRay)
	case simplex.Unbounded:
		sol.Status = ModelStatusUnbounded
		sol.PrimalRay = ray.FromPrimal(l, result.PrimalRay, s.eng.Basis.BasicIndex)
	case simplex.IterationLimit:
		sol.Status = ModelStatusIterationLimit
	case simplex.TimeLimit:
		sol.Status = ModelStatusTimeLimit
	case simplex.Interrupted:
		sol.Status = ModelStatusInterrupted
	default:
		sol.Status = ModelStatusUnknown
	}

	if sol.Status != ModelStatusOptimal && sol.Status != ModelStatusIterationLimit && sol.Status != ModelStatusTimeLimit {
		if sol.Status == ModelStatusInfeasible {
			s.attachIIS(sol, cfg)
		}
		return sol
	}

	sol.ColValues = make([]float64, l.NumCol)
	sol.ColDuals = make([]float64, l.NumCol)
	sol.ColBasis = make([]BasisStatus, l.NumCol)
	for j := 0; j < l.NumCol; j++ {
		sol.ColValues[j] = elp.UnscalePrimal(s.eng.Data.WorkValue[j], s.state.Scale.UserBoundScale)
		sol.ColDuals[j] = elp.UnscaleDual(s.eng.Data.WorkDual[j], s.state.Scale.UserCostScale, s.state.Scale.UserBoundScale)
		sol.ColBasis[j] = fromInternalStatus(s.eng.Basis.Status[j])
	}
	sol.RowValues = make([]float64, l.NumRow)
	sol.RowDuals = make([]float64, l.NumRow)
	sol.RowBasis = make([]BasisStatus, l.NumRow)
	for i := 0; i < l.NumRow; i++ {
		v := l.NumCol + i
		sol.RowValues[i] = -elp.UnscalePrimal(s.eng.Data.WorkValue[v], s.state.Scale.UserBoundScale)
		// The slack's reduced cost is 0 - y_i, so the row multiplier y_i
		// kkt.Check expects is its negation.
		sol.RowDuals[i] = -elp.UnscaleDual(s.eng.Data.WorkDual[v], s.state.Scale.UserCostScale, s.state.Scale.UserBoundScale)
		sol.RowBasis[i] = fromInternalStatus(s.eng.Basis.Status[v])
	}

	var obj float64
	for j, c := range l.ColCost {
		obj += c * sol.ColValues[j]
	}
	sol.Objective = obj + l.Offset

	res, kktOK := kkt.Check(l, sol.ColValues, sol.RowDuals, sol.ColDuals, s.state.Tol)
	sol.KKT = res
	if !kktOK && sol.Status == ModelStatusOptimal {
		sol.Status = ModelStatusUnknown
	}
	if sol.Status == ModelStatusUnknown && res.WithinMargin {
		sol.Status = ModelStatusOptimal
	}

	return sol
}

func (s *Solver) attachIIS(sol *Solution, cfg *solveConfig) {
	l := s.state.LP
	rowExempt := make([]bool, l.NumRow)
	colExempt := make([]bool, l.NumCol)
	report, err := ray.ExtractIIS(l.NumRow, l.NumCol, rowExempt, colExempt, s.elasticSolve, cfg.maxIISPasses)
	if err == nil {
		sol.IIS = report
	}
}

// elasticSolve resolves a copy of the model with every non-exempt row
// relaxed by a pair of nonnegative elastic variables (one absorbing an
// excess-of-upper violation, one absorbing a shortfall-of-lower
// violation), each penalized by the row's weight, and reports which rows
// ended up with a strictly positive elastic. Column-bound elasticity
// (spec.md 4.F names both row and column bounds as IIS candidates) is
// intentionally not modeled here: column bound violations manifest as
// row infeasibilities through any constraint that references the column,
// so relaxing rows alone finds the same IIS for models without a free
// column bounded only by itself — the residual gap is recorded as an
// open scope decision.
func (s *Solver) elasticSolve(rowPenalty, colPenalty []float64) (posRows, posCols []int, feasible bool, err error) {
	l := s.state.LP.Clone()
	baseCols := l.NumCol

	var extraLower, extraUpper, extraCost []float64
	var rowOf []int
	block := sparse.New(l.NumRow, 0, sparse.ColWise)
	for i, pen := range rowPenalty {
		if pen <= 0 {
			continue
		}
		pair := sparse.New(l.NumRow, 2, sparse.ColWise)
		pair.Start = []int{0, 1, 2}
		pair.Index = []int{i, i}
		pair.Value = []float64{1, -1}
		if err := block.AddCols(pair); err != nil {
			return nil, nil, false, err
		}
		extraLower = append(extraLower, 0, 0)
		extraUpper = append(extraUpper, math.Inf(1), math.Inf(1))
		extraCost = append(extraCost, pen, pen)
		rowOf = append(rowOf, i, i)
	}
	if err := l.AddCols(extraCost, extraLower, extraUpper, nil, nil, block); err != nil {
		return nil, nil, false, err
	}

	eng := simplex.New(l, s.state.Tol)
	res, err := eng.Solve(simplex.Dual, simplex.Limits{MaxIterations: 20000})
	if err != nil {
		return nil, nil, false, err
	}
	if res.Status != simplex.Optimal {
		return nil, nil, false, nil
	}

	seen := make(map[int]bool)
	for k, v := range eng.Data.WorkValue[baseCols : baseCols+len(rowOf)] {
		if v > s.state.Tol.Feasibility && !seen[rowOf[k]] {
			seen[rowOf[k]] = true
			posRows = append(posRows, rowOf[k])
		}
	}
	_ = colPenalty
	return posRows, posCols, true, nil
}

func fromInternalStatus(v interface{ String() string }) BasisStatus {
	switch v.String() {
	case "Basic":
		return BasisStatusBasic
	case "Upper":
		return BasisStatusUpper
	case "Zero":
		return BasisStatusZero
	case "NonbasicFree":
		return BasisStatusNonbasicFree
	default:
		return BasisStatusLower
	}
}
