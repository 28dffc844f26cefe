package simplex

import "math"

// solvePrimal runs the primal revised simplex with Devex reference
// weights. It first drives the current basis to primal feasibility
// (Phase 1, spec.md 4.E.1 "Phase control", applied on the primal side per
// 4.E.2's "analogous state machine") by minimizing a composite
// infeasibility objective built from the currently out-of-bound basics;
// Phase 2 then optimizes the true objective from the feasible basis
// Phase 1 reached: CHUZC picks the
// nonbasic column with the best Devex-weighted reduced cost, FTRAN
// recovers its column, CHUZR ratio-tests basic variables for the first
// one to hit a bound, and UPDATE folds the pivot in exactly as the dual
// side does.
func (e *Engine) solvePrimal(limits Limits) (Result, error) {
	if result, err, done := e.primalPhase1(limits); done {
		return result, err
	}
	return e.primalLoop(limits)
}

// primalPhase1 repairs primal infeasibility of the starting basis before
// Phase 2 runs. At each iteration it prices a composite objective whose
// "cost" is +1 on a basic variable above its upper bound and -1 on one
// below its lower bound (zero everywhere else), so an entering column
// with a favorable reduced cost under that objective strictly reduces
// total bound infeasibility. For the duration of the ratio test only,
// each infeasible basic's non-violated bound is pulled in to sit exactly
// at its violated bound, so CHUZR's ordinary single-sided bound check
// stops it exactly when it first reaches feasibility instead of running
// past to whatever unrelated bound sits on the far side. done reports
// whether the caller already has its final Result (a limit was hit, or
// the LP proved infeasible); done=false means the basis is now
// primal-feasible and Phase 2 should run.
func (e *Engine) primalPhase1(limits Limits) (Result, error, bool) {
	for {
		rows := e.infeasibleBasics()
		if len(rows) == 0 {
			return Result{}, nil, false
		}
		if limits.MaxIterations > 0 && e.Data.Iteration >= limits.MaxIterations {
			return Result{Status: IterationLimit, Iterations: e.Data.Iteration}, nil, true
		}
		if e.timeUp(limits) {
			return Result{Status: TimeLimit, Iterations: e.Data.Iteration}, nil, true
		}
		if e.cancelled() {
			return Result{Status: Interrupted, Iterations: e.Data.Iteration}, nil, true
		}

		dual, err := e.phase1Duals(rows)
		if err != nil {
			return Result{Status: Unknown, Iterations: e.Data.Iteration}, err, true
		}
		enterVar, increase := e.chuzcPrimal(nil, dual)
		if enterVar < 0 {
			return Result{Status: Infeasible, Iterations: e.Data.Iteration, DualRay: e.phase1Ray(rows)}, nil, true
		}

		col, err := e.Fac.FTRAN(e.matrixColumn(enterVar))
		if err != nil {
			return Result{Status: Unknown, Iterations: e.Data.Iteration}, err, true
		}

		saved := e.relaxInfeasibleBounds(rows)
		row, leaveVar, theta, ok := e.chuzrPrimal(col, enterVar, increase)
		e.restoreBounds(saved)
		if !ok {
			// The composite infeasibility objective can improve without
			// bound: no primal-feasible point exists in this direction.
			return Result{Status: Infeasible, Iterations: e.Data.Iteration, DualRay: e.phase1Ray(rows)}, nil, true
		}

		alpha := make([]float64, e.Basis.NumTot())
		btranRow, err := e.Fac.BTRAN(unitVector(e.LP.NumRow, row))
		if err == nil {
			alpha = e.priceRow(btranRow)
		}
		e.pivotPrimal(row, leaveVar, enterVar, col, theta, increase, alpha)
		e.Data.Iteration++
		e.Data.UpdateCount++

		if e.Fac.NeedsRefactor() {
			if err := e.refactorIfNeeded(); err != nil {
				return Result{Status: Unknown, Iterations: e.Data.Iteration}, err, true
			}
		}
	}
}

// infeasibleBasics returns the basic rows whose current value violates
// its own bound.
func (e *Engine) infeasibleBasics() []int {
	var rows []int
	for i, bv := range e.Basis.BasicIndex {
		val := e.Data.WorkValue[bv]
		if val < e.Data.WorkLower[bv]-e.tol.Feasibility || val > e.Data.WorkUpper[bv]+e.tol.Feasibility {
			rows = append(rows, i)
		}
	}
	return rows
}

// phase1Sign is the composite Phase 1 cost of the basic variable in row:
// +1 if it is above its upper bound (minimizing it pushes it back down),
// -1 if below its lower bound (minimizing its negation pushes it up).
func (e *Engine) phase1Sign(row int) float64 {
	bv := e.Basis.BasicIndex[row]
	if e.Data.WorkValue[bv] > e.Data.WorkUpper[bv] {
		return 1
	}
	return -1
}

// phase1Duals prices the composite Phase 1 objective (zero cost except
// +-1 on the given infeasible rows) into reduced costs for every nonbasic
// column, mirroring recomputeDuals but against that auxiliary cost
// instead of WorkCost.
func (e *Engine) phase1Duals(rows []int) ([]float64, error) {
	cB := make([]float64, e.LP.NumRow)
	for _, row := range rows {
		cB[row] = e.phase1Sign(row)
	}
	y, err := e.Fac.BTRAN(cB)
	if err != nil {
		return nil, err
	}
	dual := make([]float64, e.Basis.NumTot())
	for v := 0; v < e.Basis.NumTot(); v++ {
		if e.Basis.IsBasic(v) {
			continue
		}
		col := e.matrixColumn(v)
		var s float64
		for i, yv := range y {
			s += yv * col[i]
		}
		dual[v] = -s
	}
	return dual, nil
}

// phase1Ray materializes an infeasibility certificate from the same
// composite row weights phase1Duals priced, analogous to how the dual
// engine's single-row DualRay is just that row's own BTRAN direction.
func (e *Engine) phase1Ray(rows []int) *DualRay {
	cB := make([]float64, e.LP.NumRow)
	for _, row := range rows {
		cB[row] = e.phase1Sign(row)
	}
	y, err := e.Fac.BTRAN(cB)
	if err != nil {
		return nil
	}
	return &DualRay{Row: rows[0], Direction: y}
}

// relaxedBound is one bound temporarily narrowed by relaxInfeasibleBounds.
type relaxedBound struct {
	v     int
	lower bool
	value float64
}

// relaxInfeasibleBounds narrows the non-violated side of every currently
// infeasible basic variable's range to sit exactly at the violated bound,
// so the ordinary ratio test (which only ever checks the bound in the
// direction of travel) naturally stops the variable exactly when it
// first reaches feasibility, instead of using the true, unrelated bound
// on the far side. Returns what to restore.
func (e *Engine) relaxInfeasibleBounds(rows []int) []relaxedBound {
	var saved []relaxedBound
	for _, row := range rows {
		bv := e.Basis.BasicIndex[row]
		val := e.Data.WorkValue[bv]
		switch {
		case val < e.Data.WorkLower[bv]:
			saved = append(saved, relaxedBound{bv, false, e.Data.WorkUpper[bv]})
			e.Data.WorkUpper[bv] = e.Data.WorkLower[bv]
		case val > e.Data.WorkUpper[bv]:
			saved = append(saved, relaxedBound{bv, true, e.Data.WorkLower[bv]})
			e.Data.WorkLower[bv] = e.Data.WorkUpper[bv]
		}
	}
	return saved
}

func (e *Engine) restoreBounds(saved []relaxedBound) {
	for _, s := range saved {
		if s.lower {
			e.Data.WorkLower[s.v] = s.value
		} else {
			e.Data.WorkUpper[s.v] = s.value
		}
	}
}

// primalLoop is Phase 2: CHUZC picks the nonbasic column with the best
// Devex-weighted reduced cost, FTRAN recovers its column, CHUZR
// ratio-tests basic variables for the first one to hit a bound, and
// UPDATE folds the pivot in exactly as the dual side does.
func (e *Engine) primalLoop(limits Limits) (Result, error) {
	e.recomputeDuals()
	devex := make([]float64, e.Basis.NumTot())
	for i := range devex {
		devex[i] = 1
	}

	for {
		if limits.MaxIterations > 0 && e.Data.Iteration >= limits.MaxIterations {
			return Result{Status: IterationLimit, Iterations: e.Data.Iteration}, nil
		}
		if e.timeUp(limits) {
			return Result{Status: TimeLimit, Iterations: e.Data.Iteration}, nil
		}
		if e.cancelled() {
			return Result{Status: Interrupted, Iterations: e.Data.Iteration}, nil
		}

		enterVar, wantIncrease := e.chuzcPrimal(devex, e.Data.WorkDual)
		if enterVar < 0 {
			return Result{Status: Optimal, Iterations: e.Data.Iteration}, nil
		}

		col, err := e.Fac.FTRAN(e.matrixColumn(enterVar))
		if err != nil {
			return Result{Status: Unknown, Iterations: e.Data.Iteration}, err
		}

		row, leaveVar, theta, ok := e.chuzrPrimal(col, enterVar, wantIncrease)
		if !ok {
			ray := &PrimalRay{EnterVar: enterVar, Direction: col}
			return Result{Status: Unbounded, Iterations: e.Data.Iteration, PrimalRay: ray}, nil
		}

		alpha := make([]float64, e.Basis.NumTot())
		btranRow, err := e.Fac.BTRAN(unitVector(e.LP.NumRow, row))
		if err == nil {
			alpha = e.priceRow(btranRow)
		}

		e.pivotPrimal(row, leaveVar, enterVar, col, theta, wantIncrease, alpha)
		e.updateDevex(devex, row, col, enterVar)
		e.Data.Iteration++
		e.Data.UpdateCount++

		if e.markVisited() {
			e.perturbBounds()
		}
		if e.Fac.NeedsRefactor() {
			if err := e.refactorIfNeeded(); err != nil {
				return Result{Status: Unknown, Iterations: e.Data.Iteration}, err
			}
			e.recomputeDuals()
		}
	}
}

// chuzcPrimal picks the nonbasic column with the most attractive
// weighted reduced cost read from dual (WorkDual in Phase 2, the
// composite Phase 1 objective's priced reduced costs in Phase 1).
// devex may be nil, in which case every candidate is weighted equally
// (Phase 1 has no reference framework of its own). Returns -1 when every
// nonbasic reduced cost already satisfies feasibility for that objective.
func (e *Engine) chuzcPrimal(devex, dual []float64) (enterVar int, increase bool) {
	best := e.tol.Optimality
	enterVar = -1
	for v := 0; v < e.Basis.NumTot(); v++ {
		if e.Basis.IsBasic(v) {
			continue
		}
		d := dual[v]
		var candidate bool
		var inc bool
		switch e.Basis.NonbasicMove[v] {
		case 1: // MoveUp
			candidate = d < -e.tol.Optimality
			inc = true
		case -1: // MoveDown
			candidate = d > e.tol.Optimality
			inc = false
		default:
			candidate = math.Abs(d) > e.tol.Optimality
			inc = d < 0
		}
		if !candidate {
			continue
		}
		w := 1.0
		if devex != nil {
			w = devex[v]
		}
		score := d * d / w
		if score > best {
			best, enterVar, increase = score, v, inc
		}
	}
	return enterVar, increase
}

// chuzrPrimal ratio-tests the basic variables against the FTRAN column to
// find the first one blocking the entering variable's travel.
func (e *Engine) chuzrPrimal(col []float64, enterVar int, increase bool) (row, leaveVar int, theta float64, ok bool) {
	theta = math.Inf(1)
	row = -1
	dir := 1.0
	if !increase {
		dir = -1
	}
	for i, bv := range e.Basis.BasicIndex {
		rate := dir * col[i]
		if math.Abs(rate) < e.tol.PivotAccept {
			continue
		}
		lo, up := e.Data.WorkLower[bv], e.Data.WorkUpper[bv]
		val := e.Data.WorkValue[bv]
		var limit float64
		if rate > 0 {
			if math.IsInf(lo, -1) {
				continue
			}
			limit = (val - lo) / rate
		} else {
			if math.IsInf(up, 1) {
				continue
			}
			limit = (val - up) / rate
		}
		if limit < -1e-9 {
			limit = 0
		}
		if limit < theta {
			theta, row, leaveVar = limit, i, bv
		}
	}
	if row < 0 {
		return -1, -1, 0, false
	}
	return row, leaveVar, theta, true
}

func (e *Engine) pivotPrimal(row, leaveVar, enterVar int, col []float64, theta float64, increase bool, alpha []float64) {
	dir := 1.0
	if !increase {
		dir = -1
	}
	step := dir * theta

	// leaveVar's own post-pivot value comes from the same update formula
	// as every other basic variable: chuzrPrimal already chose theta as
	// exactly the step that drives it to the bound it was ratio-tested
	// against, so it lands there up to float noise. Which of its true
	// bounds that is cannot be read off the travel direction alone: in
	// Phase 1 a variable above its upper bound travels down onto that
	// upper bound (the ratio test ran against a temporarily narrowed lower
	// bound that is restored before this pivot), so the bound nearest the
	// landed value is the one it becomes nonbasic at.
	for i, bv := range e.Basis.BasicIndex {
		e.Data.WorkValue[bv] -= col[i] * step
	}
	e.Data.WorkValue[enterVar] += step

	pivotElem := col[row]
	if pivotElem == 0 {
		pivotElem = 1e-12
	}
	dualEnter := e.Data.WorkDual[enterVar]
	if len(alpha) == e.Basis.NumTot() && alpha[enterVar] != 0 {
		dualStep := dualEnter / alpha[enterVar]
		for v := 0; v < e.Basis.NumTot(); v++ {
			if e.Basis.IsBasic(v) || v == enterVar {
				continue
			}
			e.Data.WorkDual[v] -= dualStep * alpha[v]
		}
		e.Data.WorkDual[leaveVar] = -dualStep
	} else {
		e.Data.WorkDual[leaveVar] = -dualEnter / pivotElem
	}
	e.Data.WorkDual[enterVar] = 0

	e.Basis.NonbasicFlag[leaveVar] = true
	e.Basis.NonbasicFlag[enterVar] = false
	e.Basis.BasicIndex[row] = enterVar
	leaveVal := e.Data.WorkValue[leaveVar]
	atUpper := math.Abs(leaveVal-e.Data.WorkUpper[leaveVar]) < math.Abs(leaveVal-e.Data.WorkLower[leaveVar])
	e.setNonbasicAtTarget(leaveVar, atUpper)

	e.Fac.Update(row, col)
}

func (e *Engine) updateDevex(devex []float64, row int, col []float64, enterVar int) {
	pivotElem := col[row]
	if pivotElem == 0 {
		pivotElem = 1e-12
	}
	gamma := devex[enterVar]
	for i, bv := range e.Basis.BasicIndex {
		if i == row {
			continue
		}
		ratio := col[i] / pivotElem
		devex[bv] = math.Max(devex[bv], ratio*ratio*gamma)
	}
	devex[e.Basis.BasicIndex[row]] = math.Max(gamma/(pivotElem*pivotElem), 1)
}
