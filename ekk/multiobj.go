package ekk

import "context"

// Objective is one term of a multi-objective solve: a cost vector over
// the model's columns and, for lexicographic mode, its priority (higher
// number solved first, and locked before any lower-priority objective).
type Objective struct {
	Name     string
	Cost     []float64
	Priority int
	Weight   float64 // used only in blended mode
}

// MultiObjectiveResult reports the per-objective values achieved along
// with the final combined solution.
type MultiObjectiveResult struct {
	Solution   *Solution
	Achieved   []float64 // per Objective, in the order passed in
}

// SolveBlended combines every objective into a single weighted-sum cost
// vector and solves once (spec.md 4.H "blended mode").
func (m *Model) SolveBlended(objectives []Objective, opts ...SolveOption) (*MultiObjectiveResult, error) {
	return m.SolveBlendedContext(context.Background(), objectives, opts...)
}

// SolveBlendedContext is SolveBlended with cooperative cancellation.
func (m *Model) SolveBlendedContext(ctx context.Context, objectives []Objective, opts ...SolveOption) (*MultiObjectiveResult, error) {
	n := m.NumVars()
	blended := make([]float64, n)
	for _, obj := range objectives {
		for j, c := range obj.Cost {
			if j >= n {
				break
			}
			blended[j] += obj.Weight * c
		}
	}
	saved := m.ColCosts
	m.ColCosts = blended
	sol, err := m.SolveContext(ctx, opts...)
	m.ColCosts = saved
	if err != nil {
		return nil, err
	}
	res := &MultiObjectiveResult{Solution: sol}
	if sol.HasSolution() {
		res.Achieved = make([]float64, len(objectives))
		for k, obj := range objectives {
			res.Achieved[k] = dotAt(obj.Cost, sol.ColValues)
		}
	}
	return res, nil
}

// SolveLexicographic solves each objective in priority order (highest
// Priority first), fixing every previously-optimized objective's value
// as a new equality constraint (within tol) before moving to the next,
// so lower-priority objectives can only break ties among solutions that
// are already optimal for every higher-priority one (spec.md 4.H
// "lexicographic mode").
func (m *Model) SolveLexicographic(objectives []Objective, tol float64, opts ...SolveOption) (*MultiObjectiveResult, error) {
	return m.SolveLexicographicContext(context.Background(), objectives, tol, opts...)
}

// SolveLexicographicContext is SolveLexicographic with cooperative
// cancellation.
func (m *Model) SolveLexicographicContext(ctx context.Context, objectives []Objective, tol float64, opts ...SolveOption) (*MultiObjectiveResult, error) {
	seen := make(map[int]bool, len(objectives))
	for _, obj := range objectives {
		if seen[obj.Priority] {
			return nil, newErrorMsg("SolveLexicographic", "repeated objective priority")
		}
		seen[obj.Priority] = true
	}
	ordered := prioritizedIndices(objectives)

	working := &Model{
		Maximize:    m.Maximize,
		Offset:      m.Offset,
		ColLower:    append([]float64(nil), m.ColLower...),
		ColUpper:    append([]float64(nil), m.ColUpper...),
		RowLower:    append([]float64(nil), m.RowLower...),
		RowUpper:    append([]float64(nil), m.RowUpper...),
		ConstMatrix: append([]Nonzero(nil), m.ConstMatrix...),
		Hessian:     append([]Nonzero(nil), m.Hessian...),
		VarTypes:    append([]VariableType(nil), m.VarTypes...),
	}

	var sol *Solution
	achieved := make([]float64, len(objectives))
	for _, idx := range ordered {
		obj := objectives[idx]
		working.ColCosts = append([]float64(nil), obj.Cost...)
		var err error
		sol, err = working.SolveContext(ctx, opts...)
		if err != nil {
			return nil, err
		}
		if !sol.HasSolution() {
			return &MultiObjectiveResult{Solution: sol, Achieved: achieved}, nil
		}
		val := dotAt(obj.Cost, sol.ColValues)
		achieved[idx] = val
		working.AddDenseRow(val-tol, obj.Cost, val+tol)
	}
	return &MultiObjectiveResult{Solution: sol, Achieved: achieved}, nil
}

// prioritizedIndices returns the indices of objectives in solve order:
// highest Priority first (spec.md 4.H "lexicographic mode" locks the
// highest-priority objective before any lower one is allowed to move).
func prioritizedIndices(objectives []Objective) []int {
	idx := make([]int, len(objectives))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && objectives[idx[j]].Priority > objectives[idx[j-1]].Priority; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

func dotAt(cost, x []float64) float64 {
	var s float64
	for j, c := range cost {
		if j >= len(x) {
			break
		}
		s += c * x[j]
	}
	return s
}
