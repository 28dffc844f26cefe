package lp

import "math"

// Tolerances bundles the numeric thresholds referenced throughout
// spec.md (infinite bound/cost, feasibility, pivot acceptance).
type Tolerances struct {
	InfiniteBound  float64
	InfiniteCost   float64
	SmallMatrixVal float64
	LargeMatrixVal float64
	Feasibility    float64
	PivotAccept    float64
	Optimality     float64

	// Margin scales how far a KKT residual may exceed its raw tolerance
	// (as a ratio, violation/tolerance) and still be accepted: a solution
	// whose residuals miss the raw tolerances but stay within Margin times
	// them is reported Optimal, and beyond that Unknown (spec.md 4.I).
	Margin float64
}

// DefaultTolerances mirrors HiGHS's usual defaults (1e-7 feasibility,
// 1e15 infinite bound) closely enough for a teaching-scale core.
func DefaultTolerances() Tolerances {
	return Tolerances{
		InfiniteBound:  1e15,
		InfiniteCost:   1e15,
		SmallMatrixVal: 1e-12,
		LargeMatrixVal: 1e15,
		Feasibility:    1e-7,
		PivotAccept:    1e-9,
		Optimality:     1e-7,
		Margin:         100,
	}
}

// Modification records a column's original cost/bounds before an
// infinite cost was temporarily rewritten to a finite fixing for the
// duration of a solve (spec.md §3 "Modifications log").
type Modification struct {
	Col                          int
	OrigCost, OrigLower, OrigUpper float64
}

// ModelState is component C: the LP together with its Hessian, the two
// scaling layers, and the modifications log, plus the dirty-level that
// mutation operations advance.
type ModelState struct {
	LP     *LP
	Scale  *Scale
	Mods   []Modification
	Tol    Tolerances

	hasInfiniteCost      bool
	hasInfiniteCostValid bool
}

// NewModelState wraps a freshly built LP.
func NewModelState(l *LP) *ModelState {
	return &ModelState{
		LP:    l,
		Scale: NewScale(l.NumRow, l.NumCol),
		Tol:   DefaultTolerances(),
	}
}

// EnsureColWise delegates to the LP.
func (s *ModelState) EnsureColWise() { s.LP.EnsureColWise() }

// EnsureRowWise delegates to the LP.
func (s *ModelState) EnsureRowWise() { s.LP.EnsureRowWise() }

// AssessBounds validates and normalizes column and row bounds against the
// configured infinite-bound threshold.
func (s *ModelState) AssessBounds() error {
	cl, cu, err := AssessBounds(s.LP.ColLower, s.LP.ColUpper, s.Tol.InfiniteBound)
	if err != nil {
		return err
	}
	rl, ru, err := AssessBounds(s.LP.RowLower, s.LP.RowUpper, s.Tol.InfiniteBound)
	if err != nil {
		return err
	}
	s.LP.ColLower, s.LP.ColUpper = cl, cu
	s.LP.RowLower, s.LP.RowUpper = rl, ru
	return nil
}

// AssessCosts validates and normalizes the objective coefficients.
func (s *ModelState) AssessCosts() error {
	c, err := AssessCosts(s.LP.ColCost, s.Tol.InfiniteCost)
	if err != nil {
		return err
	}
	s.LP.ColCost = c
	s.invalidateInfiniteCost()
	return nil
}

func (s *ModelState) invalidateInfiniteCost() { s.hasInfiniteCostValid = false }

// HasInfiniteCost is the memoized, invalidation-aware predicate required
// by spec.md 4.C's invariant.
func (s *ModelState) HasInfiniteCost() bool {
	if !s.hasInfiniteCostValid {
		s.hasInfiniteCost = s.LP.HasInfiniteCost(s.Tol.InfiniteCost)
		s.hasInfiniteCostValid = true
	}
	return s.hasInfiniteCost
}

// FixInfiniteCosts rewrites any column whose cost magnitude is at or
// above the infinite-cost threshold to a finite fixing (its finite lower
// bound if it has one, else its finite upper bound, else zero), with zero
// cost,
// recording the original in the modifications log so RestoreInfiniteCosts
// can undo it exactly.
func (s *ModelState) FixInfiniteCosts() {
	if !s.HasInfiniteCost() {
		return
	}
	s.Mods = s.Mods[:0]
	for j, c := range s.LP.ColCost {
		if math.Abs(c) < s.Tol.InfiniteCost {
			continue
		}
		s.Mods = append(s.Mods, Modification{
			Col:       j,
			OrigCost:  c,
			OrigLower: s.LP.ColLower[j],
			OrigUpper: s.LP.ColUpper[j],
		})
		fix := 0.0
		switch {
		case !math.IsInf(s.LP.ColLower[j], -1):
			fix = s.LP.ColLower[j]
		case !math.IsInf(s.LP.ColUpper[j], 1):
			fix = s.LP.ColUpper[j]
		}
		s.LP.ColCost[j] = 0
		s.LP.ColLower[j] = fix
		s.LP.ColUpper[j] = fix
	}
	s.invalidateInfiniteCost()
}

// RestoreInfiniteCosts reverses FixInfiniteCosts exactly, per spec.md's
// modifications-log invariant.
func (s *ModelState) RestoreInfiniteCosts() {
	for _, m := range s.Mods {
		s.LP.ColCost[m.Col] = m.OrigCost
		s.LP.ColLower[m.Col] = m.OrigLower
		s.LP.ColUpper[m.Col] = m.OrigUpper
	}
	s.Mods = s.Mods[:0]
	s.invalidateInfiniteCost()
}
