// Package lp holds the LP/QP data model: bounds, costs, constraint
// matrix, Hessian, scaling, and the modifications log used to restore
// temporarily-fixed infinite costs after a solve.
package lp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ekksolve/ekk/internal/sparse"
)

// VarKind is the closed set of variable kinds a column may have.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	SemiContinuous
	SemiInteger
)

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Action is the typed token the model mutation API hands to the simplex
// engine so it can selectively invalidate derived state (spec.md 4.G).
type Action int

const (
	ActionNone Action = iota
	ActionNewCosts
	ActionNewBounds
	ActionNewRows
	ActionNewCols
	ActionDelCols
	ActionDelRows
	ActionScaledCol
	ActionScaledRow
	ActionNewCoefficient
)

// LP is the finite-dimensional LP/QP data model of spec.md §3.
type LP struct {
	NumCol int
	NumRow int

	ColCost  []float64
	ColLower []float64
	ColUpper []float64
	ColKind  []VarKind
	ColNames []string

	RowLower []float64
	RowUpper []float64
	RowNames []string

	AMatrix *sparse.Matrix // NumRow x NumCol, canonical format may vary
	Hessian *sparse.Matrix // NumCol x NumCol, upper triangular, may be nil

	Sense  Sense
	Offset float64
}

// New creates an empty LP with numRow rows and numCol columns, all
// columns continuous with bounds [0, +Inf), all rows with bounds
// [0, +Inf), zero costs and an empty constraint matrix.
func New(numRow, numCol int) *LP {
	l := &LP{
		NumCol:   numCol,
		NumRow:   numRow,
		ColCost:  make([]float64, numCol),
		ColLower: make([]float64, numCol),
		ColUpper: make([]float64, numCol),
		ColKind:  make([]VarKind, numCol),
		ColNames: make([]string, numCol),
		RowLower: make([]float64, numRow),
		RowUpper: make([]float64, numRow),
		RowNames: make([]string, numRow),
		AMatrix:  sparse.New(numRow, numCol, sparse.ColWise),
		Sense:    Minimize,
	}
	for j := range l.ColUpper {
		l.ColUpper[j] = math.Inf(1)
	}
	for i := range l.RowUpper {
		l.RowUpper[i] = math.Inf(1)
	}
	return l
}

// EnsureColWise delegates to the constraint matrix.
func (l *LP) EnsureColWise() { l.AMatrix.EnsureColWise() }

// EnsureRowWise delegates to the constraint matrix.
func (l *LP) EnsureRowWise() { l.AMatrix.EnsureRowWise() }

// Clone deep-copies the LP.
func (l *LP) Clone() *LP {
	c := *l
	c.ColCost = append([]float64(nil), l.ColCost...)
	c.ColLower = append([]float64(nil), l.ColLower...)
	c.ColUpper = append([]float64(nil), l.ColUpper...)
	c.ColKind = append([]VarKind(nil), l.ColKind...)
	c.ColNames = append([]string(nil), l.ColNames...)
	c.RowLower = append([]float64(nil), l.RowLower...)
	c.RowUpper = append([]float64(nil), l.RowUpper...)
	c.RowNames = append([]string(nil), l.RowNames...)
	c.AMatrix = l.AMatrix.Clone()
	if l.Hessian != nil {
		c.Hessian = l.Hessian.Clone()
	}
	return &c
}

// ObjectiveSign returns +1 for Minimize and -1 for Maximize, the factor
// that converts the LP to the engine's canonical minimization form.
func (l *LP) ObjectiveSign() float64 {
	if l.Sense == Maximize {
		return -1
	}
	return 1
}

// AssessBounds validates lower <= upper (within tolerance) for every
// column/row and returns a normalized copy in which bounds beyond
// -infiniteBound/+infiniteBound are replaced by -Inf/+Inf. It is
// the authoritative gate spec.md 4.C calls assessBounds.
func AssessBounds(lower, upper []float64, infiniteBound float64) ([]float64, []float64, error) {
	if len(lower) != len(upper) {
		return nil, nil, errors.New("lp: mismatched bound slice lengths")
	}
	nl := append([]float64(nil), lower...)
	nu := append([]float64(nil), upper...)
	for i := range nl {
		if math.IsNaN(nl[i]) || math.IsNaN(nu[i]) {
			return nil, nil, errors.Errorf("lp: NaN bound at index %d", i)
		}
		if nl[i] < -infiniteBound {
			nl[i] = math.Inf(-1)
		}
		if nu[i] > infiniteBound {
			nu[i] = math.Inf(1)
		}
		if nl[i] > nu[i]+1e-9 {
			return nil, nil, errors.Errorf("lp: infeasible bound pair at index %d: [%g, %g]", i, nl[i], nu[i])
		}
	}
	return nl, nu, nil
}

// AssessCosts validates that no cost exceeds an internal overflow guard
// after user cost scaling, per spec.md §3's user-scaling invariant.
func AssessCosts(cost []float64, infiniteCost float64) ([]float64, error) {
	nc := append([]float64(nil), cost...)
	for i, c := range nc {
		if math.IsNaN(c) {
			return nil, errors.Errorf("lp: NaN cost at index %d", i)
		}
		if math.Abs(c) > infiniteCost*1e8 {
			return nil, errors.Errorf("lp: cost at index %d overflows infinite-cost threshold", i)
		}
	}
	return nc, nil
}

// HasInfiniteCost is the authoritative predicate of spec.md 4.C: true iff
// any column cost has magnitude at or above the infinite-cost threshold.
func (l *LP) HasInfiniteCost(infiniteCost float64) bool {
	for _, c := range l.ColCost {
		if math.Abs(c) >= infiniteCost {
			return true
		}
	}
	return false
}
