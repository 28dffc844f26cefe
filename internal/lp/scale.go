package lp

import (
	"math"

	"github.com/pkg/errors"
)

// Scale holds the two independent scaling layers of spec.md §3: internal
// row/column conditioning scales computed by the solver, and user bound-
// and cost-scale integer exponents the caller controls directly. Scale
// never points into the matrix (spec.md §9); it is applied on demand.
type Scale struct {
	RowScale []float64
	ColScale []float64

	UserBoundScale int
	UserCostScale  int
}

// NewScale returns identity scaling for the given dimensions.
func NewScale(numRow, numCol int) *Scale {
	s := &Scale{
		RowScale: make([]float64, numRow),
		ColScale: make([]float64, numCol),
	}
	for i := range s.RowScale {
		s.RowScale[i] = 1
	}
	for j := range s.ColScale {
		s.ColScale[j] = 1
	}
	return s
}

// GrowCols extends ColScale with identity entries for newly added columns.
func (s *Scale) GrowCols(n int) {
	for i := 0; i < n; i++ {
		s.ColScale = append(s.ColScale, 1)
	}
}

// GrowRows extends RowScale with identity entries for newly added rows.
func (s *Scale) GrowRows(n int) {
	for i := 0; i < n; i++ {
		s.RowScale = append(s.RowScale, 1)
	}
}

// DeleteCols removes ColScale entries at the given (already resolved,
// ascending) positions.
func (s *Scale) DeleteCols(idx []int) {
	s.ColScale = deleteAt(s.ColScale, idx)
}

// DeleteRows removes RowScale entries at the given (already resolved,
// ascending) positions.
func (s *Scale) DeleteRows(idx []int) {
	s.RowScale = deleteAt(s.RowScale, idx)
}

func deleteAt(v []float64, idx []int) []float64 {
	if len(idx) == 0 {
		return v
	}
	del := make(map[int]bool, len(idx))
	for _, i := range idx {
		del[i] = true
	}
	out := make([]float64, 0, len(v)-len(idx))
	for i, x := range v {
		if !del[i] {
			out = append(out, x)
		}
	}
	return out
}

// applyUserScale multiplies every element of vals by 2^exp.
func applyUserScale(vals []float64, exp int) []float64 {
	factor := math.Ldexp(1, exp)
	out := make([]float64, len(vals))
	for i, v := range vals {
		if math.IsInf(v, 0) {
			out[i] = v
			continue
		}
		out[i] = v * factor
	}
	return out
}

// SetUserBoundScale multiplies the given column and row bounds by 2^exp
// and returns the newly scaled bounds (the facade passes the current
// bounds and adds exp to the running UserBoundScale). It refuses (spec.md §3 invariant) if
// the result would overflow the infinite-bound threshold, leaving the LP
// untouched.
func SetUserBoundScale(origColLower, origColUpper, origRowLower, origRowUpper []float64, exp int, infiniteBound float64) (colLower, colUpper, rowLower, rowUpper []float64, err error) {
	colLower = applyUserScale(origColLower, exp)
	colUpper = applyUserScale(origColUpper, exp)
	rowLower = applyUserScale(origRowLower, exp)
	rowUpper = applyUserScale(origRowUpper, exp)
	for _, v := range append(append(append(append([]float64{}, colLower...), colUpper...), rowLower...), rowUpper...) {
		if !math.IsInf(v, 0) && math.Abs(v) > infiniteBound {
			return nil, nil, nil, nil, errors.Errorf("lp: user bound scale 2^%d overflows infinite-bound threshold", exp)
		}
	}
	return colLower, colUpper, rowLower, rowUpper, nil
}

// SetUserCostScale multiplies all costs by 2^exp relative to origCost,
// refusing overflow past infiniteCost.
func SetUserCostScale(origCost []float64, exp int, infiniteCost float64) ([]float64, error) {
	cost := applyUserScale(origCost, exp)
	for _, v := range cost {
		if math.Abs(v) > infiniteCost {
			return nil, errors.Errorf("lp: user cost scale 2^%d overflows infinite-cost threshold", exp)
		}
	}
	return cost, nil
}

// UnscalePrimal maps an internal-scale primal value back to user units:
// divide by the user bound scale, i.e. multiply by 2^-exp.
func UnscalePrimal(v float64, userBoundScale int) float64 {
	return v * math.Ldexp(1, -userBoundScale)
}

// UnscaleDual maps an internal-scale dual value back to user units.
func UnscaleDual(v float64, userCostScale, userBoundScale int) float64 {
	return v * math.Ldexp(1, -(userCostScale-userBoundScale))
}
