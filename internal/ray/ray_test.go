package ray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elp "github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/simplex"
	"github.com/ekksolve/ekk/internal/sparse"
)

func twoRowLP(t *testing.T) *elp.LP {
	t.Helper()
	l := elp.New(1, 2)
	m, err := sparse.NewFromSlices(1, 2, sparse.RowWise, []int{0, 2}, []int{0, 1}, []float64{1, 1})
	require.NoError(t, err)
	l.AMatrix = m
	l.ColLower = []float64{0, 0}
	l.ColUpper = []float64{1e30, 1e30}
	l.RowLower = []float64{5}
	l.RowUpper = []float64{5}
	return l
}

func TestFromDualBuildsColSign(t *testing.T) {
	l := twoRowLP(t)
	r := &simplex.DualRay{Row: 0, Direction: []float64{2}}
	dr := FromDual(l, r)
	require.NotNil(t, dr)
	assert.Equal(t, []float64{2}, dr.RowWeight)
	assert.Equal(t, []float64{2, 2}, dr.ColSign)
}

func TestFromDualNilInput(t *testing.T) {
	assert.Nil(t, FromDual(twoRowLP(t), nil))
}

func TestFromPrimalExpandsDirection(t *testing.T) {
	l := twoRowLP(t)
	r := &simplex.PrimalRay{EnterVar: 1, Direction: []float64{-1}}
	basicIndex := []int{0} // column 0 basic in row 0
	pr := FromPrimal(l, r, basicIndex)
	require.NotNil(t, pr)
	assert.Equal(t, []float64{1, 1}, pr.ColDirection)
}

func TestExtractIISFixesPositiveRowsUntilFeasible(t *testing.T) {
	calls := 0
	solve := func(rowPenalty, colPenalty []float64) ([]int, []int, bool, error) {
		calls++
		if calls == 1 {
			return []int{0}, nil, false, nil
		}
		return nil, nil, true, nil
	}
	report, err := ExtractIIS(2, 0, []bool{false, false}, nil, solve, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, report.Rows)
	assert.Equal(t, 2, calls)
}

func TestExtractIISRespectsExemptRows(t *testing.T) {
	solve := func(rowPenalty, colPenalty []float64) ([]int, []int, bool, error) {
		assert.Equal(t, 0.0, rowPenalty[1])
		return nil, nil, true, nil
	}
	_, err := ExtractIIS(2, 0, []bool{false, true}, nil, solve, 5)
	require.NoError(t, err)
}

func TestVerifyDetectsInfeasibleCombination(t *testing.T) {
	l := twoRowLP(t)
	l.RowLower[0] = 10
	l.RowUpper[0] = 10
	l.ColUpper = []float64{1, 1}
	dr := &DualRay{RowWeight: []float64{1}, ColSign: []float64{1, 1}}
	assert.True(t, Verify(l, dr, 1e-9))
}

func TestVerifyReturnsFalseOnNilRay(t *testing.T) {
	assert.False(t, Verify(twoRowLP(t), nil, 1e-9))
}
