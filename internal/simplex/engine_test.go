package simplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elp "github.com/ekksolve/ekk/internal/lp"
	"github.com/ekksolve/ekk/internal/simplexdata"
	"github.com/ekksolve/ekk/internal/sparse"
)

// buildLP constructs: minimize x+y s.t. 1 <= x+y (row), 0<=x,y<=10.
func buildLP(t *testing.T) *elp.LP {
	t.Helper()
	l := elp.New(1, 2)
	l.ColCost = []float64{1, 1}
	l.ColUpper = []float64{10, 10}
	m, err := sparse.NewFromSlices(1, 2, sparse.RowWise, []int{0, 2}, []int{0, 1}, []float64{1, 1})
	require.NoError(t, err)
	l.AMatrix = m
	l.RowLower = []float64{1}
	l.RowUpper[0] = 1e30
	return l
}

func TestApplyActionCollapsesStage(t *testing.T) {
	l := buildLP(t)
	e := New(l, elp.DefaultTolerances())
	e.Data.Stage = simplexdata.StageHasDualSteepestEdgeWeights
	e.ApplyAction(elp.ActionNewCosts)
	assert.Equal(t, simplexdata.StageHasInvert, e.Data.Stage)

	e.Data.Stage = simplexdata.StageHasInvert
	e.ApplyAction(elp.ActionNewCols)
	assert.Equal(t, simplexdata.StageNone, e.Data.Stage)
}

func TestChuzrPicksMostInfeasibleRow(t *testing.T) {
	l := buildLP(t)
	e := New(l, elp.DefaultTolerances())
	// Slack (basic) work value starts at 0, bounded to (-1e30, -1]:
	// infeasible above its upper bound, so the signed infeasibility is positive.
	row, v, infeas := e.chuzr()
	require.GreaterOrEqual(t, row, 0)
	assert.Equal(t, e.Basis.BasicIndex[row], v)
	assert.Greater(t, infeas, 0.0)
}

func TestPriceRowDotsColumnsCorrectly(t *testing.T) {
	l := buildLP(t)
	e := New(l, elp.DefaultTolerances())
	btranRow := []float64{2.0}
	alpha := e.priceRow(btranRow)
	assert.Equal(t, 2.0, alpha[0])
	assert.Equal(t, 2.0, alpha[1])
	assert.Equal(t, 2.0, alpha[2]) // slack column is the unit column itself
}

func TestMatrixColumnHandlesSlack(t *testing.T) {
	l := buildLP(t)
	e := New(l, elp.DefaultTolerances())
	col := e.matrixColumn(2) // slack for row 0
	assert.Equal(t, []float64{1}, col)
	col = e.matrixColumn(0)
	assert.Equal(t, []float64{1}, col)
}

func TestSignForEntryMatchesMoveDirection(t *testing.T) {
	assert.Equal(t, -1.0, signForEntry(simplexdata.MoveUp, true))
	assert.Equal(t, 1.0, signForEntry(simplexdata.MoveUp, false))
	assert.Equal(t, 1.0, signForEntry(simplexdata.MoveDown, true))
	assert.Equal(t, -1.0, signForEntry(simplexdata.MoveDown, false))
}
