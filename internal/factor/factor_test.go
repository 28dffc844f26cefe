package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekksolve/ekk/internal/sparse"
)

func identityLP(n int) *sparse.Matrix {
	start := make([]int, n+1)
	index := make([]int, n)
	value := make([]float64, n)
	for i := 0; i < n; i++ {
		start[i+1] = i + 1
		index[i] = i
		value[i] = 1
	}
	m, _ := sparse.NewFromSlices(n, n, sparse.ColWise, start, index, value)
	return m
}

func TestComputeFactorIdentity(t *testing.T) {
	a := identityLP(3)
	f := New(3)
	info, err := f.ComputeFactor(a, []int{0, 1, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rank)
	assert.False(t, info.NumericTrouble)

	x, err := f.FTRAN([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, x, 1e-9)
}

func TestComputeFactorDetectsSingularBasis(t *testing.T) {
	// Two identical columns as the "basis" for a 2x2 system: singular.
	m, _ := sparse.NewFromSlices(2, 2, sparse.ColWise, []int{0, 2, 4}, []int{0, 1, 0, 1}, []float64{1, 1, 1, 1})
	f := New(2)
	info, err := f.ComputeFactor(m, []int{0, 1}, 2)
	require.NoError(t, err)
	assert.True(t, info.NumericTrouble)
}

func TestBTRANMatchesTransposeSolve(t *testing.T) {
	// B = [[2,0],[1,3]]; B^T y = [2,3] => y = [0.5, 1].
	m, _ := sparse.NewFromSlices(2, 2, sparse.ColWise, []int{0, 2, 3}, []int{0, 1, 1}, []float64{2, 1, 3})
	f := New(2)
	_, err := f.ComputeFactor(m, []int{0, 1}, 2)
	require.NoError(t, err)

	y, err := f.BTRAN([]float64{2, 3})
	require.NoError(t, err)
	// B^T = [[2,1],[0,3]]; solving B^T y = [2,3]: 3y2=3 => y2=1; 2y1+y2=2 => y1=0.5
	assert.InDeltaSlice(t, []float64{0.5, 1.0}, y, 1e-9)
}

func TestUpdateThenNeedsRefactor(t *testing.T) {
	a := identityLP(2)
	f := New(2)
	f.updateBudget = 2
	_, err := f.ComputeFactor(a, []int{0, 1}, 2)
	require.NoError(t, err)

	require.NoError(t, f.Update(0, []float64{5, 0}))
	assert.False(t, f.NeedsRefactor())
	require.NoError(t, f.Update(0, []float64{5, 0}))
	assert.True(t, f.NeedsRefactor())
}
