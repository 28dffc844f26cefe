package lp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekksolve/ekk/internal/sparse"
)

func TestAssessBoundsClampsAndRejects(t *testing.T) {
	lo, up, err := AssessBounds([]float64{-1e20, 0}, []float64{1e20, 5}, 1e15)
	require.NoError(t, err)
	assert.True(t, math.IsInf(lo[0], -1))
	assert.True(t, math.IsInf(up[0], 1))
	assert.Equal(t, 0.0, lo[1])
	assert.Equal(t, 5.0, up[1])

	_, _, err = AssessBounds([]float64{5}, []float64{1}, 1e15)
	assert.Error(t, err)

	_, _, err = AssessBounds([]float64{math.NaN()}, []float64{1}, 1e15)
	assert.Error(t, err)
}

func TestHasInfiniteCostMemoization(t *testing.T) {
	l := New(0, 2)
	l.ColCost = []float64{1, 2}
	s := NewModelState(l)
	assert.False(t, s.HasInfiniteCost())

	l.ColCost[0] = 1e16
	assert.False(t, s.HasInfiniteCost(), "stale cache should not see the update yet")

	s.invalidateInfiniteCost()
	assert.True(t, s.HasInfiniteCost())
}

func TestFixAndRestoreInfiniteCosts(t *testing.T) {
	l := New(0, 2)
	l.ColCost = []float64{1e16, 3}
	l.ColLower = []float64{2, math.Inf(-1)}
	l.ColUpper = []float64{math.Inf(1), math.Inf(1)}
	s := NewModelState(l)

	s.FixInfiniteCosts()
	require.Len(t, s.Mods, 1)
	assert.Equal(t, 0.0, l.ColCost[0])
	assert.Equal(t, 2.0, l.ColLower[0])
	assert.Equal(t, 2.0, l.ColUpper[0])

	s.RestoreInfiniteCosts()
	assert.Equal(t, 1e16, l.ColCost[0])
	assert.Equal(t, 2.0, l.ColLower[0])
	assert.True(t, math.IsInf(l.ColUpper[0], 1))
	assert.Empty(t, s.Mods)
}

func TestAddColsValidatesAndAppends(t *testing.T) {
	l := New(2, 1)
	block, _ := sparse.NewFromSlices(2, 2, sparse.ColWise, []int{0, 1, 2}, []int{0, 1}, []float64{4, 5})
	err := l.AddCols([]float64{1, 2}, []float64{0, 0}, []float64{10, 10}, nil, nil, block)
	require.NoError(t, err)
	assert.Equal(t, 3, l.NumCol)
	assert.Equal(t, []float64{0, 1, 2}, l.ColCost)

	err = l.AddCols([]float64{1}, []float64{0, 0}, []float64{10, 10}, nil, nil, nil)
	assert.Error(t, err)
}

func TestDeleteColsShrinksParallelArrays(t *testing.T) {
	l := New(0, 3)
	l.ColCost = []float64{1, 2, 3}
	l.ColLower = []float64{0, 0, 0}
	l.ColUpper = []float64{9, 9, 9}
	require.NoError(t, l.DeleteCols(sparse.SortedSet{1}))
	assert.Equal(t, 2, l.NumCol)
	assert.Equal(t, []float64{1, 3}, l.ColCost)
}

func TestChangeCoefficientInsertsNewEntry(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.ChangeCoefficient(0, 0, 7))
	idx, val := l.AMatrix.GetCol(0)
	assert.Equal(t, []int{0}, idx)
	assert.Equal(t, []float64{7.0}, val)

	require.NoError(t, l.ChangeCoefficient(0, 0, 9))
	_, val = l.AMatrix.GetCol(0)
	assert.Equal(t, []float64{9.0}, val)
}

func TestScaleColFlipsBoundsOnNegativeFactor(t *testing.T) {
	l := New(0, 1)
	l.ColLower = []float64{1}
	l.ColUpper = []float64{5}
	require.NoError(t, l.ScaleCol(0, -2))
	assert.Equal(t, -10.0, l.ColLower[0])
	assert.Equal(t, -2.0, l.ColUpper[0])
}

func TestUserBoundScaleRefusesOverflow(t *testing.T) {
	_, _, _, _, err := SetUserBoundScale([]float64{0}, []float64{1e10}, []float64{0}, []float64{1}, 20, 1e15)
	assert.Error(t, err)
}
