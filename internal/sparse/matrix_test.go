package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleColWise() *Matrix {
	// [[1, 0, 2],
	//  [0, 3, 0]]
	m, _ := NewFromSlices(2, 3, ColWise,
		[]int{0, 1, 2, 3},
		[]int{0, 1, 0},
		[]float64{1, 3, 2},
	)
	return m
}

func TestRoundTripConversion(t *testing.T) {
	m := sampleColWise()
	original := m.Entries()

	m.EnsureRowWise()
	assert.Equal(t, RowWise, m.Format)
	assert.Equal(t, original, m.Entries())

	m.EnsureColWise()
	assert.Equal(t, ColWise, m.Format)
	assert.Equal(t, original, m.Entries())
}

func TestGetRowGetColBothOrientations(t *testing.T) {
	m := sampleColWise()
	idx, val := m.GetRow(0)
	assert.Equal(t, []int{0, 2}, idx)
	assert.Equal(t, []float64{1, 2}, val)

	m.EnsureRowWise()
	idx, val = m.GetCol(0)
	assert.Equal(t, []int{0}, idx)
	assert.Equal(t, []float64{1}, val)
}

func TestNonMonotoneStartRejected(t *testing.T) {
	_, err := NewFromSlices(2, 2, ColWise, []int{0, 2, 1}, []int{0, 1}, []float64{1, 1})
	require.Error(t, err)
}

func TestAddColsAndAddRows(t *testing.T) {
	m := sampleColWise()
	block, _ := NewFromSlices(2, 1, ColWise, []int{0, 1}, []int{1}, []float64{9})
	require.NoError(t, m.AddCols(block))
	assert.Equal(t, 4, m.NumCol)
	idx, val := m.GetCol(3)
	assert.Equal(t, []int{1}, idx)
	assert.Equal(t, []float64{9}, val)

	rowBlock, _ := NewFromSlices(1, 4, RowWise, []int{0, 2}, []int{0, 3}, []float64{5, 6})
	require.NoError(t, m.AddRows(rowBlock))
	assert.Equal(t, 3, m.NumRow)
	idx, val = m.GetRow(2)
	assert.Equal(t, []int{0, 3}, idx)
	assert.Equal(t, []float64{5, 6}, val)
}

func TestDeleteColsWithMaskWriteback(t *testing.T) {
	m := sampleColWise()
	mask := Mask{0, 1, 0}
	require.NoError(t, m.DeleteCols(&mask))
	assert.Equal(t, 2, m.NumCol)
	assert.Equal(t, Mask{0, -1, 1}, mask)
}

func TestDeleteRowsInterval(t *testing.T) {
	m := sampleColWise()
	require.NoError(t, m.DeleteRows(Interval{Lo: 0, Hi: 0}))
	assert.Equal(t, 1, m.NumRow)
	idx, val := m.GetRow(0)
	assert.Equal(t, []int{1}, idx)
	assert.Equal(t, []float64{3.0}, val)
}

func TestAssessRejectsTinyAndHugeEntries(t *testing.T) {
	m := sampleColWise()
	assert.NoError(t, m.Assess(1e-12, 1e15))

	tiny, _ := NewFromSlices(1, 1, ColWise, []int{0, 1}, []int{0}, []float64{1e-20})
	assert.Error(t, tiny.Assess(1e-12, 1e15))

	huge, _ := NewFromSlices(1, 1, ColWise, []int{0, 1}, []int{0}, []float64{1e20})
	assert.Error(t, huge.Assess(1e-12, 1e15))
}

func TestApplyRowAndColScale(t *testing.T) {
	m := sampleColWise()
	m.ApplyRowScale([]float64{2, 10})
	idx, val := m.GetRow(1)
	assert.Equal(t, []int{1}, idx)
	assert.Equal(t, []float64{30}, val)

	m2 := sampleColWise()
	m2.ApplyColScale([]float64{1, 1, 5})
	idx, val = m2.GetCol(2)
	assert.Equal(t, []int{0}, idx)
	assert.Equal(t, []float64{10}, val)
}
