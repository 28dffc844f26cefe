package simplexdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogicalBasis(t *testing.T) {
	b := New(2, 3)
	for j := 0; j < 3; j++ {
		assert.True(t, b.NonbasicFlag[j])
		assert.Equal(t, Lower, b.Status[j])
	}
	for i := 0; i < 2; i++ {
		v := 3 + i
		assert.False(t, b.NonbasicFlag[v])
		assert.Equal(t, Basic, b.Status[v])
		assert.Equal(t, v, b.BasicIndex[i])
	}
}

func TestAppendColsAndRows(t *testing.T) {
	b := New(1, 1)
	b.AppendCols(2)
	assert.Equal(t, 3, b.NumCol)
	assert.Len(t, b.NonbasicFlag, 4) // 3 structural + 1 slack

	b.AppendRows(1)
	assert.Equal(t, 2, b.NumRow)
	assert.Len(t, b.BasicIndex, 2)
}

func TestDeleteColsRefusesBasicColumn(t *testing.T) {
	b := New(1, 2)
	b.NonbasicFlag[0] = false // pretend col 0 is basic
	remap := []int{-1, 0}
	err := b.DeleteCols(remap)
	require.Error(t, err)
}

func TestDeleteColsRemapsBasicIndex(t *testing.T) {
	b := New(1, 3)
	// Make column 1 basic in row 0, displacing the slack.
	b.NonbasicFlag[1] = false
	b.BasicIndex[0] = 1
	b.NonbasicFlag[3] = true

	remap := []int{0, 1, -1} // delete column 2 (nonbasic, at lower)
	require.NoError(t, b.DeleteCols(remap))
	assert.Equal(t, 2, b.NumCol)
	assert.Equal(t, 1, b.BasicIndex[0])
}

func TestDeleteRowsCleanCaseRemapsBasicIndex(t *testing.T) {
	b := New(2, 2) // NumCol=2 structurals, 2 rows, slacks at index 2,3
	// Both rows' own slacks are basic (the logical basis), so deleting
	// row 0 is the clean, non-tight case.
	remap := []int{-1, 0}
	require.NoError(t, b.DeleteRows(remap))
	assert.True(t, b.Valid)
	assert.Equal(t, 1, b.NumRow)
	require.Len(t, b.BasicIndex, 1)
	assert.Equal(t, b.NumCol, b.BasicIndex[0]) // remaining slack renumbered to NumCol+0
}

func TestDeleteRowsTightRowInvalidatesBasis(t *testing.T) {
	b := New(2, 2)
	// Pivot column 0 into row 0's basic slot, displacing that row's own
	// slack (row 0 is now tight: its slack is nonbasic).
	b.BasicIndex[0] = 0
	b.NonbasicFlag[0] = false
	b.NonbasicFlag[b.NumCol] = true // slack for row 0 now nonbasic

	remap := []int{-1, 0}
	require.NoError(t, b.DeleteRows(remap))
	assert.False(t, b.Valid, "deleting a tight row must invalidate the basis")
	assert.Equal(t, 1, b.NumRow)
	// Reset to the fresh logical basis at the reduced size.
	require.Len(t, b.BasicIndex, 1)
	assert.Equal(t, b.NumCol, b.BasicIndex[0])
	assert.True(t, b.NonbasicFlag[0], "structural column should be back to nonbasic in the reset basis")
}

func TestCollapseNeverRaisesStage(t *testing.T) {
	d := NewData(5, 2)
	d.Stage = StageHasDualSteepestEdgeWeights
	d.Collapse(StageHasBasis)
	assert.Equal(t, StageHasBasis, d.Stage)
	d.Collapse(StageHasInvert)
	assert.Equal(t, StageHasBasis, d.Stage, "collapse must never raise the stage")
}
