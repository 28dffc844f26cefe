package ekk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSolveOptimalSimpleLP(t *testing.T) {
	// minimize x+y s.t. x+y=1, 0<=x,y<=10.
	m := &Model{
		ColCosts: []float64{1, 1},
		ColLower: []float64{0, 0},
		ColUpper: []float64{10, 10},
	}
	m.AddEqRow([]float64{1, 1}, 1)

	sol, err := m.Solve(WithDualSimplex())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal(), "status: %v", sol.Status)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, sol.ColValues[0]+sol.ColValues[1], 1e-6)
	assert.True(t, sol.KKT.PrimalInfeasibility <= 1e-6)
}

func TestModelSolvePrimalSimplexAgrees(t *testing.T) {
	m := &Model{
		ColCosts: []float64{2, 3},
		ColLower: []float64{0, 0},
		ColUpper: []float64{10, 10},
	}
	m.AddGeRow([]float64{1, 1}, 4)

	sol, err := m.Solve(WithPrimalSimplex())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.InDelta(t, 8.0, sol.Objective, 1e-6) // all weight on the cheaper variable
}

func TestModelSolveDetectsInfeasible(t *testing.T) {
	m := &Model{
		ColCosts: []float64{1},
		ColLower: []float64{0},
		ColUpper: []float64{1},
	}
	m.AddGeRow([]float64{1}, 5) // x>=5 but x<=1

	sol, err := m.Solve()
	require.NoError(t, err)
	assert.True(t, sol.IsInfeasible())
}

func TestModelSolveDetectsUnbounded(t *testing.T) {
	m := &Model{
		Maximize: true,
		ColCosts: []float64{1},
		ColLower: []float64{0},
		ColUpper: []float64{math.Inf(1)},
	}
	m.AddGeRow([]float64{1}, 0)

	sol, err := m.Solve()
	require.NoError(t, err)
	assert.True(t, sol.IsUnbounded())
}

func TestModelEmptyModelReportsModelEmpty(t *testing.T) {
	m := &Model{}
	sol, err := m.Solve()
	require.NoError(t, err)
	assert.Equal(t, ModelStatusModelEmpty, sol.Status)
}

func TestSolverAddVarsAndMutateRoundTrip(t *testing.T) {
	s, err := NewSolver()
	require.NoError(t, err)
	require.NoError(t, s.AddVars([]float64{0, 0}, []float64{10, 10}))
	require.NoError(t, s.SetColCosts([]float64{1, 1}))
	require.NoError(t, s.AddRow(1, s.Infinity(), []int{0, 1}, []float64{1, 1}))

	sol, err := s.Run()
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	require.NoError(t, s.ChangeCoefficient(0, 0, 2))
	sol2, err := s.Run()
	require.NoError(t, err)
	assert.True(t, sol2.IsOptimal())
}

func TestSolverDeleteColsNoOpSelectionSucceeds(t *testing.T) {
	s, err := NewSolver()
	require.NoError(t, err)
	require.NoError(t, s.AddVars([]float64{0, 0}, []float64{10, 10}))
	require.NoError(t, s.SetColCosts([]float64{1, 1}))
	require.NoError(t, s.AddRow(1, s.Infinity(), []int{0, 1}, []float64{1, 1}))
	_, err = s.Run()
	require.NoError(t, err)

	// Deleting an empty selection is always safe, basic columns or not.
	require.NoError(t, s.DeleteCols(sparseIndexSet{}))
	assert.Equal(t, 2, s.NumCol())
}

// sparseIndexSet is a trivial IndexSet selecting no columns, used to
// exercise the DeleteCols/DeleteRows plumbing without depending on which
// specific column ended up basic.
type sparseIndexSet struct{}

func (sparseIndexSet) Indices(n int) []int { return nil }

func TestSolveOptionsConfigureSolveConfig(t *testing.T) {
	cfg := defaultSolveConfig()
	WithIterationLimit(42)(cfg)
	WithTimeLimit(1.5)(cfg)
	WithMaxIISPasses(3)(cfg)
	assert.Equal(t, 42, cfg.iterationLimit)
	assert.Equal(t, 1.5, cfg.timeLimit)
	assert.Equal(t, 3, cfg.maxIISPasses)
}

func TestSolveBlendedCombinesObjectives(t *testing.T) {
	m := &Model{
		ColLower: []float64{0, 0},
		ColUpper: []float64{10, 10},
	}
	m.AddEqRow([]float64{1, 1}, 1)

	objectives := []Objective{
		{Name: "cost", Cost: []float64{1, 0}, Weight: 1},
		{Name: "time", Cost: []float64{0, 1}, Weight: 1},
	}
	res, err := m.SolveBlended(objectives)
	require.NoError(t, err)
	require.True(t, res.Solution.IsOptimal())
	assert.Len(t, res.Achieved, 2)
}

func TestSolveLexicographicLocksHigherPriorityObjective(t *testing.T) {
	m := &Model{
		ColLower: []float64{0, 0},
		ColUpper: []float64{10, 10},
	}
	m.AddLeRow([]float64{1, 1}, 10)

	objectives := []Objective{
		{Name: "primary", Cost: []float64{1, 0}, Priority: 1},
		{Name: "secondary", Cost: []float64{0, 1}, Priority: 0},
	}
	res, err := m.SolveLexicographic(objectives, 1e-6)
	require.NoError(t, err)
	require.True(t, res.Solution.IsOptimal())
	assert.Len(t, res.Achieved, 2)
}
