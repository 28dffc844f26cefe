package ekk

import (
	"context"
	"math"
)

// Model represents a high-level optimization model. It provides a
// convenient way to define LP/QP problems without dealing with the
// low-level Solver API directly.
//
// The model solves problems of the form:
//
//	Minimize (or Maximize): ColCosts · x + Offset + 0.5 * x' * Hessian * x
//	Subject to:              RowLower <= A·x <= RowUpper
//	And:                     ColLower <= x <= ColUpper
//
// The Hessian is stored and passed to the Solver, but the simplex engine
// optimizes only the linear part, and Solution.Objective leaves out the
// quadratic term.
type Model struct {
	Maximize bool
	Offset   float64

	ColCosts []float64
	ColLower []float64
	ColUpper []float64

	RowLower []float64
	RowUpper []float64

	ConstMatrix []Nonzero
	Hessian     []Nonzero

	VarTypes []VariableType
}

// AddDenseRow adds a constraint using a dense coefficient vector,
// filtering out zero coefficients.
func (m *Model) AddDenseRow(lower float64, coeffs []float64, upper float64) {
	row := len(m.RowLower)
	m.RowLower = append(m.RowLower, lower)
	m.RowUpper = append(m.RowUpper, upper)
	for col, val := range coeffs {
		if val != 0.0 {
			m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: col, Val: val})
		}
	}
}

// AddSparseRow adds a constraint using a sparse coefficient list.
func (m *Model) AddSparseRow(lower float64, cols []int, vals []float64, upper float64) {
	row := len(m.RowLower)
	m.RowLower = append(m.RowLower, lower)
	m.RowUpper = append(m.RowUpper, upper)
	for i, col := range cols {
		if vals[i] != 0.0 {
			m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: col, Val: vals[i]})
		}
	}
}

// AddEqRow adds sum(coeffs*x) = rhs.
func (m *Model) AddEqRow(coeffs []float64, rhs float64) { m.AddDenseRow(rhs, coeffs, rhs) }

// AddLeRow adds sum(coeffs*x) <= rhs.
func (m *Model) AddLeRow(coeffs []float64, rhs float64) {
	m.AddDenseRow(math.Inf(-1), coeffs, rhs)
}

// AddGeRow adds sum(coeffs*x) >= rhs.
func (m *Model) AddGeRow(coeffs []float64, rhs float64) {
	m.AddDenseRow(rhs, coeffs, math.Inf(1))
}

// NumVars returns the number of variables implied by the model.
func (m *Model) NumVars() int {
	maxCol := -1
	for _, nz := range m.ConstMatrix {
		if nz.Col > maxCol {
			maxCol = nz.Col
		}
	}
	for _, nz := range m.Hessian {
		if nz.Col > maxCol {
			maxCol = nz.Col
		}
	}
	for _, n := range []int{len(m.ColCosts), len(m.ColLower), len(m.ColUpper), len(m.VarTypes)} {
		if n > maxCol+1 {
			maxCol = n - 1
		}
	}
	return maxCol + 1
}

// NumConstraints returns the number of constraints implied by the model.
func (m *Model) NumConstraints() int {
	maxRow := -1
	for _, nz := range m.ConstMatrix {
		if nz.Row > maxRow {
			maxRow = nz.Row
		}
	}
	for _, n := range []int{len(m.RowLower), len(m.RowUpper)} {
		if n > maxRow+1 {
			maxRow = n - 1
		}
	}
	return maxRow + 1
}

// Solve builds and solves the model, returning the solution.
func (m *Model) Solve(opts ...SolveOption) (*Solution, error) {
	return m.SolveContext(context.Background(), opts...)
}

// SolveContext is Solve with cooperative cancellation.
func (m *Model) SolveContext(ctx context.Context, opts ...SolveOption) (*Solution, error) {
	solver, err := NewSolver()
	if err != nil {
		return nil, err
	}
	defer solver.Close()

	numCol := m.NumVars()
	numRow := m.NumConstraints()
	if numCol == 0 {
		return &Solution{Status: ModelStatusModelEmpty}, nil
	}

	colCosts, err := expandSlice(numCol, m.ColCosts, 0.0)
	if err != nil {
		return nil, newErrorMsg("Solve", "inconsistent ColCosts length")
	}
	colLower, err := expandSlice(numCol, m.ColLower, math.Inf(-1))
	if err != nil {
		return nil, newErrorMsg("Solve", "inconsistent ColLower length")
	}
	colUpper, err := expandSlice(numCol, m.ColUpper, math.Inf(1))
	if err != nil {
		return nil, newErrorMsg("Solve", "inconsistent ColUpper length")
	}
	rowLower, err := expandSlice(numRow, m.RowLower, math.Inf(-1))
	if err != nil {
		return nil, newErrorMsg("Solve", "inconsistent RowLower length")
	}
	rowUpper, err := expandSlice(numRow, m.RowUpper, math.Inf(1))
	if err != nil {
		return nil, newErrorMsg("Solve", "inconsistent RowUpper length")
	}

	aStart, aIndex, aValue, err := nonzerosToCSR(m.ConstMatrix, numRow, false)
	if err != nil {
		return nil, err
	}

	varTypes := m.VarTypes
	if len(varTypes) > 0 && len(varTypes) != numCol {
		expanded := make([]VariableType, numCol)
		copy(expanded, varTypes)
		varTypes = expanded
	}

	if err := solver.PassModel(numCol, numRow, colCosts, colLower, colUpper, rowLower, rowUpper, aStart, aIndex, aValue, varTypes, m.Maximize, m.Offset); err != nil {
		return nil, err
	}
	if len(m.Hessian) > 0 {
		hStart, hIndex, hValue, err := nonzerosToCSR(m.Hessian, numCol, true)
		if err != nil {
			return nil, err
		}
		if err := solver.PassHessian(numCol, hStart, hIndex, hValue); err != nil {
			return nil, err
		}
	}

	return solver.RunContext(ctx, opts...)
}
