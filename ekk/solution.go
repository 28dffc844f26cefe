package ekk

import (
	"github.com/ekksolve/ekk/internal/kkt"
	"github.com/ekksolve/ekk/internal/ray"
)

// Solution contains the results from solving an optimization model.
type Solution struct {
	Status ModelStatus

	ColValues []float64
	ColDuals  []float64
	RowValues []float64
	RowDuals  []float64
	ColBasis  []BasisStatus
	RowBasis  []BasisStatus

	Objective float64

	// IterationCount and RefactorCount mirror HighsInfoStruct's
	// simplex_iteration_count / basis refactorization bookkeeping.
	IterationCount int
	RefactorCount  int

	// KKT is populated for a claimed-optimal solution; a Status left at
	// ModelStatusUnknown despite the engine reporting optimal means KKT
	// verification failed to confirm it. Its PrimalInfeasibility and
	// DualInfeasibility fields double as the max-violation entries of
	// HighsInfoStruct's PrimalInfeasibilityCount/Max/Sum family; a
	// separate Info type would only duplicate this computation.
	KKT kkt.Residuals

	// DualRay is populated when Status is ModelStatusInfeasible.
	DualRay *ray.DualRay
	// PrimalRay is populated when Status is ModelStatusUnbounded.
	PrimalRay *ray.PrimalRay
	// IIS is populated when Status is ModelStatusInfeasible and the
	// elasticity filter successfully isolated a subsystem.
	IIS *ray.IISReport
}

// IsOptimal returns true if the solution is optimal.
func (s *Solution) IsOptimal() bool { return s.Status == ModelStatusOptimal }

// IsInfeasible returns true if the model is infeasible.
func (s *Solution) IsInfeasible() bool {
	return s.Status == ModelStatusInfeasible || s.Status == ModelStatusUnboundedOrInfeasible
}

// IsUnbounded returns true if the model is unbounded.
func (s *Solution) IsUnbounded() bool {
	return s.Status == ModelStatusUnbounded || s.Status == ModelStatusUnboundedOrInfeasible
}

// HasSolution returns true if the solution contains valid primal values.
func (s *Solution) HasSolution() bool { return s.Status.HasSolution() }

// Value returns the solution value for a variable by index, or 0 if the
// index is out of range.
func (s *Solution) Value(index int) float64 {
	if index < 0 || index >= len(s.ColValues) {
		return 0
	}
	return s.ColValues[index]
}
