package simplexdata

// Stage is the lifecycle state machine of spec.md 4.D: each stage implies
// every stage below it is also valid, so a mutation that invalidates a
// stage collapses straight to the stage still guaranteed correct, instead
// of clearing a grab-bag of booleans (mirrors HEkk's clearEkkAllStatus /
// clearEkkDataStatus / clearNlaStatus split).
type Stage int

const (
	StageNone Stage = iota
	StageInitializedForSolve
	StageHasBasis
	StageHasInvert
	StageHasDualSteepestEdgeWeights
)

// AtLeast reports whether the stage is at or above want.
func (s Stage) AtLeast(want Stage) bool { return s >= want }

// Data is component D's simplex work-array bundle: the per-variable
// bound/cost/value/dual arrays the engine iterates over, the dual
// steepest-edge weights, and the perturbation bookkeeping used to break
// ties and recover from degeneracy.
type Data struct {
	Stage Stage

	WorkCost  []float64
	WorkLower []float64
	WorkUpper []float64
	WorkValue []float64
	WorkDual  []float64
	WorkRange []float64 // WorkUpper - WorkLower, cached for the ratio test

	DualEdgeWeight []float64

	CostsPerturbed   bool
	BoundsPerturbed  bool
	PerturbBaseCost  []float64
	PerturbBaseBound []float64

	Iteration   int
	UpdateCount int
}

// NewData allocates zeroed work arrays sized for numTot variables and
// numRow basic slots.
func NewData(numTot, numRow int) *Data {
	return &Data{
		Stage:          StageNone,
		WorkCost:       make([]float64, numTot),
		WorkLower:      make([]float64, numTot),
		WorkUpper:      make([]float64, numTot),
		WorkValue:      make([]float64, numTot),
		WorkDual:       make([]float64, numTot),
		WorkRange:      make([]float64, numTot),
		DualEdgeWeight: make([]float64, numRow),
	}
}

// Collapse drops the stage to want if it is currently above it; collapsing
// to a stage never raises it, only lowers (spec.md 4.D invalidation rule).
func (d *Data) Collapse(want Stage) {
	if d.Stage > want {
		d.Stage = want
	}
}

// RecomputeRange refreshes WorkRange[v] = WorkUpper[v] - WorkLower[v].
func (d *Data) RecomputeRange() {
	for v := range d.WorkRange {
		d.WorkRange[v] = d.WorkUpper[v] - d.WorkLower[v]
	}
}

