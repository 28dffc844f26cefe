package ekk

import "github.com/ekksolve/ekk/internal/simplex"

// SolveOption configures a Solve call, in the shape of a functional
// options list rather than a mutable config struct the caller pokes at
// directly.
type SolveOption func(*solveConfig)

type solveConfig struct {
	algorithm     simplex.Algorithm
	timeLimit     float64
	iterationLimit int
	maxIISPasses  int
	logger        Logger
	extraFloat    map[string]float64
	extraInt      map[string]int
}

func defaultSolveConfig() *solveConfig {
	return &solveConfig{
		algorithm:      simplex.Dual,
		iterationLimit: 100000,
		maxIISPasses:   50,
		logger:         noopLogger{},
		extraFloat:     make(map[string]float64),
		extraInt:       make(map[string]int),
	}
}

// WithTimeLimit sets the wall-clock time limit in seconds.
func WithTimeLimit(seconds float64) SolveOption {
	return func(c *solveConfig) { c.timeLimit = seconds }
}

// WithIterationLimit sets the maximum simplex iteration count.
func WithIterationLimit(n int) SolveOption {
	return func(c *solveConfig) { c.iterationLimit = n }
}

// WithDualSimplex selects the dual revised simplex algorithm (default).
func WithDualSimplex() SolveOption {
	return func(c *solveConfig) { c.algorithm = simplex.Dual }
}

// WithPrimalSimplex selects the primal revised simplex algorithm.
func WithPrimalSimplex() SolveOption {
	return func(c *solveConfig) { c.algorithm = simplex.Primal }
}

// WithPresolveOff is a documented no-op: presolve is out of scope for
// this engine, so every solve already behaves as if presolve were off.
// The option exists so callers migrating from a full HiGHS binding don't
// need to delete the call site.
func WithPresolveOff() SolveOption {
	return func(c *solveConfig) {}
}

// WithLogger installs a Logger for the solve-failed and solve-finished
// summary lines. The default is a no-op logger.
func WithLogger(l Logger) SolveOption {
	return func(c *solveConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxIISPasses bounds the elasticity-filter passes ExtractIIS runs
// when a model turns out infeasible.
func WithMaxIISPasses(n int) SolveOption {
	return func(c *solveConfig) { c.maxIISPasses = n }
}

// WithFloatOption records a named float-valued option (e.g.
// "feasibility_tolerance") in the solve configuration. The solver does
// not read these values: tolerances come from the solver's own state.
func WithFloatOption(name string, value float64) SolveOption {
	return func(c *solveConfig) { c.extraFloat[name] = value }
}

// WithIntOption records a named integer-valued option (e.g.
// "update_budget") in the solve configuration. The solver does not read
// these values.
func WithIntOption(name string, value int) SolveOption {
	return func(c *solveConfig) { c.extraInt[name] = value }
}
