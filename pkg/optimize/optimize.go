// Package optimize provides box-constrained minimization for derivative-free
// objectives. The Minimizer interface keeps the solver pluggable: anything
// that can minimize a scalar objective over per-element bounds can drive the
// callers in this module.
package optimize

import "fmt"

// Objective is a scalar function over a flat parameter vector. An error
// aborts the minimization and propagates to the caller unchanged.
type Objective func(x []float64) (float64, error)

// Bounds holds per-element box constraints. Lower and Upper must have the
// same length as the parameter vector, with Lower[i] <= Upper[i].
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Options tunes the stopping criteria of a bounded minimizer.
type Options struct {
	// StepSize is the forward-difference step used for numerical gradients.
	// Defaults to 1e-3.
	StepSize float64
	// FuncTolerance stops the run once the relative objective decrease
	// between iterations falls below it. Defaults to 1e-2.
	FuncTolerance float64
	// MaxIterations caps the outer iteration count. Defaults to 100.
	MaxIterations int
}

// Result carries the solution and run diagnostics.
type Result struct {
	X           []float64
	Value       float64
	Iterations  int
	Evaluations int
	Converged   bool
	Message     string
}

// Minimizer is a bounded scalar minimizer. Implementations must keep every
// iterate inside the box and must not retain x0 or the bounds slices.
type Minimizer interface {
	Minimize(obj Objective, x0 []float64, bounds Bounds, opts Options) (*Result, error)
}

func (b Bounds) validate(dim int) error {
	if len(b.Lower) != dim || len(b.Upper) != dim {
		return fmt.Errorf("bounds dimension mismatch: got %d/%d, want %d", len(b.Lower), len(b.Upper), dim)
	}
	for i := range b.Lower {
		if b.Lower[i] > b.Upper[i] {
			return fmt.Errorf("invalid bounds at index %d: lower %g > upper %g", i, b.Lower[i], b.Upper[i])
		}
	}
	return nil
}

// clamp projects x onto the box in place.
func (b Bounds) clamp(x []float64) {
	for i := range x {
		if x[i] < b.Lower[i] {
			x[i] = b.Lower[i]
		}
		if x[i] > b.Upper[i] {
			x[i] = b.Upper[i]
		}
	}
}
