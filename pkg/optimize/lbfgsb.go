package optimize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultStepSize      = 1e-3
	defaultFuncTolerance = 1e-2
	defaultMaxIterations = 100
	defaultMemory        = 10

	maxBacktracks    = 30
	projGradTol      = 1e-8
	curvatureEpsilon = 1e-10
)

// BoundedLBFGS is a limited-memory quasi-Newton minimizer with box
// constraints. It combines the standard L-BFGS two-loop recursion with a
// backtracking line search along the path projected onto the box, and uses
// forward-difference gradients so the objective does not need to supply
// derivatives. gonum's optimize package has no box-constraint support, so
// the bounded routine lives here behind the Minimizer interface.
type BoundedLBFGS struct {
	// Memory is the number of curvature pairs kept for the two-loop
	// recursion. Defaults to 10.
	Memory int
}

// NewBoundedLBFGS creates a bounded minimizer with default memory.
func NewBoundedLBFGS() *BoundedLBFGS {
	return &BoundedLBFGS{Memory: defaultMemory}
}

type curvaturePair struct {
	s, y []float64
	rho  float64
}

// Minimize runs the bounded minimization from x0. The returned Result
// always holds the best iterate found, also on early termination.
func (o *BoundedLBFGS) Minimize(obj Objective, x0 []float64, bounds Bounds, opts Options) (*Result, error) {
	dim := len(x0)
	if dim == 0 {
		return nil, fmt.Errorf("empty initial point")
	}
	if err := bounds.validate(dim); err != nil {
		return nil, err
	}

	step := opts.StepSize
	if step <= 0 {
		step = defaultStepSize
	}
	ftol := opts.FuncTolerance
	if ftol <= 0 {
		ftol = defaultFuncTolerance
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	memory := o.Memory
	if memory <= 0 {
		memory = defaultMemory
	}

	evals := 0
	eval := func(v []float64) (float64, error) {
		evals++
		return obj(v)
	}

	x := make([]float64, dim)
	copy(x, x0)
	bounds.clamp(x)

	f, err := eval(x)
	if err != nil {
		return nil, err
	}
	g, err := o.gradient(eval, x, f, bounds, step)
	if err != nil {
		return nil, err
	}

	res := &Result{Iterations: 0}
	var history []curvaturePair
	cand := make([]float64, dim)

	for iter := 1; iter <= maxIter; iter++ {
		d := direction(g, history)
		if floats.Dot(d, g) >= 0 {
			// History produced an ascent direction; fall back to
			// steepest descent.
			copy(d, g)
			floats.Scale(-1, d)
		}

		improved := false
		var fNew float64
		xNew := make([]float64, dim)
		alpha := 1.0
		for bt := 0; bt < maxBacktracks; bt++ {
			copy(cand, x)
			floats.AddScaled(cand, alpha, d)
			bounds.clamp(cand)
			if maxAbsDiff(cand, x) == 0 {
				// Projection collapsed the step onto the
				// current iterate; no movement possible.
				break
			}
			fc, err := eval(cand)
			if err != nil {
				return nil, err
			}
			if !math.IsNaN(fc) && fc < f {
				copy(xNew, cand)
				fNew = fc
				improved = true
				break
			}
			alpha *= 0.5
		}

		if !improved {
			res.Converged = true
			res.Message = "no further descent within bounds"
			break
		}
		res.Iterations = iter

		gNew, err := o.gradient(eval, xNew, fNew, bounds, step)
		if err != nil {
			return nil, err
		}

		s := make([]float64, dim)
		yv := make([]float64, dim)
		floats.SubTo(s, xNew, x)
		floats.SubTo(yv, gNew, g)
		if sy := floats.Dot(s, yv); sy > curvatureEpsilon {
			history = append(history, curvaturePair{s: s, y: yv, rho: 1 / sy})
			if len(history) > memory {
				history = history[1:]
			}
		}

		rel := (f - fNew) / math.Max(math.Max(math.Abs(f), math.Abs(fNew)), 1)
		copy(x, xNew)
		f = fNew
		g = gNew

		if rel <= ftol {
			res.Converged = true
			res.Message = "relative objective reduction below tolerance"
			break
		}
		if projectedGradientNorm(x, g, bounds) <= projGradTol {
			res.Converged = true
			res.Message = "projected gradient below tolerance"
			break
		}
	}

	if res.Message == "" {
		res.Message = "maximum iterations reached"
	}
	res.X = x
	res.Value = f
	res.Evaluations = evals
	return res, nil
}

// gradient computes a one-sided finite-difference gradient that never
// leaves the box: coordinates at the upper bound use a backward difference,
// and coordinates whose box is narrower than the step get a zero entry.
func (o *BoundedLBFGS) gradient(eval func([]float64) (float64, error), x []float64, fx float64, b Bounds, h float64) ([]float64, error) {
	g := make([]float64, len(x))
	probe := make([]float64, len(x))
	copy(probe, x)
	for i := range x {
		switch {
		case x[i]+h <= b.Upper[i]:
			probe[i] = x[i] + h
			fh, err := eval(probe)
			if err != nil {
				return nil, err
			}
			g[i] = (fh - fx) / h
		case x[i]-h >= b.Lower[i]:
			probe[i] = x[i] - h
			fh, err := eval(probe)
			if err != nil {
				return nil, err
			}
			g[i] = (fx - fh) / h
		default:
			g[i] = 0
		}
		probe[i] = x[i]
	}
	return g, nil
}

// direction applies the L-BFGS two-loop recursion, returning -H*g.
func direction(g []float64, history []curvaturePair) []float64 {
	d := make([]float64, len(g))
	copy(d, g)

	n := len(history)
	alphas := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		p := history[i]
		alphas[i] = p.rho * floats.Dot(p.s, d)
		floats.AddScaled(d, -alphas[i], p.y)
	}
	if n > 0 {
		last := history[n-1]
		scale := floats.Dot(last.s, last.y) / floats.Dot(last.y, last.y)
		floats.Scale(scale, d)
	}
	for i := 0; i < n; i++ {
		p := history[i]
		beta := p.rho * floats.Dot(p.y, d)
		floats.AddScaled(d, alphas[i]-beta, p.s)
	}
	floats.Scale(-1, d)
	return d
}

// projectedGradientNorm is the infinity norm of the gradient with the
// components pointing out of the box at active bounds zeroed.
func projectedGradientNorm(x, g []float64, b Bounds) float64 {
	norm := 0.0
	for i := range x {
		gi := g[i]
		if x[i] <= b.Lower[i] && gi > 0 {
			gi = 0
		}
		if x[i] >= b.Upper[i] && gi < 0 {
			gi = 0
		}
		if a := math.Abs(gi); a > norm {
			norm = a
		}
	}
	return norm
}

func maxAbsDiff(a, b []float64) float64 {
	m := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}
