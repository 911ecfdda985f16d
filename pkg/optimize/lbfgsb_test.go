package optimize

import (
	"errors"
	"math"
	"testing"
)

var _ Minimizer = (*BoundedLBFGS)(nil)

func quadratic(center []float64) Objective {
	return func(x []float64) (float64, error) {
		sum := 0.0
		for i := range x {
			d := x[i] - center[i]
			sum += d * d
		}
		return sum, nil
	}
}

func TestBoundedLBFGS_InteriorMinimum(t *testing.T) {
	o := NewBoundedLBFGS()
	center := []float64{1.0, -2.0}
	bounds := Bounds{Lower: []float64{-10, -10}, Upper: []float64{10, 10}}

	res, err := o.Minimize(quadratic(center), []float64{5, 5}, bounds, Options{
		StepSize:      1e-6,
		FuncTolerance: 1e-9,
		MaxIterations: 200,
	})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if !res.Converged {
		t.Errorf("Expected convergence, got message %q", res.Message)
	}
	for i := range center {
		if math.Abs(res.X[i]-center[i]) > 0.05 {
			t.Errorf("Coordinate %d: expected ~%.2f, got %.4f", i, center[i], res.X[i])
		}
	}
}

func TestBoundedLBFGS_ActiveBounds(t *testing.T) {
	o := NewBoundedLBFGS()
	// Minimum at (2,2) lies outside the box; solution pins to (1,1).
	bounds := Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}}

	res, err := o.Minimize(quadratic([]float64{2, 2}), []float64{0.5, 0.5}, bounds, Options{})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	for i, v := range res.X {
		if math.Abs(v-1.0) > 1e-6 {
			t.Errorf("Coordinate %d: expected 1.0 (upper bound), got %.6f", i, v)
		}
	}
	if res.Evaluations == 0 {
		t.Error("Expected objective evaluations to be counted")
	}
}

func TestBoundedLBFGS_IllConditionedQuadratic(t *testing.T) {
	o := NewBoundedLBFGS()
	obj := func(x []float64) (float64, error) {
		a := x[0] - 1.0
		b := x[1] + 0.5
		return a*a + 10*b*b, nil
	}
	bounds := Bounds{Lower: []float64{-5, -5}, Upper: []float64{5, 5}}

	res, err := o.Minimize(obj, []float64{-3, 3}, bounds, Options{
		StepSize:      1e-6,
		FuncTolerance: 1e-9,
		MaxIterations: 300,
	})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if math.Abs(res.X[0]-1.0) > 0.05 || math.Abs(res.X[1]+0.5) > 0.05 {
		t.Errorf("Expected minimum near (1,-0.5), got (%.4f, %.4f)", res.X[0], res.X[1])
	}
}

func TestBoundedLBFGS_ClampsInitialPoint(t *testing.T) {
	o := NewBoundedLBFGS()
	bounds := Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}}

	res, err := o.Minimize(quadratic([]float64{0.5, 0.5}), []float64{4, -4}, bounds, Options{})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	for i, v := range res.X {
		if v < bounds.Lower[i] || v > bounds.Upper[i] {
			t.Errorf("Coordinate %d out of box: %.4f", i, v)
		}
	}
}

func TestBoundedLBFGS_BoundsMismatch(t *testing.T) {
	o := NewBoundedLBFGS()
	bounds := Bounds{Lower: []float64{0}, Upper: []float64{1, 1}}

	_, err := o.Minimize(quadratic([]float64{0, 0}), []float64{0.5, 0.5}, bounds, Options{})
	if err == nil {
		t.Error("Expected error for mismatched bounds, got nil")
	}
}

func TestBoundedLBFGS_InvertedBounds(t *testing.T) {
	o := NewBoundedLBFGS()
	bounds := Bounds{Lower: []float64{1, 1}, Upper: []float64{0, 0}}

	_, err := o.Minimize(quadratic([]float64{0, 0}), []float64{0.5, 0.5}, bounds, Options{})
	if err == nil {
		t.Error("Expected error for inverted bounds, got nil")
	}
}

func TestBoundedLBFGS_ObjectiveErrorPropagates(t *testing.T) {
	o := NewBoundedLBFGS()
	boom := errors.New("activation extraction failed")
	obj := func(x []float64) (float64, error) { return 0, boom }
	bounds := Bounds{Lower: []float64{0}, Upper: []float64{1}}

	_, err := o.Minimize(obj, []float64{0.5}, bounds, Options{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected objective error to propagate, got %v", err)
	}
}

func TestBoundedLBFGS_WarmStartAtMinimum(t *testing.T) {
	o := NewBoundedLBFGS()
	center := []float64{0.5, 0.5}
	bounds := Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}}

	res, err := o.Minimize(quadratic(center), center, bounds, Options{})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if res.Value > 1e-6 {
		t.Errorf("Expected objective ~0 at warm start, got %g", res.Value)
	}
	if !res.Converged {
		t.Errorf("Expected convergence at the minimum, got %q", res.Message)
	}
}
