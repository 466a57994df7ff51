package simplex

import (
	"context"
	"math"
	"testing"
)

func sphere(target []float64) func([]float64) float64 {
	return func(x []float64) float64 {
		sum := 0.0
		for i := range x {
			d := x[i] - target[i]
			sum += d * d
		}
		return sum
	}
}

func TestMinimizeQuadratic(t *testing.T) {
	target := []float64{0.3, -0.2, 0.7}
	res := Minimize(context.Background(), sphere(target), []float64{0, 0, 0}, nil, Options{})

	if res.Cancelled {
		t.Fatal("run reported cancelled without cancellation")
	}
	if res.Cost > 1e-5 {
		t.Errorf("final cost %g, want < 1e-5", res.Cost)
	}
	for i := range target {
		if math.Abs(res.X[i]-target[i]) > 1e-2 {
			t.Errorf("X[%d] = %g, want %g", i, res.X[i], target[i])
		}
	}
}

func TestMinimizeSoftBounds(t *testing.T) {
	// Unconstrained minimum at -2; the bound keeps the search at the
	// feasible edge near 0.
	f := func(x []float64) float64 { d := x[0] + 2; return d * d }
	bounds := []Bound{{Min: 0, Max: 5}}
	res := Minimize(context.Background(), f, []float64{1}, bounds, Options{})

	if res.X[0] < -1e-9 {
		t.Errorf("best point %g escaped below the bound", res.X[0])
	}
	if res.X[0] > 0.5 {
		t.Errorf("best point %g did not approach the active bound at 0", res.X[0])
	}
	if res.Cost >= outOfBoundsPenalty {
		t.Errorf("best cost %g carries the bound penalty", res.Cost)
	}
}

func TestMinimizeUnboundedVariableNeverPenalized(t *testing.T) {
	f := func(x []float64) float64 { d := x[0] - 1e3; return d * d }
	res := Minimize(context.Background(), f, []float64{0}, []Bound{Unbounded()}, Options{
		Step:          100,
		MaxIterations: 5000,
	})
	if res.Cost >= outOfBoundsPenalty {
		t.Errorf("cost %g suggests an unbounded variable was penalized", res.Cost)
	}
}

func TestMinimizeBestCostMonotone(t *testing.T) {
	var history []float64
	Minimize(context.Background(), sphere([]float64{0.5, 0.5}), []float64{0, 0}, nil, Options{
		OnIteration: func(_ int, best float64) { history = append(history, best) },
	})
	if len(history) == 0 {
		t.Fatal("no iterations observed")
	}
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			t.Fatalf("best cost increased at iteration %d: %g -> %g", i, history[i-1], history[i])
		}
	}
}

func TestMinimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evals := 0
	f := func(x []float64) float64 { evals++; return x[0] * x[0] }
	res := Minimize(ctx, f, []float64{3}, nil, Options{})

	if !res.Cancelled {
		t.Error("expected Cancelled result")
	}
	if res.Iterations != 0 {
		t.Errorf("ran %d iterations after cancellation, want 0", res.Iterations)
	}
	// Only the initial simplex may have been evaluated.
	if evals > 2 {
		t.Errorf("%d evaluations after immediate cancellation", evals)
	}
	if math.IsNaN(res.Cost) {
		t.Error("cancelled run returned NaN cost")
	}
}

func TestMinimizeMaxIterations(t *testing.T) {
	res := Minimize(context.Background(), sphere([]float64{50}), []float64{0}, nil, Options{
		MaxIterations: 5,
	})
	if res.Iterations > 5 {
		t.Errorf("ran %d iterations, cap was 5", res.Iterations)
	}
}

func TestMinimizeScalar(t *testing.T) {
	x, cost := MinimizeScalar(func(x float64) float64 {
		d := x - 0.3
		return d * d
	}, 0, 1, ScalarOptions{})

	if math.Abs(x-0.3) > 1e-3 {
		t.Errorf("minimum at %g, want 0.3", x)
	}
	if cost > 1e-5 {
		t.Errorf("cost %g, want near 0", cost)
	}
	if x < 0 || x > 1 {
		t.Errorf("result %g outside the interval", x)
	}
}
