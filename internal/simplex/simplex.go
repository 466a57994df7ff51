// Package simplex implements a bounded Nelder-Mead downhill simplex
// minimizer, in an N-dimensional variant used for control-point fitting and
// a scalar variant used for inverse curve lookups.
//
// Bounds are soft: a candidate with any coordinate outside its declared
// bound has a fixed penalty added to its cost, which lets the simplex
// retreat from the infeasible region without special-casing the geometry
// steps. Cancellation is cooperative via context, polled once per iteration;
// an interrupted run returns the best point found so far and is not an
// error.
package simplex

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Standard Nelder-Mead coefficients.
const (
	reflectionCoeff  = 1.0
	expansionCoeff   = 2.0
	contractionCoeff = -0.5
	shrinkCoeff      = 0.5
)

// outOfBoundsPenalty is added to the cost of any candidate with a
// coordinate outside its bound.
const outOfBoundsPenalty = 999.0

// Bound is a closed interval constraint for one variable. Use Unbounded for
// variables without constraints.
type Bound struct {
	Min float64
	Max float64
}

// Unbounded returns a bound that admits every finite value.
func Unbounded() Bound {
	return Bound{Min: math.Inf(-1), Max: math.Inf(1)}
}

func (b Bound) contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Options controls a Minimize run. Zero values select the defaults noted on
// each field.
type Options struct {
	// Step is the offset applied per dimension when building the initial
	// simplex around the start point. Default 0.1.
	Step float64

	// MaxIterations caps the iteration count. Default 250 per dimension.
	MaxIterations int

	// NoImproveThreshold is the minimum best-cost improvement that resets
	// the stagnation counter. Default 1e-5.
	NoImproveThreshold float64

	// NoImproveWindow is the number of consecutive non-improving
	// iterations after which the run terminates. Default 50.
	NoImproveWindow int

	// OnIteration, if set, is called once per iteration with the current
	// best cost (after ordering the simplex). The observed sequence is
	// non-increasing.
	OnIteration func(iteration int, bestCost float64)
}

func (o Options) withDefaults(dim int) Options {
	if o.Step == 0 {
		o.Step = 0.1
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 250 * dim
	}
	if o.NoImproveThreshold == 0 {
		o.NoImproveThreshold = 1e-5
	}
	if o.NoImproveWindow == 0 {
		o.NoImproveWindow = 50
	}
	return o
}

// Result is the outcome of a Minimize run. Running out of iterations is a
// normal termination path, not a failure.
type Result struct {
	X          []float64
	Cost       float64
	Iterations int
	Cancelled  bool
}

type vertex struct {
	x    []float64
	cost float64
}

// Minimize finds a local minimum of f starting from start, honoring bounds
// via soft penalties. bounds may be nil (all variables unbounded) or must
// have one entry per variable.
func Minimize(ctx context.Context, f func([]float64) float64, start []float64, bounds []Bound, opts Options) Result {
	dim := len(start)
	opts = opts.withDefaults(dim)

	score := func(x []float64) float64 {
		cost := f(x)
		for i, b := range bounds {
			if !b.contains(x[i]) {
				cost += outOfBoundsPenalty
				break
			}
		}
		return cost
	}

	// Initial simplex: start point plus one vertex per dimension offset by
	// the step size.
	verts := make([]vertex, 0, dim+1)
	verts = append(verts, vertex{x: clone(start), cost: score(start)})
	for i := 0; i < dim; i++ {
		x := clone(start)
		x[i] += opts.Step
		verts = append(verts, vertex{x: x, cost: score(x)})
	}

	prevBest := math.Inf(1)
	noImprove := 0
	iterations := 0
	cancelled := false

	for {
		sort.SliceStable(verts, func(i, j int) bool { return verts[i].cost < verts[j].cost })
		best := verts[0]

		if opts.OnIteration != nil {
			opts.OnIteration(iterations, best.cost)
		}
		if iterations >= opts.MaxIterations {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}
		iterations++

		if best.cost < prevBest-opts.NoImproveThreshold {
			prevBest = best.cost
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove >= opts.NoImproveWindow {
			break
		}

		// Centroid of all vertices except the worst.
		worst := verts[len(verts)-1]
		centroid := make([]float64, dim)
		for _, v := range verts[:len(verts)-1] {
			floats.Add(centroid, v.x)
		}
		floats.Scale(1.0/float64(len(verts)-1), centroid)

		// Reflection.
		xr := affine(centroid, worst.x, reflectionCoeff)
		fr := score(xr)
		if fr < verts[len(verts)-2].cost && fr >= best.cost {
			verts[len(verts)-1] = vertex{x: xr, cost: fr}
			continue
		}

		// Expansion.
		if fr < best.cost {
			xe := affine(centroid, worst.x, expansionCoeff)
			fe := score(xe)
			if fe < fr {
				verts[len(verts)-1] = vertex{x: xe, cost: fe}
			} else {
				verts[len(verts)-1] = vertex{x: xr, cost: fr}
			}
			continue
		}

		// Contraction.
		xc := affine(centroid, worst.x, contractionCoeff)
		fc := score(xc)
		if fc < worst.cost {
			verts[len(verts)-1] = vertex{x: xc, cost: fc}
			continue
		}

		// Shrink toward the best vertex.
		for i := 1; i < len(verts); i++ {
			x := make([]float64, dim)
			for j := range x {
				x[j] = best.x[j] + shrinkCoeff*(verts[i].x[j]-best.x[j])
			}
			verts[i] = vertex{x: x, cost: score(x)}
		}
	}

	sort.SliceStable(verts, func(i, j int) bool { return verts[i].cost < verts[j].cost })
	return Result{
		X:          clone(verts[0].x),
		Cost:       verts[0].cost,
		Iterations: iterations,
		Cancelled:  cancelled,
	}
}

// affine returns centroid + coeff*(centroid - x).
func affine(centroid, x []float64, coeff float64) []float64 {
	out := make([]float64, len(centroid))
	for i := range out {
		out[i] = centroid[i] + coeff*(centroid[i]-x[i])
	}
	return out
}

func clone(x []float64) []float64 { return append([]float64(nil), x...) }

// ScalarOptions controls a MinimizeScalar run.
type ScalarOptions struct {
	// Tolerance is the no-improvement threshold; root-finding callers use
	// a much tighter value than the N-D default. Default 1e-10.
	Tolerance float64

	// MaxIterations caps the iteration count. Default 200.
	MaxIterations int
}

// MinimizeScalar finds a local minimum of f over the interval [lo, hi]
// using the one-dimensional specialization of the same simplex scheme. The
// returned x is clamped to the interval.
func MinimizeScalar(f func(float64) float64, lo, hi float64, opts ScalarOptions) (x, cost float64) {
	if opts.Tolerance == 0 {
		opts.Tolerance = 1e-10
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = 200
	}
	start := []float64{0.5 * (lo + hi)}
	res := Minimize(context.Background(), func(v []float64) float64 {
		return f(v[0])
	}, start, []Bound{{Min: lo, Max: hi}}, Options{
		Step:               0.25 * (hi - lo),
		MaxIterations:      opts.MaxIterations,
		NoImproveThreshold: opts.Tolerance,
		NoImproveWindow:    25,
	})
	x = res.X[0]
	if x < lo {
		x = lo
	} else if x > hi {
		x = hi
	}
	return x, res.Cost
}
