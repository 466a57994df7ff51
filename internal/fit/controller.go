package fit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/airshape-data/foilfit/internal/geom"
	"github.com/airshape-data/foilfit/internal/simplex"
)

// ErrInvalidInput marks precondition violations detected at the RunFit
// boundary: malformed target lines or control point counts. Numeric
// degeneracy deeper in the run never surfaces as an error; the objective
// penalizes it instead.
var ErrInvalidInput = errors.New("invalid fit input")

// minTargetPoints is the smallest source line accepted; anything thinner
// cannot represent a real airfoil side.
const minTargetPoints = 10

// minReducedPoints is the smallest reduced sample set the objective stays
// well-conditioned on.
const minReducedPoints = 5

// maxControlPoints bounds the fit size; more points than this add wiggle
// room faster than they add fidelity.
const maxControlPoints = 12

// Request describes one fit: how many control points to use, the optional
// leading-edge curvature target, the allowed trailing-edge curvature, and
// the observation hooks.
type Request struct {
	// NumControlPoints for the fitted Bezier side. Default 5.
	NumControlPoints int

	// TargetCurvLE, when non-zero, pulls the LE curvature magnitude toward
	// this value, weighted by TargetCurvLEWeighting (1.0 when zero-valued).
	TargetCurvLE          float64
	TargetCurvLEWeighting float64

	// MaxCurvTE is the allowed trailing-edge curvature magnitude on the
	// side's expected sign.
	MaxCurvTE float64

	// OnProgress, when set, receives throttled metric snapshots (cadence
	// from Config.ProgressEvery) from the fitting goroutine.
	OnProgress ProgressFunc

	// RecordHistory keeps every evaluation's cost for later charting.
	RecordHistory bool
}

// Result is the outcome of one completed (or cancelled) fit run. The final
// metrics are recomputed from the final curve state, never reused from the
// last progress snapshot.
type Result struct {
	Curve        *geom.Curve
	NEvaluations int
	NIterations  int
	Deviation    float64
	CurvLE       float64
	CurvTE       float64
	Cancelled    bool
	History      []EvalSample
}

// Controller orchestrates fit runs. It is designed to be driven from a
// single worker goroutine; the curve being fit is owned exclusively by the
// run, and consumers observe intermediate state only through the progress
// callback values.
type Controller struct {
	cfg Config
}

// NewController returns a Controller with the given configuration.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// RunFit fits a Bezier side to the target line and returns the result.
//
// It validates the target eagerly, reduces it to the sparse sample set,
// seeds control points from the estimation heuristic, then runs the
// bounded Nelder-Mead search over the mapped variables with the composite
// objective as cost. Cancelling ctx ends the run at the next optimizer
// iteration with the best point found so far; that is a normal early
// termination, not an error.
func (fc *Controller) RunFit(ctx context.Context, side geom.Side, target geom.TargetLine, req Request) (*Result, error) {
	if err := validateTarget(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	n := req.NumControlPoints
	if n == 0 {
		n = 5
	}
	if n < geom.MinControlPoints || n > maxControlPoints {
		return nil, fmt.Errorf("%w: control point count %d outside [%d,%d]",
			ErrInvalidInput, n, geom.MinControlPoints, maxControlPoints)
	}
	if req.TargetCurvLE != 0 && req.TargetCurvLEWeighting == 0 {
		req.TargetCurvLEWeighting = 1.0
	}

	reduced := ReduceTarget(target, fc.cfg.Resample)
	if reduced.Len() < minReducedPoints {
		return nil, fmt.Errorf("%w: target line too sparse to fit (%d points after reduction)",
			ErrInvalidInput, reduced.Len())
	}

	px, py, err := EstimateControlPoints(target, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	curve, err := geom.NewCurve(px, py)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	vars, bounds := ToVariables(curve, side)
	obj := newObjective(curve, side, reduced, req, fc.cfg)

	res := simplex.Minimize(ctx, obj.Eval, vars, bounds, simplex.Options{
		Step:               fc.cfg.InitialStep,
		MaxIterations:      fc.cfg.MaxIterationsPerVar * len(vars),
		NoImproveThreshold: fc.cfg.NoImproveThreshold,
		NoImproveWindow:    fc.cfg.NoImproveWindow,
	})

	FromVariables(curve, side, res.X)

	// Final diagnostics from the final curve state, not from the last
	// throttled snapshot.
	dev := obj.deviationTerm()
	return &Result{
		Curve:        curve,
		NEvaluations: obj.NEvals(),
		NIterations:  res.Iterations,
		Deviation:    dev,
		CurvLE:       math.Abs(curve.Curvature(0.0)),
		CurvTE:       geom.SignedCurvature(curve, side, 1.0),
		Cancelled:    res.Cancelled,
		History:      obj.History(),
	}, nil
}

// validateTarget checks the RunFit preconditions: enough samples, strictly
// ascending x, finite values.
func validateTarget(t geom.TargetLine) error {
	if len(t.X) != len(t.Y) {
		return fmt.Errorf("coordinate counts differ: %d x vs %d y", len(t.X), len(t.Y))
	}
	if t.Len() < minTargetPoints {
		return fmt.Errorf("target line has %d points, need at least %d", t.Len(), minTargetPoints)
	}
	for i := range t.X {
		if math.IsNaN(t.X[i]) || math.IsInf(t.X[i], 0) || math.IsNaN(t.Y[i]) || math.IsInf(t.Y[i], 0) {
			return fmt.Errorf("non-finite coordinate at index %d", i)
		}
		if i > 0 && t.X[i] <= t.X[i-1] {
			return fmt.Errorf("x not strictly ascending at index %d (%g after %g)", i, t.X[i], t.X[i-1])
		}
	}
	return nil
}
