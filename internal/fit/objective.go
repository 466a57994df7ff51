package fit

import (
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/airshape-data/foilfit/internal/geom"
)

// Objective term scale factors. These were tuned empirically against a body
// of airfoils and are kept verbatim; the total cost is their plain sum, not
// a normalized combination. As a rough quality anchor, a deviation term of
// 1.0 is acceptable and 0.2 is good.
const (
	deviationScale  = 1000.0 // L2 deviation norm multiplier
	leHighPointDiv  = 4.0    // divisor for the LE curvature high-point penalty
	leTargetDiv     = 80.0   // divisor for the LE curvature target penalty
	teDeadBand      = 0.1    // tolerated TE curvature excess before penalizing
	teReversalMult  = 3.0    // multiplier when TE curvature flips sign
	derivAnomalyDiv = 20.0   // divisor for the TE curvature-derivative penalty
	derivNoiseFloor = 0.02   // curvature-derivative magnitude below which sign flips are noise
	reversalWeight  = 0.4    // per-squared-count weight of curvature reversals
)

// Curvature is sampled over u in [0.2, 1.0] for the derivative terms, with
// extra density close to the trailing edge.
const (
	derivSpanPoints = 15 // samples over [0.2, 0.95)
	derivTailPoints = 10 // samples over [0.95, 1.0]
)

// cacheGridPoints is the number of u samples evaluated before each
// deviation pass to prime the curve's inverse-lookup cache.
const cacheGridPoints = 50

// ProgressFunc receives throttled progress updates during a fit run. The
// callbacks are delivered strictly in increasing nEvals order from the
// single goroutine running the optimization.
type ProgressFunc func(nEvals int, deviation, curvLE, curvTE float64)

// EvalSample is one recorded objective evaluation, kept when history
// recording is enabled so the convergence can be charted afterwards.
type EvalSample struct {
	NEvals    int
	Cost      float64
	Deviation float64
}

// Objective computes the composite scalar cost of the current optimization
// vector: deviation to the reduced target plus curvature quality penalties
// at the leading and trailing edges. One instance serves exactly one fit
// run; it owns the working curve for the duration of that run.
type Objective struct {
	curve  *geom.Curve
	side   geom.Side
	target geom.TargetLine // reduced

	targetCurvLE float64
	leWeighting  float64
	maxCurvTE    float64

	progressEvery int
	onProgress    ProgressFunc
	verbose       bool
	recordHistory bool

	uGrid  []float64 // cache priming grid
	uDeriv []float64 // curvature derivative sample parameters
	devBuf []float64

	nEvals  int
	history []EvalSample

	lastDeviation float64
	lastCurvLE    float64
	lastCurvTE    float64
}

func newObjective(curve *geom.Curve, side geom.Side, target geom.TargetLine, req Request, cfg Config) *Objective {
	o := &Objective{
		curve:         curve,
		side:          side,
		target:        target,
		targetCurvLE:  req.TargetCurvLE,
		leWeighting:   req.TargetCurvLEWeighting,
		maxCurvTE:     req.MaxCurvTE,
		progressEvery: cfg.ProgressEvery,
		onProgress:    req.OnProgress,
		verbose:       cfg.Verbose,
		recordHistory: req.RecordHistory,
		devBuf:        make([]float64, target.Len()),
	}

	o.uGrid = make([]float64, cacheGridPoints)
	for i := range o.uGrid {
		o.uGrid[i] = float64(i) / float64(cacheGridPoints-1)
	}

	o.uDeriv = make([]float64, 0, derivSpanPoints+derivTailPoints)
	for i := 0; i < derivSpanPoints; i++ {
		o.uDeriv = append(o.uDeriv, 0.2+float64(i)*(0.75/derivSpanPoints))
	}
	for i := 0; i < derivTailPoints; i++ {
		o.uDeriv = append(o.uDeriv, 0.95+float64(i)*(0.05/float64(derivTailPoints-1)))
	}
	return o
}

// NEvals returns the number of objective evaluations performed so far.
func (o *Objective) NEvals() int { return o.nEvals }

// History returns the recorded evaluation samples (nil unless history
// recording was requested).
func (o *Objective) History() []EvalSample { return o.history }

// Eval maps vars into the working curve and returns the composite cost.
// It always returns a finite value for finite inputs except at fully
// degenerate control configurations, where the IEEE curvature values flow
// through and the resulting large cost steers the search away.
func (o *Objective) Eval(vars []float64) float64 {
	FromVariables(o.curve, o.side, vars)
	o.nEvals++

	devTerm := o.deviationTerm()
	curvLE := math.Abs(o.curve.Curvature(0.0))
	leHigh := o.leHighPointTerm()
	leTarget := o.leTargetTerm(curvLE)
	teLimit, curvTE := o.teLimitTerm()
	derivAnomaly, reversals := o.derivativeTerms()

	cost := devTerm + leHigh + leTarget + teLimit + derivAnomaly + reversals

	o.lastDeviation = devTerm
	o.lastCurvLE = curvLE
	o.lastCurvTE = curvTE

	if o.recordHistory {
		o.history = append(o.history, EvalSample{NEvals: o.nEvals, Cost: cost, Deviation: devTerm})
	}
	if o.onProgress != nil && o.progressEvery > 0 && o.nEvals%o.progressEvery == 0 {
		o.onProgress(o.nEvals, devTerm, curvLE, curvTE)
	}
	if o.verbose && o.nEvals%100 == 0 {
		log.Printf("fit: eval=%d cost=%.4f dev=%.4f leHigh=%.4f leTarget=%.4f teLimit=%.4f derivAnomaly=%.4f reversals=%.4f",
			o.nEvals, cost, devTerm, leHigh, leTarget, teLimit, derivAnomaly, reversals)
	}
	return cost
}

// deviationTerm primes the inverse-lookup cache and returns the scaled L2
// norm of y differences at the reduced target x positions.
func (o *Objective) deviationTerm() float64 {
	o.curve.EvalAt(o.uGrid)
	for i, x := range o.target.X {
		o.devBuf[i] = o.curve.EvalYOnX(x) - o.target.Y[i]
	}
	return floats.Norm(o.devBuf, 2) * deviationScale
}

// leHighPointTerm penalizes shapes whose curvature peaks just inside the
// leading edge instead of at it.
func (o *Objective) leHighPointTerm() float64 {
	k0 := math.Abs(o.curve.Curvature(0.0))
	k1 := math.Abs(o.curve.Curvature(0.005))
	if k0 >= k1 {
		return 0.0
	}
	return (k1 - k0) / leHighPointDiv
}

// leTargetTerm pulls the LE curvature magnitude toward a requested value.
// Disabled when no target is supplied or the weighting is zero.
func (o *Objective) leTargetTerm(curvLE float64) float64 {
	if o.targetCurvLE == 0 || o.leWeighting == 0 {
		return 0.0
	}
	return math.Abs(o.targetCurvLE-curvLE) * o.leWeighting / leTargetDiv
}

// teLimitTerm compares the sign-corrected TE curvature against the allowed
// maximum. An excess on the same sign is tolerated up to the dead band; a
// sign reversal at the TE implies a wavy trailing edge and is penalized at
// full magnitude times teReversalMult.
func (o *Objective) teLimitTerm() (term, curvTE float64) {
	curvTE = geom.SignedCurvature(o.curve, o.side, 1.0)
	if curvTE*o.maxCurvTE >= 0 {
		delta := math.Abs(curvTE) - math.Abs(o.maxCurvTE)
		if delta > teDeadBand {
			term = delta - teDeadBand
		}
		return term, curvTE
	}
	return math.Abs(curvTE) * teReversalMult, curvTE
}

// derivativeTerms samples curvature over the rear of the curve and returns
// the curvature-derivative anomaly penalty (curvature "slipping away" as
// control points approach the TE) and the quadratic reversal penalty.
func (o *Objective) derivativeTerms() (anomaly, reversals float64) {
	n := len(o.uDeriv)
	xs := make([]float64, n)
	ks := make([]float64, n)
	for i, u := range o.uDeriv {
		xs[i], _ = o.curve.Eval(u)
		ks[i] = geom.SignedCurvature(o.curve, o.side, u)
	}

	deriv := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		dx := xs[i] - xs[i-1]
		if dx == 0 {
			deriv = append(deriv, 0)
			continue
		}
		deriv = append(deriv, (ks[i]-ks[i-1])/dx)
	}

	// Anomaly: max |d curvature / dx| over the last samples against a
	// threshold derived from the allowed TE curvature.
	maxDeriv := 0.0
	for _, d := range deriv[len(deriv)-derivTailPoints:] {
		if a := math.Abs(d); a > maxDeriv {
			maxDeriv = a
		}
	}
	threshold := 10.0 * math.Max(math.Abs(o.maxCurvTE), 0.1)
	if threshold < 1.0 {
		threshold = 1.0
	}
	if maxDeriv > threshold {
		anomaly = (maxDeriv - threshold) / derivAnomalyDiv
	}

	// Reversals: sign changes of the curvature derivative above the noise
	// floor. Quadratic growth makes two or more reversals disproportionately
	// bad; a sound surface has at most one.
	count := 0
	for i := 1; i < len(deriv); i++ {
		if deriv[i]*deriv[i-1] < 0 && math.Abs(deriv[i]) >= derivNoiseFloor {
			count++
		}
	}
	reversals = float64(count*count) * reversalWeight
	return anomaly, reversals
}
