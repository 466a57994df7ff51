// Package geom provides the Bezier curve primitives used by the airfoil
// fitting engine: Bernstein-basis evaluation, analytic curvature and fast
// inverse lookup of y for a given x.
//
// A Curve of N control points is a single Bezier curve of degree N-1. The
// first control point sits on the leading edge (0,0) and the last on the
// trailing edge; the fitting code moves only the interior points. All
// evaluation is pure given the current control points; the only state kept
// between calls is the sample cache that backs EvalYOnX.
package geom

import (
	"fmt"
	"math"

	"github.com/airshape-data/foilfit/internal/simplex"
)

// MinControlPoints is the smallest number of control points for which
// curvature (which needs a second derivative) is defined.
const MinControlPoints = 3

// Curve is a Bezier curve of degree len(points)-1 over u in [0,1].
//
// The curve exclusively owns its control-point storage. PointsX and PointsY
// return copies; mutation goes through SetPoint and SetPoints, both of which
// invalidate the sample cache.
type Curve struct {
	px, py []float64
	binom  []float64 // binomial coefficients C(n,i) for the curve degree

	// Cache of the most recent EvalAt call, used by the fast inverse
	// lookup. Nil until EvalAt has been called at least once.
	cacheU []float64
	cacheX []float64
	cacheY []float64
}

// NewCurve builds a curve from control point coordinates. The slices are
// copied. Returns an error if fewer than MinControlPoints points are given
// or the coordinate slices differ in length.
func NewCurve(px, py []float64) (*Curve, error) {
	if len(px) != len(py) {
		return nil, fmt.Errorf("control point coordinate counts differ: %d x vs %d y", len(px), len(py))
	}
	if len(px) < MinControlPoints {
		return nil, fmt.Errorf("need at least %d control points, got %d", MinControlPoints, len(px))
	}
	c := &Curve{
		px: append([]float64(nil), px...),
		py: append([]float64(nil), py...),
	}
	c.binom = binomialRow(len(px) - 1)
	return c, nil
}

// NumPoints returns the number of control points.
func (c *Curve) NumPoints() int { return len(c.px) }

// Degree returns the polynomial degree of the curve.
func (c *Curve) Degree() int { return len(c.px) - 1 }

// Point returns control point i.
func (c *Curve) Point(i int) (x, y float64) { return c.px[i], c.py[i] }

// SetPoint replaces control point i and invalidates the sample cache.
func (c *Curve) SetPoint(i int, x, y float64) {
	c.px[i] = x
	c.py[i] = y
	c.invalidate()
}

// SetPoints replaces all control points and invalidates the sample cache.
// The point count may change; slices are copied.
func (c *Curve) SetPoints(px, py []float64) error {
	if len(px) != len(py) {
		return fmt.Errorf("control point coordinate counts differ: %d x vs %d y", len(px), len(py))
	}
	if len(px) < MinControlPoints {
		return fmt.Errorf("need at least %d control points, got %d", MinControlPoints, len(px))
	}
	c.px = append(c.px[:0], px...)
	c.py = append(c.py[:0], py...)
	c.binom = binomialRow(len(px) - 1)
	c.invalidate()
	return nil
}

// PointsX returns a copy of the control point x coordinates.
func (c *Curve) PointsX() []float64 { return append([]float64(nil), c.px...) }

// PointsY returns a copy of the control point y coordinates.
func (c *Curve) PointsY() []float64 { return append([]float64(nil), c.py...) }

func (c *Curve) invalidate() {
	c.cacheU = nil
	c.cacheX = nil
	c.cacheY = nil
}

// Eval returns the curve position at parameter u. Out-of-range u is clamped
// to [0,1].
func (c *Curve) Eval(u float64) (x, y float64) {
	u = clamp01(u)
	n := c.Degree()
	for i := 0; i <= n; i++ {
		b := c.binom[i] * math.Pow(u, float64(i)) * math.Pow(1.0-u, float64(n-i))
		x += b * c.px[i]
		y += b * c.py[i]
	}
	return x, y
}

// EvalAt evaluates the curve at every parameter in us and caches the
// resulting (u, x, y) samples for subsequent fast inverse lookups. The cache
// is replaced wholesale on every call and dropped when a control point
// changes.
func (c *Curve) EvalAt(us []float64) (xs, ys []float64) {
	xs = make([]float64, len(us))
	ys = make([]float64, len(us))
	for i, u := range us {
		xs[i], ys[i] = c.Eval(u)
	}
	c.cacheU = append([]float64(nil), us...)
	c.cacheX = append([]float64(nil), xs...)
	c.cacheY = append([]float64(nil), ys...)
	return xs, ys
}

// EvalYOnX returns the curve y at the given x.
//
// The fast path interpolates u linearly between the two cached samples that
// bracket x, then evaluates y at the interpolated u. If no cache exists or x
// lies outside the cached range, it falls back to an accurate bounded search
// rather than extrapolating.
func (c *Curve) EvalYOnX(x float64) float64 {
	if u, ok := c.interpolateU(c.cacheX, x); ok {
		_, y := c.Eval(u)
		return y
	}
	u := c.searchU(func(u float64) float64 {
		cx, _ := c.Eval(u)
		return math.Abs(cx - x)
	})
	_, y := c.Eval(u)
	return y
}

// EvalXOnY returns the curve x at the given y, with the same fast-path and
// fallback behaviour as EvalYOnX. Only meaningful where y is monotonic over
// the cached samples.
func (c *Curve) EvalXOnY(y float64) float64 {
	if u, ok := c.interpolateU(c.cacheY, y); ok {
		x, _ := c.Eval(u)
		return x
	}
	u := c.searchU(func(u float64) float64 {
		_, cy := c.Eval(u)
		return math.Abs(cy - y)
	})
	x, _ := c.Eval(u)
	return x
}

// interpolateU finds the first pair of adjacent cached samples bracketing v
// and returns the linearly interpolated parameter between them.
func (c *Curve) interpolateU(cache []float64, v float64) (float64, bool) {
	if len(cache) < 2 {
		return 0, false
	}
	for i := 1; i < len(cache); i++ {
		a, b := cache[i-1], cache[i]
		if (v-a)*(v-b) > 0 {
			continue
		}
		if a == b {
			return c.cacheU[i-1], true
		}
		t := (v - a) / (b - a)
		return c.cacheU[i-1] + t*(c.cacheU[i]-c.cacheU[i-1]), true
	}
	return 0, false
}

// searchU minimizes dist(u) over u in [0,1] with a derivative-free scalar
// search. Used by the accurate inverse-lookup path.
func (c *Curve) searchU(dist func(float64) float64) float64 {
	u, _ := simplex.MinimizeScalar(dist, 0.0, 1.0, simplex.ScalarOptions{
		Tolerance:     1e-10,
		MaxIterations: 200,
	})
	return u
}

// derivatives returns the first and second parametric derivatives at u,
// evaluated via the hodograph curves (degree n-1 and n-2).
func (c *Curve) derivatives(u float64) (dx, dy, ddx, ddy float64) {
	n := c.Degree()
	fn := float64(n)

	b1 := binomialRow(n - 1)
	for i := 0; i <= n-1; i++ {
		b := b1[i] * math.Pow(u, float64(i)) * math.Pow(1.0-u, float64(n-1-i))
		dx += b * fn * (c.px[i+1] - c.px[i])
		dy += b * fn * (c.py[i+1] - c.py[i])
	}

	fn2 := fn * float64(n-1)
	b2 := binomialRow(n - 2)
	for i := 0; i <= n-2; i++ {
		b := b2[i] * math.Pow(u, float64(i)) * math.Pow(1.0-u, float64(n-2-i))
		ddx += b * fn2 * (c.px[i+2] - 2.0*c.px[i+1] + c.px[i])
		ddy += b * fn2 * (c.py[i+2] - 2.0*c.py[i+1] + c.py[i])
	}
	return dx, dy, ddx, ddy
}

// Curvature returns the signed curvature at parameter u:
//
//	k = (x'y'' - y'x'') / (x'^2 + y'^2)^1.5
//
// Out-of-range u is clamped to [0,1]. Degenerate control points (zero-length
// first derivative) yield the IEEE value the expression evaluates to (Inf or
// NaN); callers in the objective function rely on large magnitudes being
// penalized naturally rather than special-cased here.
func (c *Curve) Curvature(u float64) float64 {
	u = clamp01(u)
	dx, dy, ddx, ddy := c.derivatives(u)
	return (dx*ddy - dy*ddx) / math.Pow(dx*dx+dy*dy, 1.5)
}

func clamp01(u float64) float64 {
	if u < 0.0 {
		return 0.0
	}
	if u > 1.0 {
		return 1.0
	}
	return u
}

// binomialRow returns row n of Pascal's triangle: C(n,0)..C(n,n).
func binomialRow(n int) []float64 {
	row := make([]float64, n+1)
	row[0] = 1.0
	for i := 1; i <= n; i++ {
		row[i] = row[i-1] * float64(n-i+1) / float64(i)
	}
	return row
}
