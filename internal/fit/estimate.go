package fit

import (
	"fmt"

	"github.com/airshape-data/foilfit/internal/geom"
)

// EstimateControlPoints builds a starting control-point set for fitting a
// side with n control points. Restarting a fit always reseeds from this
// heuristic so a run never inherits a degenerate shape from a previous
// attempt.
//
// The leading edge point is fixed at (0,0) and the trailing edge point is
// taken from the last target sample. Point 1 stays at x=0 (vertical LE
// tangent) with a y picked from the front of the target; the interior
// points sit on the target at evenly spread chord positions, scaled
// slightly outward because the curve always stays inside its control
// polygon.
func EstimateControlPoints(target geom.TargetLine, n int) (px, py []float64, err error) {
	if n < geom.MinControlPoints {
		return nil, nil, fmt.Errorf("need at least %d control points, got %d", geom.MinControlPoints, n)
	}
	if target.Len() < 2 {
		return nil, nil, fmt.Errorf("target line too short to seed from: %d points", target.Len())
	}

	px = make([]float64, n)
	py = make([]float64, n)

	// LE tangent point: x pinned at 0, y from the 3% chord station. The
	// factor approximates the control-arm length a typical LE radius needs.
	px[1] = 0.0
	py[1] = 2.0 * interpY(target, 0.03)

	for i := 2; i <= n-2; i++ {
		x := float64(i-1) / float64(n-2)
		px[i] = x
		py[i] = 1.15 * interpY(target, x)
	}

	last := target.Len() - 1
	px[n-1] = target.X[last]
	py[n-1] = target.Y[last]
	return px, py, nil
}

// interpY linearly interpolates the target y at chord position x, clamping
// to the end samples outside the covered range.
func interpY(target geom.TargetLine, x float64) float64 {
	xs, ys := target.X, target.Y
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}
