package fit

import (
	"github.com/airshape-data/foilfit/internal/geom"
	"github.com/airshape-data/foilfit/internal/simplex"
)

// Free interior control points keep their x coordinate inside this range.
// The upper limit keeps points away from the trailing edge, where a control
// point parked near x=1 produces curvature spikes.
const (
	varXMin = 0.01
	varXMax = 0.95
)

// NumVariables returns the optimization vector length for a curve of n
// control points: the leading and trailing edge points are fixed, and the
// first free point contributes only its y coordinate (its x stays pinned at
// the leading edge so the curve leaves the LE vertically).
func NumVariables(n int) int { return (n-2)*2 - 1 }

// ToVariables flattens the free control points of c into an optimization
// vector with per-variable bounds. Lower-side y coordinates are negated on
// the way out so the optimizer always searches in positive-y space
// regardless of which surface is being fit.
//
// Layout: [y1, x2, y2, x3, y3, ..., x(n-2), y(n-2)].
func ToVariables(c *geom.Curve, side geom.Side) ([]float64, []simplex.Bound) {
	n := c.NumPoints()
	vars := make([]float64, 0, NumVariables(n))
	bounds := make([]simplex.Bound, 0, NumVariables(n))

	_, y1 := c.Point(1)
	vars = append(vars, flipY(y1, side))
	bounds = append(bounds, simplex.Unbounded())

	for i := 2; i <= n-2; i++ {
		x, y := c.Point(i)
		vars = append(vars, x)
		bounds = append(bounds, simplex.Bound{Min: varXMin, Max: varXMax})
		vars = append(vars, flipY(y, side))
		bounds = append(bounds, simplex.Unbounded())
	}
	return vars, bounds
}

// FromVariables writes an optimization vector back into the curve's free
// control points, un-negating lower-side y values. The leading edge point
// (index 0), the trailing edge point (index n-1) and the x coordinate of
// point 1 are left untouched. Exact inverse of ToVariables.
func FromVariables(c *geom.Curve, side geom.Side, vars []float64) {
	n := c.NumPoints()

	x1, _ := c.Point(1)
	c.SetPoint(1, x1, flipY(vars[0], side))

	v := 1
	for i := 2; i <= n-2; i++ {
		c.SetPoint(i, vars[v], flipY(vars[v+1], side))
		v += 2
	}
}

func flipY(y float64, side geom.Side) float64 {
	if side.IsLower() {
		return -y
	}
	return y
}
