package geom

// Side identifies which surface of the airfoil a curve or target line
// describes. Curvature carries an orientation-dependent sign (the upper
// surface family evaluates negative); SignedCurvature is the single place
// that correction is applied, so callers never re-derive the flip.
type Side int

const (
	SideUpper Side = iota
	SideLower
)

func (s Side) String() string {
	if s == SideLower {
		return "lower"
	}
	return "upper"
}

// IsLower reports whether s is the lower surface.
func (s Side) IsLower() bool { return s == SideLower }

// SignedCurvature returns the curvature of c at u, oriented consistently
// across sides: for the lower surface the raw curvature is negated so that
// "curving away from the chord" has the same sign for both sides.
func SignedCurvature(c *Curve, side Side, u float64) float64 {
	k := c.Curvature(u)
	if side.IsLower() {
		return -k
	}
	return k
}

// TargetLine is one side of an airfoil contour: (x,y) samples ordered by
// ascending x from the leading edge (x=0) to the trailing edge (x=1),
// normalized to chord length. The fitting core reads it but never mutates
// it.
type TargetLine struct {
	X []float64
	Y []float64
}

// Len returns the number of samples.
func (t TargetLine) Len() int { return len(t.X) }
