package fit

import (
	"math"
	"testing"

	"github.com/airshape-data/foilfit/internal/geom"
)

func TestEstimateControlPointsLayout(t *testing.T) {
	target := denseLine(100)
	n := 6
	px, py, err := EstimateControlPoints(target, n)
	if err != nil {
		t.Fatalf("EstimateControlPoints: %v", err)
	}
	if len(px) != n || len(py) != n {
		t.Fatalf("got %d/%d coordinates, want %d", len(px), len(py), n)
	}

	if px[0] != 0 || py[0] != 0 {
		t.Errorf("LE point = (%g,%g), want (0,0)", px[0], py[0])
	}
	if px[1] != 0 {
		t.Errorf("tangent point x = %g, must stay at 0", px[1])
	}
	if want := 2.0 * interpY(target, 0.03); py[1] != want {
		t.Errorf("tangent point y = %g, want %g", py[1], want)
	}

	for i := 2; i <= n-2; i++ {
		wantX := float64(i-1) / float64(n-2)
		if math.Abs(px[i]-wantX) > 1e-12 {
			t.Errorf("interior point %d at x=%g, want %g", i, px[i], wantX)
		}
		if wantY := 1.15 * interpY(target, wantX); math.Abs(py[i]-wantY) > 1e-12 {
			t.Errorf("interior point %d at y=%g, want %g", i, py[i], wantY)
		}
	}

	last := target.Len() - 1
	if px[n-1] != target.X[last] || py[n-1] != target.Y[last] {
		t.Errorf("TE point = (%g,%g), want last target sample (%g,%g)",
			px[n-1], py[n-1], target.X[last], target.Y[last])
	}
}

func TestEstimateControlPointsErrors(t *testing.T) {
	target := denseLine(100)
	if _, _, err := EstimateControlPoints(target, 2); err == nil {
		t.Error("expected error for 2 control points")
	}
	short := geom.TargetLine{X: []float64{0.5}, Y: []float64{0.1}}
	if _, _, err := EstimateControlPoints(short, 5); err == nil {
		t.Error("expected error for a single-sample target")
	}
}

func TestInterpY(t *testing.T) {
	target := geom.TargetLine{
		X: []float64{0.1, 0.5, 0.9},
		Y: []float64{0.02, 0.10, 0.04},
	}
	if got := interpY(target, 0.0); got != 0.02 {
		t.Errorf("below range: got %g, want first sample 0.02", got)
	}
	if got := interpY(target, 1.0); got != 0.04 {
		t.Errorf("above range: got %g, want last sample 0.04", got)
	}
	if got := interpY(target, 0.3); math.Abs(got-0.06) > 1e-12 {
		t.Errorf("interpY(0.3) = %g, want 0.06", got)
	}
	if got := interpY(target, 0.5); got != 0.10 {
		t.Errorf("interpY(0.5) = %g, want exact sample 0.10", got)
	}
}
