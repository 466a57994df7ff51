package fit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/airshape-data/foilfit/internal/geom"
)

// generatorTarget samples a dense target line off a known cubic curve, so a
// fit with the same control point count can in principle reproduce it
// exactly.
func generatorTarget(t *testing.T, n int) geom.TargetLine {
	t.Helper()
	gen, err := geom.NewCurve(
		[]float64{0, 0, 0.55, 1},
		[]float64{0, 0.10, 0.08, 0},
	)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	us := make([]float64, 400)
	for i := range us {
		us[i] = float64(i) / 399
	}
	gen.EvalAt(us)

	var target geom.TargetLine
	for i := 0; i < n; i++ {
		x := 0.004 + (1.0-0.004)*float64(i)/float64(n-1)
		target.X = append(target.X, x)
		target.Y = append(target.Y, gen.EvalYOnX(x))
	}
	return target
}

func TestRunFitValidation(t *testing.T) {
	fc := NewController(DefaultConfig())
	ctx := context.Background()

	cases := []struct {
		name   string
		target geom.TargetLine
		req    Request
	}{
		{
			name:   "too few points",
			target: denseLine(5),
		},
		{
			name: "non-ascending x",
			target: geom.TargetLine{
				X: []float64{0, 0.1, 0.2, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
				Y: make([]float64, 11),
			},
		},
		{
			name: "mismatched lengths",
			target: geom.TargetLine{
				X: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
				Y: []float64{0, 0.1},
			},
		},
		{
			name: "non-finite coordinate",
			target: geom.TargetLine{
				X: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
				Y: []float64{0, 0.1, math.NaN(), 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0},
			},
		},
		{
			name:   "too few control points",
			target: denseLine(100),
			req:    Request{NumControlPoints: 2},
		},
		{
			name:   "too many control points",
			target: denseLine(100),
			req:    Request{NumControlPoints: 20},
		},
	}
	for _, tc := range cases {
		_, err := fc.RunFit(ctx, geom.SideUpper, tc.target, tc.req)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestRunFitRecoversGeneratorCurve(t *testing.T) {
	target := generatorTarget(t, 150)
	fc := NewController(DefaultConfig())

	res, err := fc.RunFit(context.Background(), geom.SideUpper, target, Request{
		NumControlPoints: 4,
		MaxCurvTE:        -10, // generous allowance on the upper side's sign
	})
	if err != nil {
		t.Fatalf("RunFit: %v", err)
	}
	if res.Cancelled {
		t.Fatal("fit reported cancelled")
	}
	if res.NEvaluations == 0 || res.NIterations == 0 {
		t.Fatalf("fit did no work: %d evals, %d iterations", res.NEvaluations, res.NIterations)
	}
	if res.Deviation > 1.0 {
		t.Errorf("deviation %g after fitting an exactly representable target, want < 1.0", res.Deviation)
	}
	if res.Curve.NumPoints() != 4 {
		t.Errorf("fitted curve has %d control points, want 4", res.Curve.NumPoints())
	}

	// The soft bound penalty must have kept the interior x coordinates
	// essentially inside the feasible band.
	px := res.Curve.PointsX()
	for i := 2; i < len(px)-1; i++ {
		if px[i] < varXMin-0.05 || px[i] > varXMax+0.05 {
			t.Errorf("control point %d escaped to x=%g", i, px[i])
		}
	}
}

func TestRunFitDefaultsToFiveControlPoints(t *testing.T) {
	target := generatorTarget(t, 120)
	fc := NewController(DefaultConfig())

	res, err := fc.RunFit(context.Background(), geom.SideUpper, target, Request{MaxCurvTE: -10})
	if err != nil {
		t.Fatalf("RunFit: %v", err)
	}
	if res.Curve.NumPoints() != 5 {
		t.Errorf("default fit produced %d control points, want 5", res.Curve.NumPoints())
	}
}

func TestRunFitProgressCallback(t *testing.T) {
	target := generatorTarget(t, 120)
	cfg := DefaultConfig()
	cfg.ProgressEvery = 1
	cfg.MaxIterationsPerVar = 10
	fc := NewController(cfg)

	calls := 0
	res, err := fc.RunFit(context.Background(), geom.SideUpper, target, Request{
		NumControlPoints: 4,
		MaxCurvTE:        -10,
		OnProgress:       func(int, float64, float64, float64) { calls++ },
	})
	if err != nil {
		t.Fatalf("RunFit: %v", err)
	}
	if calls != res.NEvaluations {
		t.Errorf("%d progress callbacks for %d evaluations at cadence 1", calls, res.NEvaluations)
	}
}

func TestRunFitCancellation(t *testing.T) {
	target := generatorTarget(t, 120)
	fc := NewController(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := fc.RunFit(ctx, geom.SideUpper, target, Request{MaxCurvTE: -10})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if !res.Cancelled {
		t.Error("result not marked cancelled")
	}
	if res.NEvaluations > 20 {
		t.Errorf("%d evaluations after immediate cancellation", res.NEvaluations)
	}
	if res.Curve == nil {
		t.Fatal("cancelled run must still return the best curve so far")
	}
	if math.IsNaN(res.Deviation) {
		t.Error("cancelled run returned NaN deviation")
	}
}

func TestRunFitHistoryRecording(t *testing.T) {
	target := generatorTarget(t, 120)
	cfg := DefaultConfig()
	cfg.MaxIterationsPerVar = 5
	fc := NewController(cfg)

	res, err := fc.RunFit(context.Background(), geom.SideUpper, target, Request{
		NumControlPoints: 4,
		MaxCurvTE:        -10,
		RecordHistory:    true,
	})
	if err != nil {
		t.Fatalf("RunFit: %v", err)
	}
	if len(res.History) != res.NEvaluations {
		t.Errorf("history has %d samples for %d evaluations", len(res.History), res.NEvaluations)
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i].NEvals <= res.History[i-1].NEvals {
			t.Fatalf("history eval counters not strictly increasing at %d", i)
		}
	}
}
