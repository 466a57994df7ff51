package fitstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)

	run := &FitRun{
		Airfoil:          "clark-y",
		Side:             "upper",
		NumControlPoints: 5,
		ParamsJSON:       json.RawMessage(`{"max_curv_te":-10}`),
		Deviation:        0.23,
		CurvLE:           48.5,
		CurvTE:           -0.31,
		NEvaluations:     812,
		NIterations:      403,
	}
	require.NoError(t, s.Insert(run))
	assert.NotEmpty(t, run.RunID, "Insert must assign a run ID")
	assert.NotZero(t, run.CreatedAt, "Insert must stamp a creation time")

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Airfoil, got.Airfoil)
	assert.Equal(t, run.Side, got.Side)
	assert.Equal(t, run.NumControlPoints, got.NumControlPoints)
	assert.JSONEq(t, string(run.ParamsJSON), string(got.ParamsJSON))
	assert.Equal(t, run.Deviation, got.Deviation)
	assert.Equal(t, run.CurvLE, got.CurvLE)
	assert.Equal(t, run.CurvTE, got.CurvTE)
	assert.Equal(t, run.NEvaluations, got.NEvaluations)
	assert.Equal(t, run.NIterations, got.NIterations)
	assert.False(t, got.Cancelled)
	assert.Equal(t, run.CreatedAt, got.CreatedAt)
}

func TestGetMissingRun(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("no-such-run")
	assert.Error(t, err)
}

func TestInsertWithoutParams(t *testing.T) {
	s := newTestStore(t)
	run := &FitRun{Airfoil: "naca0012", Side: "lower", NumControlPoints: 4, Deviation: 1.1}
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Nil(t, got.ParamsJSON)
}

func TestListByAirfoilNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i, dev := range []float64{0.9, 0.4, 0.6} {
		require.NoError(t, s.Insert(&FitRun{
			Airfoil:          "naca2412",
			Side:             "upper",
			NumControlPoints: 5,
			Deviation:        dev,
			CreatedAt:        int64(1000 + i),
		}))
	}
	require.NoError(t, s.Insert(&FitRun{
		Airfoil:          "other-foil",
		Side:             "upper",
		NumControlPoints: 5,
		Deviation:        0.1,
	}))

	runs, err := s.ListByAirfoil("naca2412")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(1002), runs[0].CreatedAt)
	assert.Equal(t, int64(1001), runs[1].CreatedAt)
	assert.Equal(t, int64(1000), runs[2].CreatedAt)
}

func TestBestPicksLowestDeviation(t *testing.T) {
	s := newTestStore(t)

	for _, tc := range []struct {
		side string
		dev  float64
	}{
		{"upper", 0.8},
		{"upper", 0.2},
		{"upper", 0.5},
		{"lower", 0.1},
	} {
		require.NoError(t, s.Insert(&FitRun{
			Airfoil:          "e387",
			Side:             tc.side,
			NumControlPoints: 5,
			Deviation:        tc.dev,
		}))
	}

	best, err := s.Best("e387", "upper")
	require.NoError(t, err)
	assert.Equal(t, 0.2, best.Deviation)

	_, err = s.Best("e387", "flap")
	assert.Error(t, err)
}

func TestCancelledRoundTrip(t *testing.T) {
	s := newTestStore(t)
	run := &FitRun{Airfoil: "ag25", Side: "upper", NumControlPoints: 5, Cancelled: true}
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
}
