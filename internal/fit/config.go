// Package fit implements the Bezier matching engine: it reduces a target
// airfoil side to a sparse sample set, maps Bezier control points onto a
// flat optimization vector, and drives a bounded Nelder-Mead search over a
// composite geometric objective until the curve matches the target.
package fit

// ResampleConfig holds the stepping schedule used to reduce a dense target
// line to the sparse sample set the objective operates on. The walk starts
// at XStart and advances by DX1 until XMid, DX2 until XRear, then DX3 until
// the trailing edge. The rear region is denser than mid-chord to catch
// reflex and rear-loading geometry.
type ResampleConfig struct {
	XStart float64
	XMid   float64
	XRear  float64
	DX1    float64
	DX2    float64
	DX3    float64
}

// DefaultResampleConfig returns the stepping schedule tuned for normalized
// airfoil sides: dense near the leading edge, coarser mid-chord, denser
// again toward the trailing edge.
func DefaultResampleConfig() ResampleConfig {
	return ResampleConfig{
		XStart: 0.02,
		XMid:   0.25,
		XRear:  0.8,
		DX1:    0.02,
		DX2:    0.04,
		DX3:    0.03,
	}
}

// Config holds the tunables of a fit run. All values have working defaults
// via DefaultConfig; tests typically only lower ProgressEvery.
type Config struct {
	// Resample is the target reduction schedule.
	Resample ResampleConfig

	// InitialStep is the Nelder-Mead initial simplex step. The default is
	// large relative to the normalized [0,1] coordinates so the search
	// explores the solution space before converging.
	InitialStep float64

	// MaxIterationsPerVar caps optimizer iterations at this value times
	// the number of free variables.
	MaxIterationsPerVar int

	// NoImproveThreshold and NoImproveWindow terminate the search when the
	// best cost has not improved by more than the threshold over the
	// window of consecutive iterations.
	NoImproveThreshold float64
	NoImproveWindow    int

	// ProgressEvery is the progress callback cadence in objective
	// evaluations. Tests use 1.
	ProgressEvery int

	// Verbose logs a per-term cost breakdown every 100 evaluations.
	Verbose bool
}

// DefaultConfig returns the fitting defaults.
func DefaultConfig() Config {
	return Config{
		Resample:            DefaultResampleConfig(),
		InitialStep:         0.16,
		MaxIterationsPerVar: 250,
		NoImproveThreshold:  1e-5,
		NoImproveWindow:     50,
		ProgressEvery:       10,
	}
}
