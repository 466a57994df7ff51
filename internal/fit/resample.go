package fit

import (
	"sort"

	"github.com/airshape-data/foilfit/internal/geom"
)

// ReduceTarget walks the chord from cfg.XStart toward the trailing edge in
// the configured variable steps and, at each nominal x, emits the closest
// actual sample from the source line. Emitting real samples rather than
// interpolations preserves the measured noise characteristics and avoids
// smoothing bias.
//
// Precondition: line.X is sorted ascending in [0,1]. The walk terminates
// once the cursor reaches x >= 1.0; duplicate nearest indices are skipped so
// the output x values are strictly increasing.
func ReduceTarget(line geom.TargetLine, cfg ResampleConfig) geom.TargetLine {
	var out geom.TargetLine
	lastIdx := -1
	for x := cfg.XStart; x < 1.0; {
		idx := nearestIndex(line.X, x)
		if idx != lastIdx {
			out.X = append(out.X, line.X[idx])
			out.Y = append(out.Y, line.Y[idx])
			lastIdx = idx
		}
		switch {
		case x < cfg.XMid:
			x += cfg.DX1
		case x < cfg.XRear:
			x += cfg.DX2
		default:
			x += cfg.DX3
		}
	}
	return out
}

// nearestIndex returns the index of the sample in xs closest to x. xs must
// be sorted ascending.
func nearestIndex(xs []float64, x float64) int {
	i := sort.SearchFloat64s(xs, x)
	if i == 0 {
		return 0
	}
	if i == len(xs) {
		return len(xs) - 1
	}
	if x-xs[i-1] <= xs[i]-x {
		return i - 1
	}
	return i
}
