// Package airfoil loads airfoil coordinate files and splits them into the
// per-side target lines consumed by the fitting engine.
//
// Only the Selig .dat layout is handled: an optional name line followed by
// x,y pairs tracing the contour from the trailing edge over the upper
// surface to the leading edge and back along the lower surface. Lednicer
// files (separate per-surface blocks introduced by point counts) are
// rejected explicitly.
package airfoil

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/airshape-data/foilfit/internal/geom"
)

// Airfoil is a parsed, normalized contour split at the leading edge. Both
// sides run from the leading edge (x=0) to the trailing edge (x=1).
type Airfoil struct {
	Name  string
	Upper geom.TargetLine
	Lower geom.TargetLine
}

// Side returns the requested target line.
func (a *Airfoil) Side(s geom.Side) geom.TargetLine {
	if s.IsLower() {
		return a.Lower
	}
	return a.Upper
}

// Load reads and parses a .dat file from disk.
func Load(path string) (*Airfoil, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airfoil file: %w", err)
	}
	defer f.Close()
	a, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return a, nil
}

// Parse reads a Selig-format airfoil from r.
func Parse(r io.Reader) (*Airfoil, error) {
	var (
		name   string
		xs, ys []float64
	)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		x, y, ok := parseCoordLine(line)
		if !ok {
			if len(xs) == 0 && name == "" {
				name = line
				continue
			}
			return nil, fmt.Errorf("line %d: cannot parse %q as coordinates", lineNo, line)
		}
		// A Lednicer header announces the per-surface point counts as a
		// pair of values > 1 before any coordinates.
		if len(xs) == 0 && x > 1.0 && y > 1.0 {
			return nil, fmt.Errorf("line %d: Lednicer-format point counts (%g %g) not supported", lineNo, x, y)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read airfoil data: %w", err)
	}
	if len(xs) < 7 {
		return nil, fmt.Errorf("only %d coordinate pairs, not a plausible contour", len(xs))
	}
	for i, x := range xs {
		if x < -0.01 || x > 1.01 {
			return nil, fmt.Errorf("x=%g at pair %d: contour not normalized to chord", x, i)
		}
	}

	upper, lower := splitAtLeadingEdge(xs, ys)
	if len(upper.X) < 3 || len(lower.X) < 3 {
		return nil, fmt.Errorf("degenerate side after split: %d upper, %d lower points", len(upper.X), len(lower.X))
	}
	return &Airfoil{Name: name, Upper: upper, Lower: lower}, nil
}

// splitAtLeadingEdge cuts the TE->LE->TE contour at its minimum-x point.
// The upper surface (first segment) is reversed so both sides run LE->TE.
// The leading edge sample itself is shared by both sides.
func splitAtLeadingEdge(xs, ys []float64) (upper, lower geom.TargetLine) {
	le := 0
	for i, x := range xs {
		if x < xs[le] {
			le = i
		}
	}
	for i := le; i >= 0; i-- {
		upper.X = append(upper.X, xs[i])
		upper.Y = append(upper.Y, ys[i])
	}
	lower.X = append(lower.X, xs[le:]...)
	lower.Y = append(lower.Y, ys[le:]...)

	upper = dropNonAscending(upper)
	lower = dropNonAscending(lower)
	return upper, lower
}

// dropNonAscending removes samples that do not advance x, which otherwise
// violate the fitting precondition. Duplicated LE points in hand-edited
// files are the common case.
func dropNonAscending(t geom.TargetLine) geom.TargetLine {
	var out geom.TargetLine
	for i := range t.X {
		if i > 0 && t.X[i] <= out.X[len(out.X)-1] {
			continue
		}
		out.X = append(out.X, t.X[i])
		out.Y = append(out.Y, t.Y[i])
	}
	return out
}

// parseCoordLine parses "x y" with arbitrary whitespace (and tolerates a
// comma separator). Returns ok=false if the line is not two finite floats.
func parseCoordLine(line string) (x, y float64, ok bool) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 2 {
		return 0, 0, false
	}
	x, errX := parseFloat(fields[0])
	y, errY := parseFloat(fields[1])
	if errX != nil || errY != nil || math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	return x, y, true
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(s, ","), 64)
}
