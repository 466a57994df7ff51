// Package report renders fit results: static PNG plots of the fitted curve
// and its curvature via gonum/plot, and an HTML convergence chart via
// go-echarts.
package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/airshape-data/foilfit/internal/geom"
)

// curveSamples is the number of points used to draw the fitted curve.
const curveSamples = 200

var (
	targetColor  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	curveColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	polygonColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SaveFitPlot writes a PNG comparing the target samples against the fitted
// Bezier curve, with the control polygon overlaid.
func SaveFitPlot(path, title string, target geom.TargetLine, curve *geom.Curve) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x/c"
	p.Y.Label.Text = "y/c"

	targetPts := make(plotter.XYs, target.Len())
	for i := range target.X {
		targetPts[i] = plotter.XY{X: target.X[i], Y: target.Y[i]}
	}
	scatter, err := plotter.NewScatter(targetPts)
	if err != nil {
		return fmt.Errorf("target scatter: %w", err)
	}
	scatter.Color = targetColor
	scatter.Radius = vg.Points(1.5)
	p.Add(scatter)
	p.Legend.Add("target", scatter)

	curvePts := make(plotter.XYs, curveSamples)
	for i := range curvePts {
		u := float64(i) / float64(curveSamples-1)
		x, y := curve.Eval(u)
		curvePts[i] = plotter.XY{X: x, Y: y}
	}
	curveLine, err := plotter.NewLine(curvePts)
	if err != nil {
		return fmt.Errorf("curve line: %w", err)
	}
	curveLine.Color = curveColor
	curveLine.Width = vg.Points(1.5)
	p.Add(curveLine)
	p.Legend.Add("bezier", curveLine)

	px, py := curve.PointsX(), curve.PointsY()
	polyPts := make(plotter.XYs, len(px))
	for i := range px {
		polyPts[i] = plotter.XY{X: px[i], Y: py[i]}
	}
	polyLine, polyScatter, err := plotter.NewLinePoints(polyPts)
	if err != nil {
		return fmt.Errorf("control polygon: %w", err)
	}
	polyLine.Color = polygonColor
	polyLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	polyScatter.Color = polygonColor
	p.Add(polyLine, polyScatter)
	p.Legend.Add("control polygon", polyLine)

	if err := p.Save(12*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save fit plot: %w", err)
	}
	return nil
}

// SaveCurvaturePlot writes a PNG of the side-corrected curvature along the
// chord, the main diagnostic for bumps and trailing-edge spikes.
func SaveCurvaturePlot(path, title string, curve *geom.Curve, side geom.Side) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x/c"
	p.Y.Label.Text = "curvature"

	pts := make(plotter.XYs, curveSamples)
	for i := range pts {
		u := float64(i) / float64(curveSamples-1)
		x, _ := curve.Eval(u)
		pts[i] = plotter.XY{X: x, Y: geom.SignedCurvature(curve, side, u)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("curvature line: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(12*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save curvature plot: %w", err)
	}
	return nil
}
