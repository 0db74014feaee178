// Package plot renders the trace and its fitted curve to a PNG.
package plot

import (
	"fmt"
	"image/color"

	"github.com/DFP1305/pendulo/internal/fit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const curveSamples = 1000

var (
	sampleColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	curveColor  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// SaveFit writes a scatter of the samples with the fitted curve over their time span.
func SaveFit(path string, times, positions []float64, params fit.Params) error {
	if len(times) == 0 || len(times) != len(positions) {
		return fmt.Errorf("plot: need equal, non-empty series (got %d and %d)", len(times), len(positions))
	}

	p := plot.New()
	p.Title.Text = "Damped oscillation fit"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Position (cm)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i] = plotter.XY{X: times[i], Y: positions[i]}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("plot: scatter: %w", err)
	}
	scatter.GlyphStyle.Color = sampleColor
	scatter.GlyphStyle.Radius = vg.Points(2)

	minT, maxT := times[0], times[0]
	for _, t := range times {
		minT = min(minT, t)
		maxT = max(maxT, t)
	}
	curve := plotter.NewFunction(func(t float64) float64 { return fit.Model(t, params) })
	curve.XMin = minT
	curve.XMax = maxT
	curve.Samples = curveSamples
	curve.Color = curveColor
	curve.Width = vg.Points(1.5)

	p.Add(scatter, curve)
	p.Legend.Add("Experimental data", scatter)
	p.Legend.Add("Fitted curve", curve)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}
