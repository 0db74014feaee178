// Package chart renders an interactive HTML chart of a trace and its fit.
package chart

import (
	"fmt"
	"io"
	"os"

	"github.com/DFP1305/pendulo/internal/fit"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const curvePoints = 500

// RenderFit writes the chart HTML to w. A nil params skips the fitted curve.
func RenderFit(w io.Writer, times, positions []float64, params *fit.Params) error {
	if len(times) != len(positions) {
		return fmt.Errorf("chart: series differ in length (%d and %d)", len(times), len(positions))
	}

	samples := make([]opts.ScatterData, len(times))
	for i := range times {
		samples[i] = opts.ScatterData{Value: []interface{}{times[i], positions[i]}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pendulum trace", Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Damped oscillation", Subtitle: fmt.Sprintf("samples=%d", len(times))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Position (cm)", NameLocation: "middle", NameGap: 35}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	scatter.AddSeries("samples", samples, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	if params != nil && len(times) > 1 {
		t0, t1 := times[0], times[len(times)-1]
		curve := make([]opts.LineData, curvePoints)
		for i := range curve {
			t := t0 + (t1-t0)*float64(i)/float64(curvePoints-1)
			curve[i] = opts.LineData{Value: []interface{}{t, fit.Model(t, *params)}}
		}
		line := charts.NewLine()
		line.AddSeries("fit", curve, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		scatter.Overlap(line)
	}

	return scatter.Render(w)
}

// SaveFit renders the chart to path.
func SaveFit(path string, times, positions []float64, params *fit.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}
	defer f.Close()

	if err := RenderFit(f, times, positions, params); err != nil {
		return err
	}
	return f.Close()
}
