// Command fit adjusts a damped oscillation to the series written by tracker
// and reports the pendulum's quality factor.
//
// Usage:
//
//	fit [dir]
//
// dir defaults to OUTPUT_DIR.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/DFP1305/pendulo/internal/infra/config"
	"github.com/DFP1305/pendulo/internal/trace"
	"github.com/DFP1305/pendulo/internal/usecase"
	"github.com/DFP1305/pendulo/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so that deferred cleanup always runs.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(stderr, "load config", err)
	}
	if len(args) > 0 {
		cfg.OutputDir = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return fail(stderr, "invalid config", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fail(stderr, "init logger", err)
	}
	defer log.Sync()

	uc := usecase.NewFitTraceUseCase(log, usecase.FitTraceConfig{
		Guess:       cfg.Guess(),
		QualityFile: cfg.FitOutputFile,
		PlotFile:    cfg.FitPlotFile,
		ChartFile:   cfg.FitChartFile,
	})

	files := trace.Files{Dir: cfg.OutputDir, Times: cfg.TimesFile, Positions: cfg.PositionsFile}
	report, err := uc.ExecuteFromFiles(context.Background(), files)
	if err != nil {
		return fail(stderr, "fit trace", err)
	}

	p := report.Result.Params
	s := report.Result.StdErr
	fmt.Fprintf(stdout, "cte = %.6g ± %.2g\n", p.Offset, s.Offset)
	fmt.Fprintf(stdout, "a   = %.6g ± %.2g\n", p.Amplitude, s.Amplitude)
	fmt.Fprintf(stdout, "b   = %.6g ± %.2g\n", p.Damping, s.Damping)
	fmt.Fprintf(stdout, "w   = %.6g ± %.2g\n", p.Omega, s.Omega)
	fmt.Fprintf(stdout, "phi = %.6g ± %.2g\n", p.Phase, s.Phase)
	fmt.Fprintf(stdout, "w0  = %.6g\n", report.NaturalFrequency)
	fmt.Fprintf(stdout, "Q   = %.6g\n", report.QualityFactor)
	for _, f := range report.Files {
		fmt.Fprintln(stdout, "wrote", f)
	}
	return 0
}

func fail(stderr io.Writer, msg string, err error) int {
	fmt.Fprintf(stderr, "fit: %s: %v\n", msg, err)
	return 1
}
