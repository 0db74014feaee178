package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DFP1305/pendulo/internal/fit"
	"github.com/DFP1305/pendulo/internal/infra/chart"
	"github.com/DFP1305/pendulo/internal/infra/plot"
	"github.com/DFP1305/pendulo/internal/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FitTraceConfig names the files written next to the trace. Empty plot or
// chart names disable that output.
type FitTraceConfig struct {
	Guess       fit.Params
	QualityFile string
	PlotFile    string
	ChartFile   string
}

type FitReport struct {
	Result           *fit.Result
	NaturalFrequency float64
	QualityFactor    float64
	Files            []string
}

// FitTraceUseCase fits the damped oscillation model to a trace and writes the
// quality factor and plots.
type FitTraceUseCase struct {
	logger *zap.Logger
	cfg    FitTraceConfig
}

func NewFitTraceUseCase(logger *zap.Logger, cfg FitTraceConfig) *FitTraceUseCase {
	if cfg.QualityFile == "" {
		cfg.QualityFile = "fator_qualidade.txt"
	}
	if cfg.Guess == (fit.Params{}) {
		cfg.Guess = fit.DefaultGuess
	}
	return &FitTraceUseCase{logger: logger, cfg: cfg}
}

// ExecuteFromFiles loads both series written by the trace recorder and fits them.
func (uc *FitTraceUseCase) ExecuteFromFiles(ctx context.Context, files trace.Files) (*FitReport, error) {
	times, err := fit.LoadSeries(files.TimesPath())
	if err != nil {
		return nil, fmt.Errorf("load times: %w", err)
	}
	positions, err := fit.LoadSeries(files.PositionsPath())
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	return uc.Execute(ctx, times, positions, files.Dir)
}

func (uc *FitTraceUseCase) Execute(ctx context.Context, times, positions []float64, dir string) (*FitReport, error) {
	_, span := otel.Tracer("usecase").Start(ctx, "FitTraceUseCase.Execute")
	defer span.End()

	res, err := fit.Fit(times, positions, uc.cfg.Guess)
	if err != nil {
		return nil, err
	}

	p := res.Params
	report := &FitReport{
		Result:           res,
		NaturalFrequency: p.NaturalFrequency(),
		QualityFactor:    p.QualityFactor(),
	}
	span.SetAttributes(
		attribute.Float64("fit.damping", p.Damping),
		attribute.Float64("fit.omega", p.Omega),
		attribute.Float64("fit.quality_factor", report.QualityFactor),
	)

	uc.logger.Info("damped oscillation fitted",
		zap.Float64("cte", p.Offset),
		zap.Float64("a", p.Amplitude),
		zap.Float64("b", p.Damping),
		zap.Float64("w", p.Omega),
		zap.Float64("phi", p.Phase),
		zap.Float64("w0", report.NaturalFrequency),
		zap.Float64("q", report.QualityFactor),
		zap.Int("iterations", res.Iterations),
	)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	qPath := filepath.Join(dir, uc.cfg.QualityFile)
	if err := fit.WriteQualityFactor(qPath, report.QualityFactor); err != nil {
		return nil, fmt.Errorf("write quality factor: %w", err)
	}
	report.Files = append(report.Files, qPath)

	if uc.cfg.PlotFile != "" {
		path := filepath.Join(dir, uc.cfg.PlotFile)
		if err := plot.SaveFit(path, times, positions, p); err != nil {
			return nil, err
		}
		report.Files = append(report.Files, path)
	}
	if uc.cfg.ChartFile != "" {
		path := filepath.Join(dir, uc.cfg.ChartFile)
		if err := chart.SaveFit(path, times, positions, &p); err != nil {
			return nil, err
		}
		report.Files = append(report.Files, path)
	}

	return report, nil
}
