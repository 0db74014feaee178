package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/DFP1305/pendulo/internal/fit"
	"github.com/DFP1305/pendulo/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSyntheticTrace(t *testing.T, dir string, p fit.Params) trace.Files {
	t.Helper()
	var tr entity.Trace
	for i := 0; i < 150; i++ {
		tm := float64(i) / 10
		tr.Samples = append(tr.Samples, entity.Sample{ElapsedTime: tm, Position: fit.Model(tm, p)})
	}
	files := trace.Files{Dir: dir, Times: trace.DefaultTimesFile, Positions: trace.DefaultPositionsFile}
	require.NoError(t, files.Write(trace.Encode(tr)))
	return files
}

func TestFitTraceFromFiles(t *testing.T) {
	truth := fit.Params{Offset: 20.2, Amplitude: 9.5, Damping: 0.02, Omega: 4.85, Phase: 0.1}
	files := writeSyntheticTrace(t, t.TempDir(), truth)

	uc := NewFitTraceUseCase(zap.NewNop(), FitTraceConfig{
		Guess:     fit.Params{Offset: 20, Amplitude: 10, Damping: 0.01, Omega: 4.83, Phase: 0},
		PlotFile:  "ajuste.png",
		ChartFile: "ajuste.html",
	})
	report, err := uc.ExecuteFromFiles(context.Background(), files)
	require.NoError(t, err)

	assert.InDelta(t, truth.QualityFactor(), report.QualityFactor, 0.5)
	assert.Len(t, report.Files, 3)
	for _, f := range report.Files {
		assert.FileExists(t, f)
	}

	raw, err := os.ReadFile(filepath.Join(files.Dir, "fator_qualidade.txt"))
	require.NoError(t, err)
	q, err := strconv.ParseFloat(string(raw), 64)
	require.NoError(t, err)
	assert.Equal(t, report.QualityFactor, q)
}

func TestFitTraceTooFewSamples(t *testing.T) {
	uc := NewFitTraceUseCase(zap.NewNop(), FitTraceConfig{})

	_, err := uc.Execute(context.Background(), []float64{0, 0.1}, []float64{1, 2}, t.TempDir())
	assert.ErrorIs(t, err, entity.ErrInsufficientSamples)
}

func TestFitTraceMissingFiles(t *testing.T) {
	uc := NewFitTraceUseCase(zap.NewNop(), FitTraceConfig{})
	files := trace.Files{Dir: t.TempDir(), Times: "tempos.txt", Positions: "espacos.txt"}

	_, err := uc.ExecuteFromFiles(context.Background(), files)
	assert.Error(t, err)
}
