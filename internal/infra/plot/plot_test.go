package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DFP1305/pendulo/internal/fit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFitWritesPNG(t *testing.T) {
	var times, positions []float64
	for i := 0; i < 40; i++ {
		tm := float64(i) / 10
		times = append(times, tm)
		positions = append(positions, fit.Model(tm, fit.DefaultGuess))
	}
	path := filepath.Join(t.TempDir(), "ajuste.png")

	require.NoError(t, SaveFit(path, times, positions, fit.DefaultGuess))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestSaveFitRejectsMismatchedSeries(t *testing.T) {
	err := SaveFit(filepath.Join(t.TempDir(), "x.png"), []float64{0, 1}, []float64{1}, fit.DefaultGuess)
	assert.Error(t, err)

	err = SaveFit(filepath.Join(t.TempDir(), "x.png"), nil, nil, fit.DefaultGuess)
	assert.Error(t, err)
}
