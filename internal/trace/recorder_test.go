package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderFinalize(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Record(entity.Sample{ElapsedTime: 0, Position: 3.076923076923077}))
	require.NoError(t, r.Record(entity.Sample{ElapsedTime: 0.1, Position: 2.5}))
	require.NoError(t, r.Record(entity.Sample{ElapsedTime: 0.2, Position: 12}))

	out, err := r.Finalize()
	require.NoError(t, err)

	assert.Equal(t, "0\n0.1\n0.2\n", string(out.Times))
	assert.Equal(t, "3.076923076923077\n2.5\n12\n", string(out.Positions))
}

func TestRecorderFinalizeOnce(t *testing.T) {
	r := NewRecorder()
	_, err := r.Finalize()
	require.NoError(t, err)

	_, err = r.Finalize()
	assert.ErrorIs(t, err, entity.ErrTraceFinalized)
	assert.ErrorIs(t, r.Record(entity.Sample{}), entity.ErrTraceFinalized)
}

func TestEncodeEmptyTrace(t *testing.T) {
	out := Encode(entity.Trace{})
	assert.Empty(t, out.Times)
	assert.Empty(t, out.Positions)
}

func TestEncodeLineCountsMatch(t *testing.T) {
	var tr entity.Trace
	for i := 0; i < 25; i++ {
		tr.Samples = append(tr.Samples, entity.Sample{ElapsedTime: float64(i) / 10, Position: float64(i * i)})
	}
	out := Encode(tr)

	times := strings.Split(strings.TrimSuffix(string(out.Times), "\n"), "\n")
	positions := strings.Split(strings.TrimSuffix(string(out.Positions), "\n"), "\n")
	assert.Len(t, times, 25)
	assert.Len(t, positions, 25)
	assert.Equal(t, "2.4", times[24])
	assert.Equal(t, "576", positions[24])
}

func TestTraceIsACopy(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Record(entity.Sample{ElapsedTime: 0, Position: 1}))

	tr := r.Trace()
	tr.Samples[0].Position = 99

	assert.Equal(t, 1.0, r.Trace().Samples[0].Position)
}

func TestFilesWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	files := Files{Dir: dir, Times: DefaultTimesFile, Positions: DefaultPositionsFile}

	require.NoError(t, files.Write(Output{Times: []byte("0\n"), Positions: []byte("1.5\n")}))

	got, err := os.ReadFile(filepath.Join(dir, "tempos.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "espacos.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1.5\n", string(got))
}

func TestFilesWriteLeavesNoHalfPair(t *testing.T) {
	dir := t.TempDir()
	files := Files{Dir: dir, Times: DefaultTimesFile, Positions: DefaultPositionsFile}

	require.NoError(t, os.WriteFile(files.TimesPath(), []byte("9\n9\n9\n"), 0644))
	// A directory in place of the positions file makes the second write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(files.PositionsPath(), "blocker"), 0755))

	err := files.Write(Output{Times: []byte("0\n0.1\n"), Positions: []byte("1\n2\n")})
	require.Error(t, err)

	_, statErr := os.Stat(files.TimesPath())
	assert.True(t, os.IsNotExist(statErr), "times must not outlive a failed positions write")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must be cleaned up")
	assert.Equal(t, DefaultPositionsFile, entries[0].Name())
}

func TestFilesWriteReplacesPreviousRun(t *testing.T) {
	files := Files{Dir: t.TempDir(), Times: DefaultTimesFile, Positions: DefaultPositionsFile}

	require.NoError(t, files.Write(Output{Times: []byte("0\n0.1\n"), Positions: []byte("1\n2\n")}))
	require.NoError(t, files.Write(Output{Times: []byte("0\n"), Positions: []byte("3\n")}))

	got, err := os.ReadFile(files.TimesPath())
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(got))
	got, err = os.ReadFile(files.PositionsPath())
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(got))
}
