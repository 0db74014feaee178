// Package trace accumulates samples and serializes them into the two
// parallel text series consumed by the curve fitter.
package trace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/DFP1305/pendulo/internal/domain/entity"
)

const (
	DefaultTimesFile     = "tempos.txt"
	DefaultPositionsFile = "espacos.txt"
)

// Output holds the serialized time and position series, one decimal per line.
type Output struct {
	Times     []byte
	Positions []byte
}

// Recorder owns the trace of a single run. It has one writer and no readers
// until Finalize.
type Recorder struct {
	samples   []entity.Sample
	finalized bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Record(s entity.Sample) error {
	if r.finalized {
		return entity.ErrTraceFinalized
	}
	r.samples = append(r.samples, s)
	return nil
}

func (r *Recorder) Len() int {
	return len(r.samples)
}

// Trace returns a copy of the samples recorded so far.
func (r *Recorder) Trace() entity.Trace {
	out := make([]entity.Sample, len(r.samples))
	copy(out, r.samples)
	return entity.Trace{Samples: out}
}

// Finalize serializes the trace. It succeeds exactly once.
func (r *Recorder) Finalize() (Output, error) {
	if r.finalized {
		return Output{}, entity.ErrTraceFinalized
	}
	r.finalized = true
	return Encode(entity.Trace{Samples: r.samples}), nil
}

// Encode renders both series in sample order.
func Encode(t entity.Trace) Output {
	var times, positions bytes.Buffer
	for _, s := range t.Samples {
		times.WriteString(FormatValue(s.ElapsedTime))
		times.WriteByte('\n')
		positions.WriteString(FormatValue(s.Position))
		positions.WriteByte('\n')
	}
	return Output{Times: times.Bytes(), Positions: positions.Bytes()}
}

// FormatValue prints the shortest decimal that round-trips to v.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Files names the two output files inside a directory.
type Files struct {
	Dir       string
	Times     string
	Positions string
}

func (f Files) TimesPath() string {
	return filepath.Join(f.Dir, f.Times)
}

func (f Files) PositionsPath() string {
	return filepath.Join(f.Dir, f.Positions)
}

// Write creates the output directory if needed and writes both series. Either
// both files are replaced or, on error, neither is left behind.
func (f Files) Write(out Output) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	timesTmp, err := writeTemp(f.Dir, f.Times, out.Times)
	if err != nil {
		return fmt.Errorf("write times: %w", err)
	}
	defer os.Remove(timesTmp)

	positionsTmp, err := writeTemp(f.Dir, f.Positions, out.Positions)
	if err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	defer os.Remove(positionsTmp)

	if err := os.Rename(timesTmp, f.TimesPath()); err != nil {
		return fmt.Errorf("write times: %w", err)
	}
	if err := os.Rename(positionsTmp, f.PositionsPath()); err != nil {
		os.Remove(f.TimesPath())
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
