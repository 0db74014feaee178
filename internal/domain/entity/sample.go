package entity

// Sample is one measurement taken from a selected frame.
type Sample struct {
	ElapsedTime float64 // seconds since the first sample
	Position    float64 // calibrated length units
}

// Trace is the ordered sequence of samples collected during one run.
type Trace struct {
	Samples []Sample
}

func (t Trace) Len() int {
	return len(t.Samples)
}

func (t Trace) Times() []float64 {
	out := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.ElapsedTime
	}
	return out
}

func (t Trace) Positions() []float64 {
	out := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.Position
	}
	return out
}

// RunStats summarizes what the sampling loop saw while producing a trace.
type RunStats struct {
	FrameRate      float64
	Interval       int
	FramesDecoded  int
	FramesSelected int
	FramesSkipped  int
	Samples        int
}
