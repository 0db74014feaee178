// Package fit estimates the parameters of a damped oscillation from a trace.
//
// The model is x(t) = Offset + Amplitude * exp(-Damping*t) * cos(Omega*t + Phase).
package fit

import "math"

const numParams = 5

type Params struct {
	Offset    float64
	Amplitude float64
	Damping   float64
	Omega     float64
	Phase     float64
}

// DefaultGuess is a starting point suited to a pendulum with a period near 1.3 s
// filmed at the default calibration.
var DefaultGuess = Params{
	Offset:    20,
	Amplitude: 10,
	Damping:   0.01,
	Omega:     2 * math.Pi / 1.3,
	Phase:     0,
}

func (p Params) slice() []float64 {
	return []float64{p.Offset, p.Amplitude, p.Damping, p.Omega, p.Phase}
}

func paramsFrom(x []float64) Params {
	return Params{Offset: x[0], Amplitude: x[1], Damping: x[2], Omega: x[3], Phase: x[4]}
}

// Model evaluates the damped oscillation at time t.
func Model(t float64, p Params) float64 {
	return p.Offset + p.Amplitude*math.Exp(-p.Damping*t)*math.Cos(p.Omega*t+p.Phase)
}

// jacobianRow writes the partial derivatives of Model with respect to each parameter.
func jacobianRow(dst []float64, t float64, p Params) {
	e := math.Exp(-p.Damping * t)
	c := math.Cos(p.Omega*t + p.Phase)
	s := math.Sin(p.Omega*t + p.Phase)

	dst[0] = 1
	dst[1] = e * c
	dst[2] = -p.Amplitude * t * e * c
	dst[3] = -p.Amplitude * t * e * s
	dst[4] = -p.Amplitude * e * s
}

// NaturalFrequency is the undamped angular frequency w0 = sqrt(w^2 + b^2).
func (p Params) NaturalFrequency() float64 {
	return math.Hypot(p.Omega, p.Damping)
}

// QualityFactor is w0 / (2b).
func (p Params) QualityFactor() float64 {
	return p.NaturalFrequency() / (2 * p.Damping)
}
