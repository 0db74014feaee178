package fit

import (
	"fmt"
	"math"

	"github.com/DFP1305/pendulo/internal/domain/entity"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

type Result struct {
	Params Params
	// Covariance is nil when it cannot be estimated (as many samples as
	// parameters, or a singular Jacobian).
	Covariance *mat.SymDense
	StdErr     Params
	// SSR is the sum of squared residuals at the optimum.
	SSR        float64
	Iterations int
}

// Fit runs a least-squares fit of Model to the samples starting from guess.
func Fit(times, positions []float64, guess Params) (*Result, error) {
	if len(times) != len(positions) {
		return nil, fmt.Errorf("%w: %d times, %d positions", entity.ErrLengthMismatch, len(times), len(positions))
	}
	if len(times) < numParams {
		return nil, fmt.Errorf("%w: have %d, need %d", entity.ErrInsufficientSamples, len(times), numParams)
	}

	obj := objective{t: times, y: positions, row: make([]float64, numParams)}
	problem := optimize.Problem{
		Func: obj.ssr,
		Grad: obj.grad,
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		MajorIterations:   10000,
	}

	// A stalled line search still leaves the best location found; only a
	// non-finite optimum is treated as a failure.
	res, err := optimize.Minimize(problem, guess.slice(), settings, &optimize.BFGS{})
	if res == nil || !finite(res.X) || math.IsNaN(res.F) {
		if err == nil {
			err = fmt.Errorf("non-finite optimum")
		}
		return nil, fmt.Errorf("minimize: %w", err)
	}

	best := paramsFrom(res.X)
	out := &Result{
		Params:     best,
		SSR:        obj.ssr(res.X),
		Iterations: res.Stats.MajorIterations,
	}
	out.Covariance = covariance(times, best, out.SSR)
	if out.Covariance != nil {
		se := make([]float64, numParams)
		for i := range se {
			se[i] = math.Sqrt(out.Covariance.At(i, i))
		}
		out.StdErr = paramsFrom(se)
	}
	return out, nil
}

type objective struct {
	t, y []float64
	row  []float64
}

func (o objective) ssr(x []float64) float64 {
	p := paramsFrom(x)
	var sum float64
	for i, t := range o.t {
		r := Model(t, p) - o.y[i]
		sum += r * r
	}
	return sum
}

func (o objective) grad(g, x []float64) {
	p := paramsFrom(x)
	for j := range g {
		g[j] = 0
	}
	for i, t := range o.t {
		r := Model(t, p) - o.y[i]
		jacobianRow(o.row, t, p)
		for j, d := range o.row {
			g[j] += 2 * r * d
		}
	}
}

// covariance estimates inv(J^T J) scaled by the residual variance.
func covariance(times []float64, p Params, ssr float64) *mat.SymDense {
	dof := len(times) - numParams
	if dof <= 0 {
		return nil
	}

	jac := mat.NewDense(len(times), numParams, nil)
	for i, t := range times {
		jacobianRow(jac.RawRowView(i), t, p)
	}

	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok {
		return nil
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil
	}
	cov.ScaleSym(ssr/float64(dof), &cov)
	return &cov
}

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
