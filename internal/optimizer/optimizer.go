// Package optimizer minimizes the whitened squared error of a factor graph
// by repeated linearization, with Gauss-Newton, Levenberg-Marquardt or
// Powell's dogleg steps.
package optimizer

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/linear"
	"github.com/san-kum/dyngraph/internal/values"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Result struct {
	Values       *values.Values
	Iterations   int
	InitialError float64
	FinalError   float64
	Converged    bool
}

type Optimizer struct {
	params Params
	logger *zap.Logger
}

type Option func(*Optimizer)

func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// New checks p and fails fast on an unsupported optimizer type.
func New(p Params, opts ...Option) (*Optimizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{params: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Optimizer) Params() Params { return o.params }

// Optimize is a one-shot New followed by Optimize.
func Optimize(ctx context.Context, g *factor.Graph, init *values.Values, p Params) (*Result, error) {
	o, err := New(p)
	if err != nil {
		return nil, err
	}
	return o.Optimize(ctx, g, init)
}

// Optimize iterates from init until the error decrease drops below the
// tolerances or MaxIterations is reached. init is not modified.
func (o *Optimizer) Optimize(ctx context.Context, g *factor.Graph, init *values.Values) (*Result, error) {
	if comps := g.Components(); len(comps) > 1 {
		o.logger.Warn("factor graph is disconnected", zap.Int("components", len(comps)))
	}
	v := init.Clone()
	e, err := g.Error(v)
	if err != nil {
		return nil, errors.Wrap(err, "initial error")
	}
	res := &Result{Values: v, InitialError: e, FinalError: e}
	o.logger.Debug("optimizing",
		zap.Stringer("type", o.params.Type), zap.Int("factors", g.Len()), zap.Float64("error", e))

	st := &state{lambda: o.params.LambdaInitial, delta: o.params.DeltaInitial}
	for res.Iterations < o.params.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, nextErr, err := o.iterate(g, res.Values, res.FinalError, st)
		if err != nil {
			if errors.Is(err, ErrDiverged) {
				res.Converged = res.FinalError <= o.params.AbsoluteErrorTol
				break
			}
			return nil, errors.Wrapf(err, "iteration %d", res.Iterations)
		}
		res.Iterations++
		o.logger.Debug("iteration",
			zap.Int("iter", res.Iterations), zap.Float64("error", nextErr),
			zap.Float64("lambda", st.lambda), zap.Float64("delta", st.delta))

		if nextErr > res.FinalError {
			// Gauss-Newton overshot; keep the previous estimate
			res.Converged = nextErr-res.FinalError < o.params.AbsoluteErrorTol
			break
		}
		prev := res.FinalError
		res.Values, res.FinalError = next, nextErr
		if o.converged(prev, nextErr) {
			res.Converged = true
			break
		}
	}
	o.logger.Info("optimization finished",
		zap.Int("iterations", res.Iterations), zap.Bool("converged", res.Converged),
		zap.Float64("initial_error", res.InitialError), zap.Float64("final_error", res.FinalError))
	return res, nil
}

func (o *Optimizer) converged(prev, curr float64) bool {
	if curr <= o.params.AbsoluteErrorTol {
		return true
	}
	decrease := prev - curr
	return decrease < o.params.AbsoluteErrorTol || decrease/prev < o.params.RelativeErrorTol
}

// state carries damping and trust region across iterations.
type state struct {
	lambda float64
	delta  float64
}

func (o *Optimizer) iterate(g *factor.Graph, v *values.Values, e float64, st *state) (*values.Values, float64, error) {
	lg, err := g.Linearize(v)
	if err != nil {
		return nil, 0, err
	}
	switch o.params.Type {
	case GaussNewton:
		sol, _, err := lg.Solve()
		if err != nil {
			return nil, 0, err
		}
		return apply(g, v, sol)
	case LevenbergMarquardt:
		return o.levenbergMarquardt(g, lg, v, e, st)
	case Dogleg:
		return o.dogleg(g, lg, v, e, st)
	default:
		return nil, 0, errors.Wrapf(ErrUnsupportedOptimizer, "%s", o.params.Type)
	}
}

func apply(g *factor.Graph, v *values.Values, sol linear.Solution) (*values.Values, float64, error) {
	next, err := v.Retract(sol)
	if err != nil {
		return nil, 0, err
	}
	e, err := g.Error(next)
	if err != nil {
		return nil, 0, err
	}
	return next, e, nil
}

// levenbergMarquardt raises lambda until a damped step lowers the error,
// then relaxes it for the next iteration.
func (o *Optimizer) levenbergMarquardt(g *factor.Graph, lg *linear.Graph, v *values.Values, e float64, st *state) (*values.Values, float64, error) {
	p := o.params
	for st.lambda <= p.LambdaUpperBound {
		sol, _, err := lg.SolveDamped(st.lambda)
		if err != nil && !errors.Is(err, linear.ErrSingularSystem) {
			return nil, 0, err
		}
		if err == nil {
			next, nextErr, err := apply(g, v, sol)
			if err != nil {
				return nil, 0, err
			}
			if nextErr <= e {
				st.lambda = math.Max(st.lambda/p.LambdaFactor, 1e-12)
				return next, nextErr, nil
			}
		}
		st.lambda *= p.LambdaFactor
	}
	return nil, 0, errors.Wrapf(ErrDiverged, "lambda exceeded %g", p.LambdaUpperBound)
}

// dogleg blends the steepest-descent and Gauss-Newton steps inside a
// trust region of radius delta.
func (o *Optimizer) dogleg(g *factor.Graph, lg *linear.Graph, v *values.Values, e float64, st *state) (*values.Values, float64, error) {
	ord, err := lg.NewOrdering()
	if err != nil {
		return nil, 0, err
	}
	J, b := lg.System(ord)
	gnSol, _, err := lg.Solve()
	if err != nil {
		return nil, 0, err
	}
	hGN := stack(ord, gnSol)

	var grad mat.VecDense
	grad.MulVec(J.T(), b)
	var Jg mat.VecDense
	Jg.MulVec(J, &grad)
	hSD := make([]float64, ord.Cols())
	if denom := mat.Dot(&Jg, &Jg); denom > 0 {
		floats.ScaleTo(hSD, mat.Dot(&grad, &grad)/denom, grad.RawVector().Data[:ord.Cols()])
	}

	for st.delta > 1e-10 {
		h := doglegStep(hGN, hSD, st.delta)

		// predicted decrease of ½‖J·h − b‖² from h = 0
		var Jh mat.VecDense
		Jh.MulVec(J, mat.NewVecDense(len(h), h))
		Jh.SubVec(&Jh, b)
		predicted := 0.5*mat.Dot(b, b) - 0.5*mat.Dot(&Jh, &Jh)

		next, nextErr, err := apply(g, v, ord.Split(mat.NewVecDense(len(h), h)))
		if err != nil {
			return nil, 0, err
		}
		rho := 0.0
		if predicted > 0 {
			rho = (e - nextErr) / predicted
		}
		switch {
		case rho > 0.75:
			st.delta = math.Max(st.delta, 3*floats.Norm(h, 2))
		case rho < 0.25:
			st.delta /= 2
		}
		if rho > 0 && nextErr <= e {
			return next, nextErr, nil
		}
		if predicted <= 0 {
			break
		}
	}
	return nil, 0, errors.Wrap(ErrDiverged, "trust region collapsed")
}

func doglegStep(hGN, hSD []float64, delta float64) []float64 {
	nGN, nSD := floats.Norm(hGN, 2), floats.Norm(hSD, 2)
	switch {
	case nGN <= delta:
		return append([]float64(nil), hGN...)
	case nSD >= delta:
		h := make([]float64, len(hSD))
		floats.ScaleTo(h, delta/nSD, hSD)
		return h
	}
	// walk from hSD toward hGN until the boundary: ‖hSD + β·d‖ = delta
	d := make([]float64, len(hGN))
	floats.SubTo(d, hGN, hSD)
	a := floats.Dot(d, d)
	bq := 2 * floats.Dot(hSD, d)
	c := nSD*nSD - delta*delta
	beta := (-bq + math.Sqrt(bq*bq-4*a*c)) / (2 * a)
	h := make([]float64, len(hSD))
	floats.AddScaledTo(h, hSD, beta, d)
	return h
}

func stack(ord *linear.Ordering, sol linear.Solution) []float64 {
	out := make([]float64, ord.Cols())
	for _, k := range ord.Keys() {
		copy(out[ord.Offset(k):], sol[k])
	}
	return out
}
