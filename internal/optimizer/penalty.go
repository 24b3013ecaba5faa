package optimizer

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/values"
	"go.uber.org/zap"
)

// PenaltyParams controls the outer loop of PenaltyMethod. Inner configures
// each unconstrained solve.
type PenaltyParams struct {
	Inner      Params
	InitialMu  float64
	MuIncrease float64
	Iterations int
}

func DefaultPenaltyParams() PenaltyParams {
	return PenaltyParams{
		Inner:      DefaultParams(),
		InitialMu:  1,
		MuIncrease: 10,
		Iterations: 5,
	}
}

// penalized reweights a hard constraint as a soft cost of weight mu.
type penalized struct {
	factor.Factor
	model *noise.Model
}

func (p *penalized) Model() *noise.Model { return p.model }
func (p *penalized) Name() string        { return factor.NameOf(p.Factor) }

func penalize(g *factor.Graph, mu float64) *factor.Graph {
	out := factor.NewGraph()
	model := noise.Isotropic(1 / math.Sqrt(mu))
	for _, f := range g.Factors() {
		if m := f.Model(); m != nil && m.IsConstrained() {
			out.Add(&penalized{Factor: f, model: model})
			continue
		}
		out.Add(f)
	}
	return out
}

// PenaltyMethod solves g by replacing its hard constraints with costs of
// weight mu and re-solving, warm started, while mu grows. The reported
// errors are those of g itself.
func PenaltyMethod(ctx context.Context, g *factor.Graph, init *values.Values, pp PenaltyParams, opts ...Option) (*Result, error) {
	if pp.InitialMu <= 0 || pp.MuIncrease <= 1 || pp.Iterations <= 0 {
		return nil, errors.Errorf("optimizer: invalid penalty schedule mu=%g increase=%g iterations=%d",
			pp.InitialMu, pp.MuIncrease, pp.Iterations)
	}
	o, err := New(pp.Inner, opts...)
	if err != nil {
		return nil, err
	}
	initErr, err := g.Error(init)
	if err != nil {
		return nil, errors.Wrap(err, "initial error")
	}

	res := &Result{Values: init, InitialError: initErr}
	mu := pp.InitialMu
	for i := 0; i < pp.Iterations; i++ {
		inner, err := o.Optimize(ctx, penalize(g, mu), res.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "penalty iteration %d (mu=%g)", i, mu)
		}
		res.Values = inner.Values
		res.Iterations += inner.Iterations
		res.Converged = inner.Converged
		o.logger.Debug("penalty iteration", zap.Int("iter", i), zap.Float64("mu", mu), zap.Float64("error", inner.FinalError))
		mu *= pp.MuIncrease
	}
	if res.FinalError, err = g.Error(res.Values); err != nil {
		return nil, err
	}
	return res, nil
}
