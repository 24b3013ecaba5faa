package sim

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/robot"
	"golang.org/x/sync/errgroup"
)

type InitialCondition struct {
	Q []float64
	V []float64
}

// Ensemble runs independent simulators of one robot from several initial
// conditions concurrently. Each run owns its simulator and controller.
type Ensemble struct {
	robot   *robot.Robot
	builder *dynamics.Builder
	initial []InitialCondition
	opts    []Option
}

func NewEnsemble(r *robot.Robot, b *dynamics.Builder, initial []InitialCondition, opts ...Option) *Ensemble {
	return &Ensemble{robot: r, builder: b, initial: initial, opts: opts}
}

// Run returns one result per initial condition, in order. newController is
// called once per run.
func (e *Ensemble) Run(ctx context.Context, newController func(run int) Controller, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.initial))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, ic := range e.initial {
		eg.Go(func() error {
			s, err := New(e.robot, e.builder, ic.Q, ic.V, e.opts...)
			if err != nil {
				return errors.Wrapf(err, "run %d", i)
			}
			res, err := s.Run(ctx, newController(i), cfg)
			if err != nil {
				return errors.Wrapf(err, "run %d", i)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
