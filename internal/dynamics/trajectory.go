package dynamics

import (
	"context"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/robot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// stepGraphs builds the dynamics graph of every (robot, t) pair
// concurrently and returns them in input order.
func (b *Builder) stepGraphs(ctx context.Context, robots []*robot.Robot, times []int) ([]*factor.Graph, error) {
	out := make([]*factor.Graph, len(times))
	eg, ctx := errgroup.WithContext(ctx)
	for i := range times {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := b.DynamicsGraph(robots[i], times[i])
			if err != nil {
				return err
			}
			out[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TrajectoryGraph unions the dynamics graphs of steps 0..numSteps with
// fixed-step collocation between every consecutive pair.
func (b *Builder) TrajectoryGraph(ctx context.Context, r *robot.Robot, numSteps int, dt float64, scheme Scheme) (*factor.Graph, error) {
	if numSteps < 0 {
		return nil, errors.Errorf("dynamics: negative step count %d", numSteps)
	}
	robots := make([]*robot.Robot, numSteps+1)
	times := make([]int, numSteps+1)
	for t := range times {
		robots[t], times[t] = r, t
	}
	steps, err := b.stepGraphs(ctx, robots, times)
	if err != nil {
		return nil, err
	}

	g := factor.NewGraph()
	for _, sg := range steps {
		g.Merge(sg)
	}
	for t := 0; t < numSteps; t++ {
		cg, err := b.Collocation(r, t, dt, scheme)
		if err != nil {
			return nil, err
		}
		g.Merge(cg)
	}
	b.opts.Logger.Info("built trajectory graph",
		zap.String("robot", r.Name), zap.Int("steps", numSteps), zap.Int("factors", g.Len()))
	return g, nil
}

// MultiPhaseTrajectoryGraph assembles phases of phaseSteps[p] steps each.
// Phase p uses robots[p] for its in-phase steps; its last step is
// transitions[p] unless p is the final phase. Collocation in phase p uses
// the duration variable of p.
func (b *Builder) MultiPhaseTrajectoryGraph(ctx context.Context, robots []*robot.Robot, phaseSteps []int, transitions []*factor.Graph, scheme Scheme) (*factor.Graph, error) {
	phases := len(phaseSteps)
	if phases == 0 || len(robots) != phases {
		return nil, errors.Wrapf(ErrPhaseMismatch, "%d robots for %d phases", len(robots), phases)
	}
	if len(transitions) != phases-1 {
		return nil, errors.Wrapf(ErrPhaseMismatch, "%d transition graphs for %d phases", len(transitions), phases)
	}
	total := 0
	for p, n := range phaseSteps {
		if n < 1 {
			return nil, errors.Wrapf(ErrPhaseMismatch, "phase %d has %d steps", p, n)
		}
		total += n
	}

	// slots hold the per-step graph; nil slots take the caller's transition
	var stepRobots []*robot.Robot
	var stepTimes []int
	slots := make([]*factor.Graph, 0, total+1)
	plain := func(r *robot.Robot, t int) {
		stepRobots = append(stepRobots, r)
		stepTimes = append(stepTimes, t)
		slots = append(slots, nil)
	}

	t := 0
	plain(robots[0], t)
	for p := 0; p < phases; p++ {
		for k := 0; k < phaseSteps[p]-1; k++ {
			t++
			plain(robots[p], t)
		}
		t++
		if p == phases-1 {
			plain(robots[p], t)
		} else {
			slots = append(slots, transitions[p])
		}
	}
	if t != total {
		return nil, errors.Wrapf(ErrStepCountMismatch, "assembled %d steps, phases sum to %d", t, total)
	}

	built, err := b.stepGraphs(ctx, stepRobots, stepTimes)
	if err != nil {
		return nil, err
	}
	g := factor.NewGraph()
	next := 0
	for _, s := range slots {
		if s == nil {
			s = built[next]
			next++
		}
		g.Merge(s)
	}

	t = 0
	for p := 0; p < phases; p++ {
		for k := 0; k < phaseSteps[p]; k++ {
			cg, err := b.MultiPhaseCollocation(robots[p], t, p, scheme)
			if err != nil {
				return nil, err
			}
			g.Merge(cg)
			t++
		}
	}
	if t != total {
		return nil, errors.Wrapf(ErrStepCountMismatch, "collocated %d steps, phases sum to %d", t, total)
	}

	b.opts.Logger.Info("built multi-phase trajectory graph",
		zap.Int("phases", phases), zap.Int("steps", total), zap.Int("factors", g.Len()))
	return g, nil
}

// TransitionGraph is the dynamics graph at step t of a robot whose fixed
// links are those of both prev and next, as at the instant a contact
// changes.
func (b *Builder) TransitionGraph(prev, next *robot.Robot, t int) (*factor.Graph, error) {
	merged := next
	for _, id := range prev.FixedLinks() {
		l := prev.Link(id)
		if merged.Link(id).Fixed {
			continue
		}
		var err error
		if merged, err = merged.Fix(l.Name, l.FixedPose); err != nil {
			return nil, &BuildError{Entity: "link", Name: l.Name, Time: t, Wrapped: err}
		}
	}
	return b.DynamicsGraph(merged, t)
}
