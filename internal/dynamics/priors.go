package dynamics

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
)

// ForwardDynamicsPriors pins angles, velocities and torques at step t, the
// known inputs of a forward-dynamics problem.
func (b *Builder) ForwardDynamicsPriors(r *robot.Robot, t int, q, v, torques []float64) (*factor.Graph, error) {
	for name, x := range map[string][]float64{"angles": q, "velocities": v, "torques": torques} {
		if err := r.CheckJointVector(name, x); err != nil {
			return nil, err
		}
	}
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, j := range r.Joints() {
		if c.PriorQ != nil {
			g.Add(factor.NewPrior(keys.JointAngleKey(j.ID, t), q[j.ID], c.PriorQ))
		}
		if c.PriorV != nil {
			g.Add(factor.NewPrior(keys.JointVelKey(j.ID, t), v[j.ID], c.PriorV))
		}
		if c.PriorTorque != nil {
			g.Add(factor.NewPrior(keys.TorqueKey(j.ID, t), torques[j.ID], c.PriorTorque))
		}
	}
	return g, nil
}

// TrajectoryFDPriors pins the initial state at step 0 and the torque at
// every step 0..numSteps; torques must hold numSteps+1 entries.
func (b *Builder) TrajectoryFDPriors(r *robot.Robot, numSteps int, q0, v0 []float64, torques [][]float64) (*factor.Graph, error) {
	if len(torques) != numSteps+1 {
		return nil, errors.Wrapf(ErrStepCountMismatch, "%d torque vectors for %d steps", len(torques), numSteps+1)
	}
	if err := r.CheckJointVector("angles", q0); err != nil {
		return nil, err
	}
	if err := r.CheckJointVector("velocities", v0); err != nil {
		return nil, err
	}
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, j := range r.Joints() {
		if c.PriorQ != nil {
			g.Add(factor.NewPrior(keys.JointAngleKey(j.ID, 0), q0[j.ID], c.PriorQ))
		}
		if c.PriorV != nil {
			g.Add(factor.NewPrior(keys.JointVelKey(j.ID, 0), v0[j.ID], c.PriorV))
		}
	}
	if c.PriorTorque == nil {
		return g, nil
	}
	for t, tau := range torques {
		if err := r.CheckJointVector("torques", tau); err != nil {
			return nil, errors.Wrapf(err, "t=%d", t)
		}
		for _, j := range r.Joints() {
			g.Add(factor.NewPrior(keys.TorqueKey(j.ID, t), tau[j.ID], c.PriorTorque))
		}
	}
	return g, nil
}

// PhaseDurationPriors pins each phase duration variable to durations[p].
func (b *Builder) PhaseDurationPriors(durations []float64) *factor.Graph {
	g := factor.NewGraph()
	if b.opts.Costs.Time == nil {
		return g
	}
	for p, dt := range durations {
		g.Add(factor.NewPrior(keys.PhaseKey(p), dt, b.opts.Costs.Time))
	}
	return g
}
