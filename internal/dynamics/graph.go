package dynamics

import (
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
)

// QFactors relates link poses through joint angles at step t and pins
// fixed links to their poses.
func (b *Builder) QFactors(r *robot.Robot, t int) *factor.Graph {
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, l := range r.Links() {
		if l.Fixed {
			g.Add(factor.NewPrior(keys.PoseKey(l.ID, t), l.FixedPose, c.FixedPose))
		}
	}
	for _, j := range r.Joints() {
		g.Add(factor.NewPoseFactor(
			keys.PoseKey(j.Parent, t), keys.PoseKey(j.Child, t), keys.JointAngleKey(j.ID, t), j, c.Pose))
	}
	return g
}

// VFactors propagates twists across joints at step t. Fixed links have
// zero twist.
func (b *Builder) VFactors(r *robot.Robot, t int) *factor.Graph {
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, l := range r.Links() {
		if l.Fixed {
			g.Add(factor.NewPrior(keys.TwistKey(l.ID, t), spatial.Vector6{}, c.FixedTwist))
		}
	}
	for _, j := range r.Joints() {
		g.Add(factor.NewTwistFactor(
			keys.TwistKey(j.Parent, t), keys.TwistKey(j.Child, t),
			keys.JointAngleKey(j.ID, t), keys.JointVelKey(j.ID, t), j, c.Twist))
	}
	return g
}

// AFactors propagates twist accelerations across joints at step t. Fixed
// links have zero acceleration.
func (b *Builder) AFactors(r *robot.Robot, t int) *factor.Graph {
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, l := range r.Links() {
		if l.Fixed {
			g.Add(factor.NewPrior(keys.TwistAccelKey(l.ID, t), spatial.Vector6{}, c.FixedAccel))
		}
	}
	for _, j := range r.Joints() {
		g.Add(factor.NewTwistAccelFactor(
			keys.TwistKey(j.Child, t), keys.TwistAccelKey(j.Parent, t), keys.TwistAccelKey(j.Child, t),
			keys.JointAngleKey(j.ID, t), keys.JointVelKey(j.ID, t), keys.JointAccelKey(j.ID, t), j, c.Accel))
	}
	return g
}

// DynamicsFactors emits one Newton-Euler balance per moving link and the
// wrench equivalence, torque and optional planar constraints per joint.
func (b *Builder) DynamicsFactors(r *robot.Robot, t int) (*factor.Graph, error) {
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, l := range r.Links() {
		if l.Fixed {
			continue
		}
		wrenches := make([]keys.Key, 0, len(l.Joints()))
		for _, jid := range l.Joints() {
			wrenches = append(wrenches, keys.WrenchKey(l.ID, jid, t))
		}
		g.Add(factor.NewWrenchFactor(
			keys.TwistKey(l.ID, t), keys.TwistAccelKey(l.ID, t), wrenches,
			keys.PoseKey(l.ID, t), l, b.opts.Gravity, c.Dynamics))
	}
	for _, j := range r.Joints() {
		parentWrench := keys.WrenchKey(j.Parent, j.ID, t)
		childWrench := keys.WrenchKey(j.Child, j.ID, t)
		g.Add(
			factor.NewWrenchEquivalenceFactor(parentWrench, childWrench, keys.JointAngleKey(j.ID, t), j, c.WrenchEquivalence),
			factor.NewTorqueFactor(childWrench, keys.TorqueKey(j.ID, t), j, c.Torque),
		)
		if b.opts.PlanarAxis != nil && c.Planar != nil {
			pf, err := factor.NewPlanarFactor(childWrench, *b.opts.PlanarAxis, c.Planar)
			if err != nil {
				return nil, &BuildError{Entity: "joint", Name: j.Name, Time: t, Wrapped: err}
			}
			g.Add(pf)
		}
	}
	return g, nil
}

// DynamicsGraph is the union of the q, v, a and dynamics factors at step t.
func (b *Builder) DynamicsGraph(r *robot.Robot, t int) (*factor.Graph, error) {
	dyn, err := b.DynamicsFactors(r, t)
	if err != nil {
		return nil, err
	}
	g := b.QFactors(r, t)
	g.Merge(b.VFactors(r, t))
	g.Merge(b.AFactors(r, t))
	g.Merge(dyn)
	return g, nil
}
