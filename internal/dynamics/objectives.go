package dynamics

import (
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/spatial"
)

// LinkObjectives appends priors on one link at one step to a graph.
//
//	dynamics.NewLinkObjectives(g, link, t).Pose(goal, nil).Twist(spatial.Vector6{}, nil)
//
// A nil model makes the prior a hard constraint.
type LinkObjectives struct {
	g    *factor.Graph
	link int
	t    int
}

func NewLinkObjectives(g *factor.Graph, link, t int) *LinkObjectives {
	return &LinkObjectives{g: g, link: link, t: t}
}

func orConstrained(m *noise.Model) *noise.Model {
	if m == nil {
		return noise.Constrained()
	}
	return m
}

func (o *LinkObjectives) Pose(p spatial.Pose, m *noise.Model) *LinkObjectives {
	o.g.Add(factor.NewPrior(keys.PoseKey(o.link, o.t), p, orConstrained(m)))
	return o
}

func (o *LinkObjectives) Twist(v spatial.Vector6, m *noise.Model) *LinkObjectives {
	o.g.Add(factor.NewPrior(keys.TwistKey(o.link, o.t), v, orConstrained(m)))
	return o
}

func (o *LinkObjectives) TwistAccel(a spatial.Vector6, m *noise.Model) *LinkObjectives {
	o.g.Add(factor.NewPrior(keys.TwistAccelKey(o.link, o.t), a, orConstrained(m)))
	return o
}

// JointObjectives appends priors on one joint at one step to a graph.
type JointObjectives struct {
	g     *factor.Graph
	joint int
	t     int
}

func NewJointObjectives(g *factor.Graph, joint, t int) *JointObjectives {
	return &JointObjectives{g: g, joint: joint, t: t}
}

func (o *JointObjectives) Angle(q float64, m *noise.Model) *JointObjectives {
	o.g.Add(factor.NewPrior(keys.JointAngleKey(o.joint, o.t), q, orConstrained(m)))
	return o
}

func (o *JointObjectives) Velocity(v float64, m *noise.Model) *JointObjectives {
	o.g.Add(factor.NewPrior(keys.JointVelKey(o.joint, o.t), v, orConstrained(m)))
	return o
}

func (o *JointObjectives) Acceleration(a float64, m *noise.Model) *JointObjectives {
	o.g.Add(factor.NewPrior(keys.JointAccelKey(o.joint, o.t), a, orConstrained(m)))
	return o
}

func (o *JointObjectives) Torque(tau float64, m *noise.Model) *JointObjectives {
	o.g.Add(factor.NewPrior(keys.TorqueKey(o.joint, o.t), tau, orConstrained(m)))
	return o
}

// MinTorqueObjectives penalizes every joint torque over steps 0..numSteps
// toward zero.
func MinTorqueObjectives(g *factor.Graph, numJoints, numSteps int, m *noise.Model) {
	for t := 0; t <= numSteps; t++ {
		for j := 0; j < numJoints; j++ {
			NewJointObjectives(g, j, t).Torque(0, m)
		}
	}
}
