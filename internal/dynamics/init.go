package dynamics

import (
	"math/rand/v2"

	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/stat/distuv"
)

// InitOptions controls initial-value generation for the nonlinear solvers.
type InitOptions struct {
	// Sigma is the standard deviation of Gaussian noise added to every
	// variable. Zero gives exact zeros and nominal poses.
	Sigma float64
	Seed  uint64

	// PhaseDuration seeds each phase duration variable.
	PhaseDuration float64
}

type sampler struct {
	dist *distuv.Normal
}

func newSampler(o InitOptions) *sampler {
	if o.Sigma <= 0 {
		return &sampler{}
	}
	return &sampler{dist: &distuv.Normal{Mu: 0, Sigma: o.Sigma, Src: rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15)}}
}

func (s *sampler) scalar() float64 {
	if s.dist == nil {
		return 0
	}
	return s.dist.Rand()
}

func (s *sampler) vector() spatial.Vector6 {
	var v spatial.Vector6
	for i := range v {
		v[i] = s.scalar()
	}
	return v
}

// ZeroValues assigns every variable of step t: nominal link poses, zero
// twists, accelerations, wrenches, angles, velocities and torques, each
// perturbed by the configured noise.
func ZeroValues(r *robot.Robot, t int, o InitOptions) *values.Values {
	return zeroValues(r, t, newSampler(o))
}

func zeroValues(r *robot.Robot, t int, s *sampler) *values.Values {
	v := values.New()
	for _, l := range r.Links() {
		values.Set(v, keys.PoseKey(l.ID, t), l.COM.Retract(s.vector()))
		values.Set(v, keys.TwistKey(l.ID, t), s.vector())
		values.Set(v, keys.TwistAccelKey(l.ID, t), s.vector())
	}
	for _, j := range r.Joints() {
		values.Set(v, keys.WrenchKey(j.Parent, j.ID, t), s.vector())
		values.Set(v, keys.WrenchKey(j.Child, j.ID, t), s.vector())
		values.Set(v, keys.JointAngleKey(j.ID, t), s.scalar())
		values.Set(v, keys.JointVelKey(j.ID, t), s.scalar())
		values.Set(v, keys.JointAccelKey(j.ID, t), s.scalar())
		values.Set(v, keys.TorqueKey(j.ID, t), s.scalar())
	}
	return v
}

// ZeroValuesTrajectory is ZeroValues for steps 0..numSteps plus one
// duration variable per phase.
func ZeroValuesTrajectory(r *robot.Robot, numSteps, numPhases int, o InitOptions) *values.Values {
	s := newSampler(o)
	v := values.New()
	for t := 0; t <= numSteps; t++ {
		// keys of distinct steps never collide
		_ = v.Merge(zeroValues(r, t, s))
	}
	for p := 0; p < numPhases; p++ {
		values.Set(v, keys.PhaseKey(p), o.PhaseDuration+s.scalar())
	}
	return v
}

// InterpolatedValues seeds steps 0..numSteps by moving the named link
// from start to goal, slerping orientation, with every joint at zero and
// the other links placed by forward kinematics.
func InterpolatedValues(r *robot.Robot, link string, start, goal spatial.Pose, numSteps int, o InitOptions) (*values.Values, error) {
	s := newSampler(o)
	zero := make([]float64, r.NumJoints())
	out := values.New()
	for t := 0; t <= numSteps; t++ {
		frac := 0.0
		if numSteps > 0 {
			frac = float64(t) / float64(numSteps)
		}
		pose := spatial.Interpolate(start, goal, frac)
		kin, err := r.ForwardKinematics(zero, zero, &robot.LinkPose{Name: link, Pose: pose})
		if err != nil {
			return nil, err
		}
		step := zeroValues(r, t, s)
		for _, l := range r.Links() {
			values.Set(step, keys.PoseKey(l.ID, t), kin.Poses[l.ID].Retract(s.vector()))
		}
		if err := out.Merge(step); err != nil {
			return nil, err
		}
	}
	return out, nil
}
