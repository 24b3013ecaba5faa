package factor

import (
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/mat"
)

// PoseFactor ties the child link pose to the parent pose through the
// joint transform.
type PoseFactor struct {
	base
	joint *robot.Joint
}

func NewPoseFactor(parentPose, childPose, angle keys.Key, joint *robot.Joint, model *noise.Model) *PoseFactor {
	return &PoseFactor{
		base:  base{name: "pose", keys: []keys.Key{parentPose, childPose, angle}, dim: 6, model: model},
		joint: joint,
	}
}

func (f *PoseFactor) residual(tp, tc spatial.Pose, q float64) []float64 {
	predicted := tp.Compose(f.joint.TransformParentChild(q))
	r := predicted.LocalCoordinates(tc)
	return r[:]
}

func (f *PoseFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	tp, err := v.Pose(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	tc, err := v.Pose(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	q, err := v.Double(f.keys[2])
	if err != nil {
		return nil, nil, err
	}
	H := []*mat.Dense{
		numericalPose(func(x spatial.Pose) []float64 { return f.residual(x, tc, q) }, tp),
		numericalPose(func(x spatial.Pose) []float64 { return f.residual(tp, x, q) }, tc),
		numericalScalar(func(x float64) []float64 { return f.residual(tp, tc, x) }, q),
	}
	return f.residual(tp, tc, q), H, nil
}

// TwistFactor propagates the parent twist across the joint.
type TwistFactor struct {
	base
	joint *robot.Joint
}

func NewTwistFactor(parentTwist, childTwist, angle, vel keys.Key, joint *robot.Joint, model *noise.Model) *TwistFactor {
	return &TwistFactor{
		base:  base{name: "twist", keys: []keys.Key{parentTwist, childTwist, angle, vel}, dim: 6, model: model},
		joint: joint,
	}
}

func (f *TwistFactor) residual(vp, vc spatial.Vector6, q, qd float64) []float64 {
	r := vc.Sub(f.joint.TransformChildParent(q).Adjoint(vp)).Sub(f.joint.Screw.Scale(qd))
	return r[:]
}

func (f *TwistFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	vp, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	vc, err := v.Vector(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	q, err := v.Double(f.keys[2])
	if err != nil {
		return nil, nil, err
	}
	qd, err := v.Double(f.keys[3])
	if err != nil {
		return nil, nil, err
	}
	S := f.joint.Screw.Scale(-1)
	H := []*mat.Dense{
		f.joint.TransformChildParent(q).AdjointMap().Scale(-1).Dense(),
		identity(6),
		numericalScalar(func(x float64) []float64 { return f.residual(vp, vc, x, qd) }, q),
		scalarBlock(6, S[:]),
	}
	return f.residual(vp, vc, q, qd), H, nil
}

// TwistAccelFactor propagates the parent twist acceleration across the
// joint, including the velocity product term ad(Vc)·S·v.
type TwistAccelFactor struct {
	base
	joint *robot.Joint
}

func NewTwistAccelFactor(childTwist, parentAccel, childAccel, angle, vel, accel keys.Key, joint *robot.Joint, model *noise.Model) *TwistAccelFactor {
	return &TwistAccelFactor{
		base: base{
			name:  "twist_accel",
			keys:  []keys.Key{childTwist, parentAccel, childAccel, angle, vel, accel},
			dim:   6,
			model: model,
		},
		joint: joint,
	}
}

func (f *TwistAccelFactor) residual(vc, ap, ac spatial.Vector6, q, qd, qdd float64) []float64 {
	S := f.joint.Screw
	r := ac.
		Sub(f.joint.TransformChildParent(q).Adjoint(ap)).
		Sub(S.Scale(qdd)).
		Sub(spatial.Ad(vc).MulVec(S.Scale(qd)))
	return r[:]
}

func (f *TwistAccelFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	vc, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	ap, err := v.Vector(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	ac, err := v.Vector(f.keys[2])
	if err != nil {
		return nil, nil, err
	}
	q, err := v.Double(f.keys[3])
	if err != nil {
		return nil, nil, err
	}
	qd, err := v.Double(f.keys[4])
	if err != nil {
		return nil, nil, err
	}
	qdd, err := v.Double(f.keys[5])
	if err != nil {
		return nil, nil, err
	}

	S := f.joint.Screw
	// -ad(Vc)·S·v = ad(S·v)·Vc
	dVel := spatial.Ad(vc).MulVec(S).Scale(-1)
	negS := S.Scale(-1)
	H := []*mat.Dense{
		spatial.Ad(S.Scale(qd)).Dense(),
		f.joint.TransformChildParent(q).AdjointMap().Scale(-1).Dense(),
		identity(6),
		numericalScalar(func(x float64) []float64 { return f.residual(vc, ap, ac, x, qd, qdd) }, q),
		scalarBlock(6, dVel[:]),
		scalarBlock(6, negS[:]),
	}
	return f.residual(vc, ap, ac, q, qd, qdd), H, nil
}
