package factor

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/mat"
)

// WrenchFactor is the Newton-Euler balance of one link. It accepts any
// number of incident joint wrenches. When gravity is non-zero the link
// pose is an extra key, since the gravity wrench depends on orientation.
type WrenchFactor struct {
	base
	inertia spatial.Matrix6
	mass    float64
	gravity r3.Vector
	wrenchN int
	hasPose bool
}

func NewWrenchFactor(twist, accel keys.Key, wrenches []keys.Key, pose keys.Key, link *robot.Link, gravity r3.Vector, model *noise.Model) *WrenchFactor {
	ks := append([]keys.Key{twist, accel}, wrenches...)
	hasPose := gravity.Norm() > 0
	if hasPose {
		ks = append(ks, pose)
	}
	return &WrenchFactor{
		base:    base{name: "wrench", keys: ks, dim: 6, model: model},
		inertia: link.SpatialInertia(),
		mass:    link.Mass,
		gravity: gravity,
		wrenchN: len(wrenches),
		hasPose: hasPose,
	}
}

// GravityWrench is the body-frame wrench gravity applies at the COM.
func GravityWrench(mass float64, R spatial.Mat3, gravity r3.Vector) spatial.Vector6 {
	return spatial.NewVector6(r3.Vector{}, R.T().MulVec(gravity).Mul(mass))
}

// BiasWrench is ad(V)ᵀ·G·V, the velocity product term of the balance.
func BiasWrench(G spatial.Matrix6, twist spatial.Vector6) spatial.Vector6 {
	return spatial.Ad(twist).T().MulVec(G.MulVec(twist))
}

func (f *WrenchFactor) residual(twist, accel spatial.Vector6, wrenches []spatial.Vector6, R spatial.Mat3) []float64 {
	r := f.inertia.MulVec(accel).Sub(BiasWrench(f.inertia, twist))
	for _, w := range wrenches {
		r = r.Sub(w)
	}
	if f.hasPose {
		r = r.Sub(GravityWrench(f.mass, R, f.gravity))
	}
	return r[:]
}

func (f *WrenchFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	twist, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	accel, err := v.Vector(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	wrenches := make([]spatial.Vector6, f.wrenchN)
	for i := range wrenches {
		if wrenches[i], err = v.Vector(f.keys[2+i]); err != nil {
			return nil, nil, err
		}
	}
	R := spatial.Identity3()
	var pose spatial.Pose
	if f.hasPose {
		if pose, err = v.Pose(f.keys[len(f.keys)-1]); err != nil {
			return nil, nil, err
		}
		R = pose.R
	}

	H := make([]*mat.Dense, 0, len(f.keys))
	H = append(H, f.twistJacobian(twist).Dense(), f.inertia.Dense())
	for range wrenches {
		H = append(H, scaledIdentity(6, -1))
	}
	if f.hasPose {
		H = append(H, numericalPose(func(x spatial.Pose) []float64 {
			return f.residual(twist, accel, wrenches, x.R)
		}, pose))
	}
	return f.residual(twist, accel, wrenches, R), H, nil
}

// twistJacobian is -∂(ad(V)ᵀ·G·V)/∂V.
func (f *WrenchFactor) twistJacobian(twist spatial.Vector6) spatial.Matrix6 {
	gv := f.inertia.MulVec(twist)
	w, l := spatial.Skew(gv.Angular()), spatial.Skew(gv.Linear())
	var coad spatial.Matrix6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			coad[i*6+j] = w[i*3+j]
			coad[i*6+3+j] = l[i*3+j]
			coad[(3+i)*6+j] = l[i*3+j]
		}
	}
	return coad.Add(spatial.Ad(twist).T().Mul(f.inertia)).Scale(-1)
}

// WrenchEquivalenceFactor states that the joint's wrenches on its two
// links are equal and opposite.
type WrenchEquivalenceFactor struct {
	base
	joint *robot.Joint
}

func NewWrenchEquivalenceFactor(parentWrench, childWrench, angle keys.Key, joint *robot.Joint, model *noise.Model) *WrenchEquivalenceFactor {
	return &WrenchEquivalenceFactor{
		base:  base{name: "wrench_equivalence", keys: []keys.Key{parentWrench, childWrench, angle}, dim: 6, model: model},
		joint: joint,
	}
}

func (f *WrenchEquivalenceFactor) residual(fp, fc spatial.Vector6, q float64) []float64 {
	r := fp.Add(f.joint.TransformChildParent(q).AdjointTranspose(fc))
	return r[:]
}

func (f *WrenchEquivalenceFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	fp, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	fc, err := v.Vector(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	q, err := v.Double(f.keys[2])
	if err != nil {
		return nil, nil, err
	}
	H := []*mat.Dense{
		identity(6),
		f.joint.TransformChildParent(q).AdjointMap().T().Dense(),
		numericalScalar(func(x float64) []float64 { return f.residual(fp, fc, x) }, q),
	}
	return f.residual(fp, fc, q), H, nil
}

// TorqueFactor projects the child-side wrench onto the joint axis.
type TorqueFactor struct {
	base
	joint *robot.Joint
}

func NewTorqueFactor(childWrench, torque keys.Key, joint *robot.Joint, model *noise.Model) *TorqueFactor {
	return &TorqueFactor{
		base:  base{name: "torque", keys: []keys.Key{childWrench, torque}, dim: 1, model: model},
		joint: joint,
	}
}

func (f *TorqueFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	fc, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	tau, err := v.Double(f.keys[1])
	if err != nil {
		return nil, nil, err
	}
	S := f.joint.Screw
	return []float64{S.Dot(fc) - tau}, []*mat.Dense{mat.NewDense(1, 6, S[:]), scaledIdentity(1, -1)}, nil
}

// PlanarRows returns the wrench components that must vanish for motion in
// the plane normal to axis.
func PlanarRows(axis r3.Vector) ([3]int, error) {
	switch {
	case axis.X != 0 && axis.Y == 0 && axis.Z == 0:
		return [3]int{1, 2, 3}, nil
	case axis.X == 0 && axis.Y != 0 && axis.Z == 0:
		return [3]int{0, 2, 4}, nil
	case axis.X == 0 && axis.Y == 0 && axis.Z != 0:
		return [3]int{0, 1, 5}, nil
	}
	return [3]int{}, errors.Wrapf(ErrInvalidPlanarAxis, "got (%g, %g, %g)", axis.X, axis.Y, axis.Z)
}

// PlanarFactor removes the out-of-plane components of a joint wrench.
type PlanarFactor struct {
	base
	H *mat.Dense
}

func NewPlanarFactor(wrench keys.Key, axis r3.Vector, model *noise.Model) (*PlanarFactor, error) {
	rows, err := PlanarRows(axis)
	if err != nil {
		return nil, err
	}
	H := mat.NewDense(3, 6, nil)
	for i, c := range rows {
		H.Set(i, c, 1)
	}
	return &PlanarFactor{
		base: base{name: "planar", keys: []keys.Key{wrench}, dim: 3, model: model},
		H:    H,
	}, nil
}

func (f *PlanarFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	w, err := v.Vector(f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	var r mat.VecDense
	r.MulVec(f.H, w.Vec())
	return []float64{r.AtVec(0), r.AtVec(1), r.AtVec(2)}, []*mat.Dense{mat.DenseCopyOf(f.H)}, nil
}
