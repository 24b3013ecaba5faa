package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

type Pose struct {
	R Mat3
	P r3.Vector
}

func IdentityPose() Pose { return Pose{R: Identity3()} }

func NewPose(R Mat3, p r3.Vector) Pose { return Pose{R: R, P: p} }

func Translation(p r3.Vector) Pose { return Pose{R: Identity3(), P: p} }

// Compose returns a·b.
func (a Pose) Compose(b Pose) Pose {
	return Pose{R: a.R.Mul(b.R), P: a.R.MulVec(b.P).Add(a.P)}
}

func (a Pose) Inverse() Pose {
	Rt := a.R.T()
	return Pose{R: Rt, P: Rt.MulVec(a.P).Mul(-1)}
}

// Between returns a⁻¹·b.
func (a Pose) Between(b Pose) Pose { return a.Inverse().Compose(b) }

func (a Pose) TransformFrom(x r3.Vector) r3.Vector { return a.R.MulVec(x).Add(a.P) }

// AdjointMap returns the 6x6 matrix that maps twists expressed in this
// pose's frame into the reference frame.
func (a Pose) AdjointMap() Matrix6 {
	var m Matrix6
	m.setBlock(0, 0, a.R)
	m.setBlock(1, 0, Skew(a.P).Mul(a.R))
	m.setBlock(1, 1, a.R)
	return m
}

func (a Pose) Adjoint(xi Vector6) Vector6 {
	w := a.R.MulVec(xi.Angular())
	v := a.P.Cross(w).Add(a.R.MulVec(xi.Linear()))
	return NewVector6(w, v)
}

// AdjointTranspose applies Ad(a)ᵀ, mapping wrenches the opposite way.
func (a Pose) AdjointTranspose(f Vector6) Vector6 {
	Rt := a.R.T()
	tau, force := f.Angular(), f.Linear()
	w := Rt.MulVec(tau.Sub(a.P.Cross(force)))
	return NewVector6(w, Rt.MulVec(force))
}

// Expmap maps a twist to the pose reached by following it for unit time.
func Expmap(xi Vector6) Pose {
	w, v := xi.Angular(), xi.Linear()
	theta2 := w.Dot(w)
	R := Expmap3(w)
	if math.Sqrt(theta2) < 1e-10 {
		return Pose{R: R, P: v}
	}
	wxv := w.Cross(v)
	t := wxv.Sub(R.MulVec(wxv)).Add(w.Mul(w.Dot(v))).Mul(1 / theta2)
	return Pose{R: R, P: t}
}

// Logmap is the inverse of Expmap.
func Logmap(p Pose) Vector6 {
	w := Logmap3(p.R)
	t := w.Norm()
	if t < 1e-10 {
		return NewVector6(w, p.P)
	}
	W := Skew(w).Scale(1 / t)
	tan := math.Tan(0.5 * t)
	Wp := W.MulVec(p.P)
	u := p.P.Sub(Wp.Mul(0.5 * t)).Add(W.MulVec(Wp).Mul(1 - t/(2*tan)))
	return NewVector6(w, u)
}

// Retract applies a body-frame tangent update.
func (a Pose) Retract(delta Vector6) Pose { return a.Compose(Expmap(delta)) }

// LocalCoordinates returns δ such that a.Retract(δ) == b.
func (a Pose) LocalCoordinates(b Pose) Vector6 { return Logmap(a.Between(b)) }

func (a Pose) EqualApprox(b Pose, tol float64) bool {
	return a.R.EqualApprox(b.R, tol) &&
		math.Abs(a.P.X-b.P.X) <= tol &&
		math.Abs(a.P.Y-b.P.Y) <= tol &&
		math.Abs(a.P.Z-b.P.Z) <= tol
}

// Interpolate blends translation linearly and rotation by slerp.
func Interpolate(a, b Pose, s float64) Pose {
	return Pose{
		R: Slerp(a.R, b.R, s),
		P: a.P.Mul(1 - s).Add(b.P.Mul(s)),
	}
}

func (a Pose) String() string {
	ypr := Logmap3(a.R)
	return fmt.Sprintf("R(%.4g, %.4g, %.4g) t(%.4g, %.4g, %.4g)", ypr.X, ypr.Y, ypr.Z, a.P.X, a.P.Y, a.P.Z)
}
