package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Mat3 is a row-major 3x3 matrix. Rotations are Mat3 values with
// orthonormal rows and unit determinant.
type Mat3 [9]float64

func Identity3() Mat3 { return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1} }

// Skew returns the cross-product matrix of v.
func Skew(v r3.Vector) Mat3 {
	return Mat3{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}
}

func (m Mat3) Mul(o Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = m[i*3]*o[j] + m[i*3+1]*o[3+j] + m[i*3+2]*o[6+j]
		}
	}
	return out
}

func (m Mat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

func (m Mat3) T() Mat3 {
	return Mat3{m[0], m[3], m[6], m[1], m[4], m[7], m[2], m[5], m[8]}
}

func (m Mat3) Add(o Mat3) Mat3 {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m Mat3) Scale(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

func (m Mat3) Trace() float64 { return m[0] + m[4] + m[8] }

func (m Mat3) EqualApprox(o Mat3, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// Expmap3 maps an axis-angle vector to a rotation (Rodrigues).
func Expmap3(w r3.Vector) Mat3 {
	theta := w.Norm()
	W := Skew(w)
	if theta < 1e-10 {
		return Identity3().Add(W)
	}
	a := math.Sin(theta) / theta
	b := (1 - math.Cos(theta)) / (theta * theta)
	return Identity3().Add(W.Scale(a)).Add(W.Mul(W).Scale(b))
}

// Logmap3 is the inverse of Expmap3, returning an angle in [0, π].
func Logmap3(R Mat3) r3.Vector {
	c := math.Max(-1, math.Min(1, (R.Trace()-1)/2))
	theta := math.Acos(c)
	vee := r3.Vector{X: R[7] - R[5], Y: R[2] - R[6], Z: R[3] - R[1]}
	switch {
	case theta < 1e-8:
		return vee.Mul(0.5)
	case math.Pi-theta < 1e-6:
		// near π the antisymmetric part vanishes; recover the axis from the
		// largest diagonal entry of (R + I)/2 = n·nᵀ.
		k := 0
		if R[4] > R[k*4] {
			k = 1
		}
		if R[8] > R[k*4] {
			k = 2
		}
		col := r3.Vector{X: R[k], Y: R[3+k], Z: R[6+k]}
		switch k {
		case 0:
			col.X++
		case 1:
			col.Y++
		case 2:
			col.Z++
		}
		n := col.Normalize()
		if n.Dot(vee) < 0 {
			n = n.Mul(-1)
		}
		return n.Mul(theta)
	default:
		return vee.Mul(theta / (2 * math.Sin(theta)))
	}
}

func RotX(a float64) Mat3 { return Expmap3(r3.Vector{X: a}) }
func RotY(a float64) Mat3 { return Expmap3(r3.Vector{Y: a}) }
func RotZ(a float64) Mat3 { return Expmap3(r3.Vector{Z: a}) }

// Quaternion converts a rotation to a unit quaternion with non-negative
// real part.
func (m Mat3) Quaternion() quat.Number {
	w := m.Trace()
	var q quat.Number
	switch {
	case w > 0:
		s := math.Sqrt(w+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m[7] - m[5]) / s, Jmag: (m[2] - m[6]) / s, Kmag: (m[3] - m[1]) / s}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: s / 4, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: s / 4, Kmag: (m[5] + m[7]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: s / 4}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return q
}

// FromQuaternion normalizes q and returns its rotation matrix.
func FromQuaternion(q quat.Number) Mat3 {
	q = quat.Scale(1/quat.Abs(q), q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Mat3{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// Slerp interpolates between two rotations along the shortest arc.
func Slerp(a, b Mat3, s float64) Mat3 {
	qa, qb := a.Quaternion(), b.Quaternion()
	if qa.Real*qb.Real+qa.Imag*qb.Imag+qa.Jmag*qb.Jmag+qa.Kmag*qb.Kmag < 0 {
		qb = quat.Scale(-1, qb)
	}
	delta := quat.Mul(quat.Conj(qa), qb)
	return FromQuaternion(quat.Mul(qa, quat.Pow(delta, quat.Number{Real: s})))
}
