package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Matrix6 is a row-major 6x6 matrix.
type Matrix6 [36]float64

func Identity6() Matrix6 {
	var m Matrix6
	for i := 0; i < 6; i++ {
		m[i*6+i] = 1
	}
	return m
}

func Diag6(d Vector6) Matrix6 {
	var m Matrix6
	for i := 0; i < 6; i++ {
		m[i*6+i] = d[i]
	}
	return m
}

func (m Matrix6) At(i, j int) float64 { return m[i*6+j] }

// Dense copies m into a gonum matrix.
func (m Matrix6) Dense() *mat.Dense {
	return mat.NewDense(6, 6, append([]float64(nil), m[:]...))
}

func Matrix6From(a mat.Matrix) Matrix6 {
	var m Matrix6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i*6+j] = a.At(i, j)
		}
	}
	return m
}

func (m Matrix6) Mul(o Matrix6) Matrix6 {
	var out mat.Dense
	out.Mul(m.Dense(), o.Dense())
	return Matrix6From(&out)
}

func (m Matrix6) MulVec(v Vector6) Vector6 {
	var out mat.VecDense
	out.MulVec(m.Dense(), v.Vec())
	return Vector6From(&out)
}

func (m Matrix6) T() Matrix6 {
	var t Matrix6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			t[j*6+i] = m[i*6+j]
		}
	}
	return t
}

func (m Matrix6) Add(o Matrix6) Matrix6 {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m Matrix6) Scale(s float64) Matrix6 {
	for i := range m {
		m[i] *= s
	}
	return m
}

func (m Matrix6) EqualApprox(o Matrix6, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// setBlock writes the 3x3 matrix r into block (bi, bj) of m.
func (m *Matrix6) setBlock(bi, bj int, r Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[(bi*3+i)*6+bj*3+j] = r[i*3+j]
		}
	}
}

// Ad returns the twist cross-product matrix ad(ξ) = [[ω̂, 0], [v̂, ω̂]],
// so that Ad(ξ)·η is the Lie bracket [ξ, η].
func Ad(xi Vector6) Matrix6 {
	var m Matrix6
	w := Skew(xi.Angular())
	m.setBlock(0, 0, w)
	m.setBlock(1, 0, Skew(xi.Linear()))
	m.setBlock(1, 1, w)
	return m
}

// SpatialInertia assembles G = [[I, 0], [0, m·1]] about the center of mass.
func SpatialInertia(mass float64, inertia Mat3) Matrix6 {
	var m Matrix6
	m.setBlock(0, 0, inertia)
	m.setBlock(1, 1, Mat3{mass, 0, 0, 0, mass, 0, 0, 0, mass})
	return m
}

// InertiaDiag builds a principal-axis rotational inertia.
func InertiaDiag(d r3.Vector) Mat3 {
	return Mat3{d.X, 0, 0, 0, d.Y, 0, 0, 0, d.Z}
}
