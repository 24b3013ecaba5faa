package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector6 holds a twist, twist acceleration or wrench.
type Vector6 [6]float64

func NewVector6(angular, linear r3.Vector) Vector6 {
	return Vector6{angular.X, angular.Y, angular.Z, linear.X, linear.Y, linear.Z}
}

func (v Vector6) Angular() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }
func (v Vector6) Linear() r3.Vector  { return r3.Vector{X: v[3], Y: v[4], Z: v[5]} }

func (v Vector6) Add(o Vector6) Vector6 {
	floats.Add(v[:], o[:])
	return v
}

func (v Vector6) Sub(o Vector6) Vector6 {
	floats.Sub(v[:], o[:])
	return v
}

func (v Vector6) Scale(s float64) Vector6 {
	floats.Scale(s, v[:])
	return v
}

func (v Vector6) Dot(o Vector6) float64 { return floats.Dot(v[:], o[:]) }
func (v Vector6) Norm() float64         { return floats.Norm(v[:], 2) }

// Vec returns a gonum view sharing no memory with v.
func (v Vector6) Vec() *mat.VecDense {
	return mat.NewVecDense(6, append([]float64(nil), v[:]...))
}

func Vector6From(x mat.Vector) Vector6 {
	var v Vector6
	for i := range v {
		v[i] = x.AtVec(i)
	}
	return v
}

func (v Vector6) EqualApprox(o Vector6, tol float64) bool {
	for i := range v {
		if math.Abs(v[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

func (v Vector6) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
