package factor

import (
	"github.com/san-kum/dyngraph/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

const diffStep = 1e-5

// numericalScalar differentiates fn at x by central differences.
func numericalScalar(fn func(float64) []float64, x float64) *mat.Dense {
	plus, minus := fn(x+diffStep), fn(x-diffStep)
	J := mat.NewDense(len(plus), 1, nil)
	for r := range plus {
		J.Set(r, 0, (plus[r]-minus[r])/(2*diffStep))
	}
	return J
}

// numericalPose differentiates fn with respect to right-multiplied tangent
// perturbations of x.
func numericalPose(fn func(spatial.Pose) []float64, x spatial.Pose) *mat.Dense {
	var J *mat.Dense
	for c := 0; c < 6; c++ {
		var d spatial.Vector6
		d[c] = diffStep
		plus := fn(x.Retract(d))
		d[c] = -diffStep
		minus := fn(x.Retract(d))
		if J == nil {
			J = mat.NewDense(len(plus), 6, nil)
		}
		for r := range plus {
			J.Set(r, c, (plus[r]-minus[r])/(2*diffStep))
		}
	}
	return J
}

// numericalVector differentiates fn with respect to additive updates of x.
func numericalVector(fn func(spatial.Vector6) []float64, x spatial.Vector6) *mat.Dense {
	var J *mat.Dense
	for c := 0; c < 6; c++ {
		plus, minus := x, x
		plus[c] += diffStep
		minus[c] -= diffStep
		rp, rm := fn(plus), fn(minus)
		if J == nil {
			J = mat.NewDense(len(rp), 6, nil)
		}
		for r := range rp {
			J.Set(r, c, (rp[r]-rm[r])/(2*diffStep))
		}
	}
	return J
}
