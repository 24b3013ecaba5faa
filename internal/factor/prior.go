package factor

import (
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/mat"
)

// Prior pins one variable to a fixed value.
type Prior[T values.Value] struct {
	base
	prior T
}

func NewPrior[T values.Value](k keys.Key, prior T, model *noise.Model) *Prior[T] {
	dim := 6
	if _, ok := any(prior).(float64); ok {
		dim = 1
	}
	return &Prior[T]{
		base:  base{name: "prior", keys: []keys.Key{k}, dim: dim, model: model},
		prior: prior,
	}
}

func (f *Prior[T]) Value() T { return f.prior }

func (f *Prior[T]) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	x, err := values.Get[T](v, f.keys[0])
	if err != nil {
		return nil, nil, err
	}
	switch p := any(f.prior).(type) {
	case float64:
		return []float64{any(x).(float64) - p}, []*mat.Dense{identity(1)}, nil
	case spatial.Vector6:
		r := any(x).(spatial.Vector6).Sub(p)
		return r[:], []*mat.Dense{identity(6)}, nil
	default:
		pose := any(f.prior).(spatial.Pose)
		residual := func(x spatial.Pose) []float64 {
			r := pose.LocalCoordinates(x)
			return r[:]
		}
		xp := any(x).(spatial.Pose)
		return residual(xp), []*mat.Dense{numericalPose(residual, xp)}, nil
	}
}
