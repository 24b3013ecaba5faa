package factor

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/linear"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidPlanarAxis = errors.New("factor: planar axis must be a coordinate axis")

type Factor interface {
	Keys() []keys.Key
	Dim() int
	Model() *noise.Model

	// Evaluate returns the unwhitened residual and one Dim()×dim(key)
	// Jacobian block per key, in Keys() order.
	Evaluate(v *values.Values) ([]float64, []*mat.Dense, error)
}

type base struct {
	name  string
	keys  []keys.Key
	dim   int
	model *noise.Model
}

func (b *base) Keys() []keys.Key    { return b.keys }
func (b *base) Dim() int            { return b.dim }
func (b *base) Model() *noise.Model { return b.model }
func (b *base) Name() string        { return b.name }

// Error is half the squared whitened residual norm.
func Error(f Factor, v *values.Values) (float64, error) {
	r, _, err := f.Evaluate(v)
	if err != nil {
		return 0, err
	}
	r = f.Model().Whiten(r)
	sum := 0.0
	for _, x := range r {
		sum += x * x
	}
	return 0.5 * sum, nil
}

// Linearize turns f into J·δ = −r around v.
func Linearize(f Factor, v *values.Values) (*linear.Factor, error) {
	r, H, err := f.Evaluate(v)
	if err != nil {
		return nil, err
	}
	b := make([]float64, len(r))
	for i, x := range r {
		b[i] = -x
	}
	return &linear.Factor{Keys: f.Keys(), A: H, B: b, Model: f.Model()}, nil
}

func identity(n int) *mat.Dense { return scaledIdentity(n, 1) }

func scaledIdentity(n int, s float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, s)
	}
	return m
}

func scalarBlock(rows int, col []float64) *mat.Dense {
	return mat.NewDense(rows, 1, append([]float64(nil), col...))
}
