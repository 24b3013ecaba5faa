package controllers

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/sim"
	"gonum.org/v1/gonum/mat"
)

// LQR is full state feedback u = −K·(x − x*) over the stacked joint state
// x = [q; v]. K has one row per joint and 2·joints columns.
type LQR struct {
	K      *mat.Dense
	Target []float64
}

func NewLQR(k [][]float64, target []float64) (*LQR, error) {
	if len(k) == 0 {
		return nil, errors.New("controllers: empty gain matrix")
	}
	cols := len(k[0])
	if len(target) != cols {
		return nil, errors.Errorf("controllers: target has %d entries, gain has %d columns", len(target), cols)
	}
	K := mat.NewDense(len(k), cols, nil)
	for i, row := range k {
		if len(row) != cols {
			return nil, errors.Errorf("controllers: gain row %d has %d columns, want %d", i, len(row), cols)
		}
		K.SetRow(i, row)
	}
	return &LQR{K: K, Target: append([]float64(nil), target...)}, nil
}

func (l *LQR) Compute(s sim.State, t float64) []float64 {
	x := make([]float64, 0, len(s.Q)+len(s.V))
	x = append(append(x, s.Q...), s.V...)
	dx := mat.NewVecDense(len(x), x)
	dx.SubVec(dx, mat.NewVecDense(len(l.Target), l.Target))

	rows, _ := l.K.Dims()
	u := mat.NewVecDense(rows, nil)
	u.MulVec(l.K, dx)
	u.ScaleVec(-1, u)
	return u.RawVector().Data
}
