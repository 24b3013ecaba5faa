// Package linear holds Gaussian factor graphs: weighted linear equations
// A·x = b over keyed blocks, assembled densely and solved with gonum.
package linear

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingularSystem wraps rank-deficient or ill-conditioned solves.
	ErrSingularSystem = errors.New("linear: singular or ill-conditioned system")

	// ErrDimensionMismatch indicates blocks that disagree on a key's width.
	ErrDimensionMismatch = errors.New("linear: inconsistent block dimensions")
)

// Factor is one weighted equation block A·x = b. A holds one column block
// per key, each with len(B) rows.
type Factor struct {
	Keys  []keys.Key
	A     []*mat.Dense
	B     []float64
	Model *noise.Model
}

func (f *Factor) Rows() int { return len(f.B) }

// Graph is an ordered set of linear factors.
type Graph struct {
	factors []*Factor
}

func NewGraph() *Graph { return &Graph{} }

func (g *Graph) Add(f ...*Factor)   { g.factors = append(g.factors, f...) }
func (g *Graph) Factors() []*Factor { return g.factors }
func (g *Graph) Len() int           { return len(g.factors) }

// Rows is the total number of scalar equations.
func (g *Graph) Rows() int {
	n := 0
	for _, f := range g.factors {
		n += f.Rows()
	}
	return n
}

// Ordering assigns each key a column offset in the assembled system.
type Ordering struct {
	keys   []keys.Key
	offset map[keys.Key]int
	dim    map[keys.Key]int
	cols   int
}

// NewOrdering orders keys ascending and checks every block agrees on width.
func (g *Graph) NewOrdering() (*Ordering, error) {
	o := &Ordering{offset: make(map[keys.Key]int), dim: make(map[keys.Key]int)}
	for _, f := range g.factors {
		if len(f.Keys) != len(f.A) {
			return nil, errors.Wrapf(ErrDimensionMismatch, "%d keys but %d blocks", len(f.Keys), len(f.A))
		}
		for i, k := range f.Keys {
			r, c := f.A[i].Dims()
			if r != f.Rows() {
				return nil, errors.Wrapf(ErrDimensionMismatch, "%s block has %d rows, factor has %d", k, r, f.Rows())
			}
			if d, ok := o.dim[k]; ok && d != c {
				return nil, errors.Wrapf(ErrDimensionMismatch, "%s is %d wide and %d wide", k, d, c)
			}
			o.dim[k] = c
		}
	}
	for k := range o.dim {
		o.keys = append(o.keys, k)
	}
	sort.Slice(o.keys, func(i, j int) bool { return o.keys[i] < o.keys[j] })
	for _, k := range o.keys {
		o.offset[k] = o.cols
		o.cols += o.dim[k]
	}
	return o, nil
}

func (o *Ordering) Keys() []keys.Key      { return o.keys }
func (o *Ordering) Cols() int             { return o.cols }
func (o *Ordering) Dim(k keys.Key) int    { return o.dim[k] }
func (o *Ordering) Offset(k keys.Key) int { return o.offset[k] }

// System assembles the whitened dense matrix J and right-hand side b.
func (g *Graph) System(o *Ordering) (*mat.Dense, *mat.VecDense) {
	rows := g.Rows()
	J := mat.NewDense(max(rows, 1), max(o.cols, 1), nil)
	b := mat.NewVecDense(max(rows, 1), nil)
	row := 0
	for _, f := range g.factors {
		for r := 0; r < f.Rows(); r++ {
			w := 1.0
			if f.Model != nil {
				w = 1 / f.Model.Sigma(r)
			}
			b.SetVec(row+r, w*f.B[r])
			for i, k := range f.Keys {
				off := o.offset[k]
				for c := 0; c < o.dim[k]; c++ {
					J.Set(row+r, off+c, J.At(row+r, off+c)+w*f.A[i].At(r, c))
				}
			}
		}
		row += f.Rows()
	}
	return J, b
}

// Solution maps each key to its solved block.
type Solution map[keys.Key][]float64

// Split cuts a stacked solution vector into per-key blocks.
func (o *Ordering) Split(x mat.Vector) Solution {
	out := make(Solution, len(o.keys))
	for _, k := range o.keys {
		d := make([]float64, o.dim[k])
		for c := range d {
			d[c] = x.AtVec(o.offset[k] + c)
		}
		out[k] = d
	}
	return out
}

// Solve returns the weighted least-squares solution of the graph.
func (g *Graph) Solve() (Solution, *Ordering, error) {
	return g.SolveDamped(0)
}

// SolveDamped adds lambda·I regularization rows before solving, as in a
// Levenberg-Marquardt step.
func (g *Graph) SolveDamped(lambda float64) (Solution, *Ordering, error) {
	o, err := g.NewOrdering()
	if err != nil {
		return nil, nil, err
	}
	J, b := g.System(o)
	x, err := solveLeastSquares(J, b, lambda)
	if err != nil {
		return nil, nil, err
	}
	return o.Split(x), o, nil
}

func solveLeastSquares(J *mat.Dense, b *mat.VecDense, lambda float64) (*mat.VecDense, error) {
	m, n := J.Dims()
	if lambda > 0 {
		aug := mat.NewDense(m+n, n, nil)
		aug.Slice(0, m, 0, n).(*mat.Dense).Copy(J)
		s := math.Sqrt(lambda)
		for i := 0; i < n; i++ {
			aug.Set(m+i, i, s)
		}
		bb := mat.NewVecDense(m+n, nil)
		bb.SliceVec(0, m).(*mat.VecDense).CopyVec(b)
		J, b, m = aug, bb, m+n
	}
	if m < n {
		return nil, errors.Wrapf(ErrSingularSystem, "%d equations for %d unknowns", m, n)
	}

	var qr mat.QR
	qr.Factorize(J)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, errors.Wrapf(ErrSingularSystem, "condition number %.3g", float64(cond))
		}
		return nil, errors.Wrap(err, "qr solve")
	}
	return &x, nil
}
