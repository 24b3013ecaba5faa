package factor

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/mat"
)

// Term is Coeff times the product of the scalar variables in Keys. A term
// with no keys is a constant, one key is linear, two keys are bilinear.
type Term struct {
	Coeff float64
	Keys  []keys.Key
}

func Const(c float64) Term                   { return Term{Coeff: c} }
func Linear(c float64, k keys.Key) Term      { return Term{Coeff: c, Keys: []keys.Key{k}} }
func Bilinear(c float64, a, b keys.Key) Term { return Term{Coeff: c, Keys: []keys.Key{a, b}} }

// ProductFactor is the scalar residual Σ Coeff·ΠKeys. Collocation uses it
// for both fixed and variable step durations.
type ProductFactor struct {
	base
	terms []Term
}

func NewProductFactor(name string, model *noise.Model, terms ...Term) (*ProductFactor, error) {
	var ks []keys.Key
	seen := make(map[keys.Key]bool)
	for _, t := range terms {
		if len(t.Keys) > 2 {
			return nil, errors.Errorf("factor: %s term has %d keys, at most 2 supported", name, len(t.Keys))
		}
		for _, k := range t.Keys {
			if k.Kind().Dim() != 1 {
				return nil, errors.Errorf("factor: %s term key %s is not scalar", name, k)
			}
			if !seen[k] {
				seen[k] = true
				ks = append(ks, k)
			}
		}
	}
	return &ProductFactor{base: base{name: name, keys: ks, dim: 1, model: model}, terms: terms}, nil
}

func (f *ProductFactor) Terms() []Term { return f.terms }

func (f *ProductFactor) Evaluate(v *values.Values) ([]float64, []*mat.Dense, error) {
	x := make(map[keys.Key]float64, len(f.keys))
	for _, k := range f.keys {
		val, err := v.Double(k)
		if err != nil {
			return nil, nil, err
		}
		x[k] = val
	}

	index := make(map[keys.Key]int, len(f.keys))
	grad := make([]float64, len(f.keys))
	for i, k := range f.keys {
		index[k] = i
	}

	r := 0.0
	for _, t := range f.terms {
		prod := t.Coeff
		for _, k := range t.Keys {
			prod *= x[k]
		}
		r += prod
		for i, k := range t.Keys {
			d := t.Coeff
			for j, other := range t.Keys {
				if j != i {
					d *= x[other]
				}
			}
			grad[index[k]] += d
		}
	}

	H := make([]*mat.Dense, len(f.keys))
	for i := range f.keys {
		H[i] = mat.NewDense(1, 1, []float64{grad[i]})
	}
	return []float64{r}, H, nil
}
