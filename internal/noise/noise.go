// Package noise defines the Gaussian weighting attached to each
// constraint. A nil *Model means the constraint category is disabled.
package noise

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConstrainedSigma is the standard deviation used for hard equalities.
// It is small enough to dominate any soft cost but keeps the normal
// equations well conditioned.
const ConstrainedSigma = 1e-4

var ErrDimension = errors.New("noise: model dimension mismatch")

type Model struct {
	name   string
	sigma  float64
	sigmas []float64
}

// Isotropic weights every row by 1/sigma.
func Isotropic(sigma float64) *Model {
	if sigma <= 0 {
		panic(fmt.Sprintf("noise: sigma must be positive, got %g", sigma))
	}
	return &Model{name: "isotropic", sigma: sigma}
}

func Unit() *Model { return &Model{name: "unit", sigma: 1} }

func Constrained() *Model { return &Model{name: "constrained", sigma: ConstrainedSigma} }

// Diagonal fixes a per-row sigma; it only applies to residuals of len(sigmas).
func Diagonal(sigmas ...float64) *Model {
	for _, s := range sigmas {
		if s <= 0 {
			panic(fmt.Sprintf("noise: sigma must be positive, got %g", s))
		}
	}
	return &Model{name: "diagonal", sigmas: append([]float64(nil), sigmas...)}
}

// IsConstrained reports whether m models a hard equality.
func (m *Model) IsConstrained() bool { return m.name == "constrained" }

func (m *Model) Sigma(row int) float64 {
	if m.sigmas != nil {
		return m.sigmas[row]
	}
	return m.sigma
}

// Check reports whether the model can whiten residuals of dimension dim.
func (m *Model) Check(dim int) error {
	if m.sigmas != nil && len(m.sigmas) != dim {
		return errors.Wrapf(ErrDimension, "%s model has %d sigmas, residual has %d rows", m.name, len(m.sigmas), dim)
	}
	return nil
}

// Whiten scales r in place by the inverse sigmas and returns it.
func (m *Model) Whiten(r []float64) []float64 {
	for i := range r {
		r[i] /= m.Sigma(i)
	}
	return r
}

func (m *Model) String() string {
	if m.sigmas != nil {
		return fmt.Sprintf("%s%v", m.name, m.sigmas)
	}
	return fmt.Sprintf("%s(%g)", m.name, m.sigma)
}
