package controllers

import "github.com/san-kum/dyngraph/internal/sim"

// None applies zero torque to every joint.
type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) Compute(s sim.State, t float64) []float64 {
	return make([]float64, n.dim)
}
