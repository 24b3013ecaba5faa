package integrators

import "gonum.org/v1/gonum/floats"

// Euler is the explicit Euler step: both updates use start-of-step rates.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Integrate(q, v, a []float64, dt float64) ([]float64, []float64) {
	q1 := make([]float64, len(q))
	v1 := make([]float64, len(v))
	floats.AddScaledTo(q1, q, dt, v)
	floats.AddScaledTo(v1, v, dt, a)
	return q1, v1
}

// SemiImplicit updates velocity first and moves the angles with it.
type SemiImplicit struct{}

func NewSemiImplicit() *SemiImplicit {
	return &SemiImplicit{}
}

func (s *SemiImplicit) Name() string { return "semi-implicit" }

func (s *SemiImplicit) Integrate(q, v, a []float64, dt float64) ([]float64, []float64) {
	q1 := make([]float64, len(q))
	v1 := make([]float64, len(v))
	floats.AddScaledTo(v1, v, dt, a)
	floats.AddScaledTo(q1, q, dt, v1)
	return q1, v1
}
