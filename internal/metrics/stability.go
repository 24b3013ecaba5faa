package metrics

import (
	"math"

	"github.com/san-kum/dyngraph/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// Stability is the fraction of steps whose largest joint angle and
// velocity magnitudes stay within bound. A NaN state counts as unstable.
type Stability struct {
	bound       float64
	inside, all int
}

func NewStability(bound float64) *Stability { return &Stability{bound: bound} }

func (s *Stability) Name() string { return "stability" }

func (s *Stability) OnStep(st sim.State, _ []float64) {
	s.all++
	if s.within(st.Q) && s.within(st.V) {
		s.inside++
	}
}

func (s *Stability) within(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	if floats.HasNaN(xs) {
		return false
	}
	return floats.Norm(xs, math.Inf(1)) <= s.bound
}

func (s *Stability) Value() float64 {
	if s.all == 0 {
		return 1
	}
	return float64(s.inside) / float64(s.all)
}

func (s *Stability) Reset() { s.inside, s.all = 0, 0 }
