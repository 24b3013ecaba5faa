package metrics

import (
	"math"

	"github.com/san-kum/dyngraph/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// ControlEffort is the RMS joint torque over every joint and step.
type ControlEffort struct {
	sumSq   float64
	entries int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) OnStep(_ sim.State, tau []float64) {
	c.sumSq += floats.Dot(tau, tau)
	c.entries += len(tau)
}

func (c *ControlEffort) Value() float64 {
	if c.entries == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.entries))
}

func (c *ControlEffort) Reset() { *c = ControlEffort{} }
