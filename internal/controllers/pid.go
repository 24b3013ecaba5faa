package controllers

import "github.com/san-kum/dyngraph/internal/sim"

// PID drives every joint angle toward its target independently. The
// derivative term uses the measured joint velocity.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target []float64

	integral []float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64, target []float64) *PID {
	return &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		Target:   append([]float64(nil), target...),
		integral: make([]float64, len(target)),
		first:    true,
	}
}

func (p *PID) Compute(s sim.State, t float64) []float64 {
	u := make([]float64, len(s.Q))
	dt := 0.0
	if !p.first {
		dt = t - p.prevT
	}
	p.prevT, p.first = t, false

	for i := range u {
		if i >= len(p.Target) {
			continue
		}
		err := p.Target[i] - s.Q[i]
		if dt > 0 {
			p.integral[i] += err * dt
		}
		u[i] = p.Kp*err + p.Ki*p.integral[i] - p.Kd*s.V[i]
	}
	return u
}

// Reset clears the integral state.
func (p *PID) Reset() {
	for i := range p.integral {
		p.integral[i] = 0
	}
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID gain
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	}
}
