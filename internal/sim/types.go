package sim

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/values"
)

// State is the simulator's running tuple at time index Step.
type State struct {
	Step int
	Q    []float64
	V    []float64
	A    []float64
}

func (s State) Clone() State {
	return State{
		Step: s.Step,
		Q:    append([]float64(nil), s.Q...),
		V:    append([]float64(nil), s.V...),
		A:    append([]float64(nil), s.A...),
	}
}

func (s State) IsValid() bool {
	for _, xs := range [][]float64{s.Q, s.V, s.A} {
		for _, x := range xs {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

// Controller chooses joint torques from the current state; t is the
// elapsed time in seconds.
type Controller interface {
	Compute(s State, t float64) []float64
}

type Observer interface {
	OnStep(s State, tau []float64)
}

type Config struct {
	Dt    float64
	Steps int
}

func DefaultConfig() Config {
	return Config{Dt: 0.001, Steps: 1000}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return errors.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Steps <= 0 {
		return errors.Errorf("steps must be positive, got %d", c.Steps)
	}
	return nil
}

// Result accumulates one entry per solved step. States[i] holds the
// angles, velocities and solved accelerations at which Torques[i] was
// applied; Values holds every solved variable of every step.
type Result struct {
	States  []State
	Torques [][]float64
	Values  *values.Values
}

func newResult() *Result {
	return &Result{Values: values.New()}
}

func (r *Result) Len() int { return len(r.States) }

// Column extracts one joint's series of angle ('q'), velocity ('v'),
// acceleration ('a') or torque ('t').
func (r *Result) Column(what byte, joint int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		switch what {
		case 'q':
			out[i] = s.Q[joint]
		case 'v':
			out[i] = s.V[joint]
		case 'a':
			out[i] = s.A[joint]
		case 't':
			out[i] = r.Torques[i][joint]
		}
	}
	return out
}

type SimError struct {
	Step    int
	Message string
	Wrapped error
}

func (e *SimError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("step %d: %s: %v", e.Step, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("step %d: %s", e.Step, e.Message)
}

func (e *SimError) Unwrap() error { return e.Wrapped }
