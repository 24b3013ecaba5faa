// Package integrators advances joint angles and velocities across one
// time step given the accelerations solved at the start of the step.
package integrators

import (
	"sort"

	"github.com/pkg/errors"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// Integrator maps (q, v, a) at the start of a step to (q, v) at its end.
// Implementations must not modify their inputs.
type Integrator interface {
	Name() string
	Integrate(q, v, a []float64, dt float64) (q1, v1 []float64)
}

var registry = map[string]func() Integrator{
	"taylor":        func() Integrator { return NewTaylor() },
	"euler":         func() Integrator { return NewEuler() },
	"semi-implicit": func() Integrator { return NewSemiImplicit() },
}

// New returns the named integrator. The empty name selects Taylor.
func New(name string) (Integrator, error) {
	if name == "" {
		return NewTaylor(), nil
	}
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownIntegrator, "%s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
