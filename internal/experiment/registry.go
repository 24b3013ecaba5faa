package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/controllers"
	"github.com/san-kum/dyngraph/internal/integrators"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
)

// ControllerFactory builds a controller for a robot with n joints.
type ControllerFactory func(cfg *config.Config, n int) sim.Controller

type Registry struct {
	robots      map[string]func() (*robot.Robot, error)
	integrators map[string]func() (integrators.Integrator, error)
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		robots:      make(map[string]func() (*robot.Robot, error)),
		integrators: make(map[string]func() (integrators.Integrator, error)),
		controllers: make(map[string]ControllerFactory),
	}

	for _, name := range robot.PresetNames() {
		r.robots[name] = func() (*robot.Robot, error) { return robot.Preset(name) }
	}
	for _, name := range integrators.Names() {
		r.integrators[name] = func() (integrators.Integrator, error) { return integrators.New(name) }
	}

	r.controllers["none"] = func(cfg *config.Config, n int) sim.Controller {
		return controllers.NewNone(n)
	}
	r.controllers["constant"] = func(cfg *config.Config, n int) sim.Controller {
		return sim.ConstantTorque(config.JointVector(cfg.Simulation.Torques, n))
	}
	r.controllers["pid"] = func(cfg *config.Config, n int) sim.Controller {
		cc := cfg.Controller
		return controllers.NewPID(cc.Kp, cc.Ki, cc.Kd, config.JointVector(cc.Target, n))
	}

	return r
}

// RegisterRobot adds or replaces a named robot constructor.
func (r *Registry) RegisterRobot(name string, fn func() (*robot.Robot, error)) {
	r.robots[name] = fn
}

func (r *Registry) RegisterController(name string, fn ControllerFactory) {
	r.controllers[name] = fn
}

func (r *Registry) GetRobot(name string) (*robot.Robot, error) {
	fn, ok := r.robots[name]
	if !ok {
		return nil, fmt.Errorf("unknown robot: %s", name)
	}
	return fn()
}

func (r *Registry) GetIntegrator(name string) (integrators.Integrator, error) {
	if name == "" {
		return integrators.NewTaylor(), nil
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn()
}

func (r *Registry) GetController(cfg *config.Config, n int) (sim.Controller, error) {
	fn, ok := r.controllers[cfg.Controller.Type]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", cfg.Controller.Type)
	}
	return fn(cfg, n), nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListRobots() []string      { return sortedKeys(r.robots) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }
