package config

import (
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/integrators"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/optimizer"
	"github.com/san-kum/dyngraph/internal/robot"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.001
	DefaultSteps         = 1000
	DefaultTrajSteps     = 20
	DefaultTrajDt        = 0.05
	DefaultMinTorqueCost = 10.0
	DefaultKp            = 50.0
	DefaultKi            = 1.0
	DefaultKd            = 5.0
)

type Config struct {
	Robot      string           `yaml:"robot"`
	Gravity    [3]float64       `yaml:"gravity"`
	PlanarAxis []float64        `yaml:"planar_axis,omitempty"`
	Simulation SimulationConfig `yaml:"simulation"`
	Controller ControllerConfig `yaml:"controller"`
	Trajectory TrajectoryConfig `yaml:"trajectory"`
	Costs      CostConfig       `yaml:"costs"`
}

type SimulationConfig struct {
	Dt                float64   `yaml:"dt"`
	Steps             int       `yaml:"steps"`
	Integrator        string    `yaml:"integrator"`
	InitialAngles     []float64 `yaml:"initial_angles,omitempty"`
	InitialVelocities []float64 `yaml:"initial_velocities,omitempty"`
	Torques           []float64 `yaml:"torques,omitempty"`
}

type ControllerConfig struct {
	Type   string    `yaml:"type"`
	Kp     float64   `yaml:"kp"`
	Ki     float64   `yaml:"ki"`
	Kd     float64   `yaml:"kd"`
	Target []float64 `yaml:"target,omitempty"`
}

type TrajectoryConfig struct {
	Steps            int       `yaml:"steps"`
	Dt               float64   `yaml:"dt"`
	Scheme           string    `yaml:"scheme"`
	Optimizer        string    `yaml:"optimizer"`
	MaxIterations    int       `yaml:"max_iterations"`
	RelativeErrorTol float64   `yaml:"relative_error_tol"`
	AbsoluteErrorTol float64   `yaml:"absolute_error_tol"`
	LambdaInitial    float64   `yaml:"lambda_initial"`
	LambdaFactor     float64   `yaml:"lambda_factor"`
	LambdaUpperBound float64   `yaml:"lambda_upper_bound"`
	DeltaInitial     float64   `yaml:"delta_initial"`
	GoalAngles       []float64 `yaml:"goal_angles,omitempty"`
	MinTorqueSigma   float64   `yaml:"min_torque_sigma"`
	InitSigma        float64   `yaml:"init_sigma"`
	Seed             uint64    `yaml:"seed"`
}

// CostConfig holds one sigma per constraint category. Omitting planar,
// a prior or time disables that category; omitting any other falls back
// to a hard constraint.
type CostConfig struct {
	Pose              *float64 `yaml:"pose,omitempty"`
	Twist             *float64 `yaml:"twist,omitempty"`
	Accel             *float64 `yaml:"accel,omitempty"`
	Dynamics          *float64 `yaml:"dynamics,omitempty"`
	WrenchEquivalence *float64 `yaml:"wrench_equivalence,omitempty"`
	Torque            *float64 `yaml:"torque,omitempty"`
	Planar            *float64 `yaml:"planar,omitempty"`
	FixedPose         *float64 `yaml:"fixed_pose,omitempty"`
	FixedTwist        *float64 `yaml:"fixed_twist,omitempty"`
	FixedAccel        *float64 `yaml:"fixed_accel,omitempty"`
	CollocationQ      *float64 `yaml:"collocation_q,omitempty"`
	CollocationV      *float64 `yaml:"collocation_v,omitempty"`
	PriorQ            *float64 `yaml:"prior_q,omitempty"`
	PriorV            *float64 `yaml:"prior_v,omitempty"`
	PriorTorque       *float64 `yaml:"prior_torque,omitempty"`
	Time              *float64 `yaml:"time,omitempty"`
}

func sigma(s float64) *float64 { return &s }

func DefaultCosts() CostConfig {
	c := noise.ConstrainedSigma
	return CostConfig{
		Pose: sigma(c), Twist: sigma(c), Accel: sigma(c), Dynamics: sigma(c),
		WrenchEquivalence: sigma(c), Torque: sigma(c), Planar: sigma(c),
		FixedPose: sigma(c), FixedTwist: sigma(c), FixedAccel: sigma(c),
		CollocationQ: sigma(c), CollocationV: sigma(c),
		PriorQ: sigma(c), PriorV: sigma(c), PriorTorque: sigma(c), Time: sigma(c),
	}
}

func DefaultConfig() *Config {
	op := optimizer.DefaultParams()
	return &Config{
		Robot:   "pendulum",
		Gravity: [3]float64{robot.StandardGravity.X, robot.StandardGravity.Y, robot.StandardGravity.Z},
		Simulation: SimulationConfig{
			Dt:         DefaultDt,
			Steps:      DefaultSteps,
			Integrator: "taylor",
		},
		Controller: ControllerConfig{
			Type: "constant",
			Kp:   DefaultKp,
			Ki:   DefaultKi,
			Kd:   DefaultKd,
		},
		Trajectory: TrajectoryConfig{
			Steps:            DefaultTrajSteps,
			Dt:               DefaultTrajDt,
			Scheme:           dynamics.Trapezoidal.String(),
			Optimizer:        op.Type.String(),
			MaxIterations:    op.MaxIterations,
			RelativeErrorTol: op.RelativeErrorTol,
			AbsoluteErrorTol: op.AbsoluteErrorTol,
			LambdaInitial:    op.LambdaInitial,
			LambdaFactor:     op.LambdaFactor,
			LambdaUpperBound: op.LambdaUpperBound,
			DeltaInitial:     op.DeltaInitial,
			MinTorqueSigma:   DefaultMinTorqueCost,
		},
		Costs: DefaultCosts(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var controllerTypes = map[string]bool{"none": true, "constant": true, "pid": true}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error
	if _, e := robot.Preset(c.Robot); e != nil {
		err = multierr.Append(err, e)
	}
	if c.PlanarAxis != nil {
		if len(c.PlanarAxis) != 3 {
			err = multierr.Append(err, errors.Errorf("planar_axis needs 3 components, got %d", len(c.PlanarAxis)))
		} else if _, e := dynamics.NewBuilder(dynamics.WithPlanarAxis(c.planarAxis())); e != nil {
			err = multierr.Append(err, e)
		}
	}
	if c.Simulation.Dt <= 0 {
		err = multierr.Append(err, errors.Errorf("simulation.dt must be positive, got %g", c.Simulation.Dt))
	}
	if c.Simulation.Steps <= 0 {
		err = multierr.Append(err, errors.Errorf("simulation.steps must be positive, got %d", c.Simulation.Steps))
	}
	if _, e := integrators.New(c.Simulation.Integrator); e != nil {
		err = multierr.Append(err, e)
	}
	if !controllerTypes[c.Controller.Type] {
		err = multierr.Append(err, errors.Errorf("unknown controller: %s", c.Controller.Type))
	}
	if c.Trajectory.Steps <= 0 {
		err = multierr.Append(err, errors.Errorf("trajectory.steps must be positive, got %d", c.Trajectory.Steps))
	}
	if c.Trajectory.Dt <= 0 {
		err = multierr.Append(err, errors.Errorf("trajectory.dt must be positive, got %g", c.Trajectory.Dt))
	}
	if _, e := dynamics.ParseScheme(c.Trajectory.Scheme); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := c.OptimizerParams(); e != nil {
		err = multierr.Append(err, e)
	}
	for name, s := range c.Costs.byName() {
		if s != nil && *s <= 0 {
			err = multierr.Append(err, errors.Errorf("costs.%s must be positive, got %g", name, *s))
		}
	}
	return err
}

func (c CostConfig) byName() map[string]*float64 {
	return map[string]*float64{
		"pose": c.Pose, "twist": c.Twist, "accel": c.Accel, "dynamics": c.Dynamics,
		"wrench_equivalence": c.WrenchEquivalence, "torque": c.Torque, "planar": c.Planar,
		"fixed_pose": c.FixedPose, "fixed_twist": c.FixedTwist, "fixed_accel": c.FixedAccel,
		"collocation_q": c.CollocationQ, "collocation_v": c.CollocationV,
		"prior_q": c.PriorQ, "prior_v": c.PriorV, "prior_torque": c.PriorTorque, "time": c.Time,
	}
}

// model maps a sigma to a noise model; the constrained sigma maps to a
// hard constraint.
func model(s *float64) *noise.Model {
	switch {
	case s == nil:
		return nil
	case *s == noise.ConstrainedSigma:
		return noise.Constrained()
	default:
		return noise.Isotropic(*s)
	}
}

// CostModels converts the sigma table. Call Validate first.
func (c CostConfig) CostModels() dynamics.CostModels {
	return dynamics.CostModels{
		Pose:              model(c.Pose),
		Twist:             model(c.Twist),
		Accel:             model(c.Accel),
		Dynamics:          model(c.Dynamics),
		WrenchEquivalence: model(c.WrenchEquivalence),
		Torque:            model(c.Torque),
		Planar:            model(c.Planar),
		FixedPose:         model(c.FixedPose),
		FixedTwist:        model(c.FixedTwist),
		FixedAccel:        model(c.FixedAccel),
		CollocationQ:      model(c.CollocationQ),
		CollocationV:      model(c.CollocationV),
		PriorQ:            model(c.PriorQ),
		PriorV:            model(c.PriorV),
		PriorTorque:       model(c.PriorTorque),
		Time:              model(c.Time),
	}
}

func (c *Config) GravityVector() r3.Vector {
	return r3.Vector{X: c.Gravity[0], Y: c.Gravity[1], Z: c.Gravity[2]}
}

func (c *Config) planarAxis() r3.Vector {
	return r3.Vector{X: c.PlanarAxis[0], Y: c.PlanarAxis[1], Z: c.PlanarAxis[2]}
}

// Builder assembles a dynamics builder from gravity, planar axis and costs.
func (c *Config) Builder(opts ...dynamics.Option) (*dynamics.Builder, error) {
	all := []dynamics.Option{
		dynamics.WithGravity(c.GravityVector()),
		dynamics.WithCosts(c.Costs.CostModels()),
	}
	if len(c.PlanarAxis) == 3 {
		all = append(all, dynamics.WithPlanarAxis(c.planarAxis()))
	}
	return dynamics.NewBuilder(append(all, opts...)...)
}

func (c *Config) OptimizerParams() (optimizer.Params, error) {
	typ, err := optimizer.ParseType(c.Trajectory.Optimizer)
	if err != nil {
		return optimizer.Params{}, err
	}
	p := optimizer.Params{
		Type:             typ,
		MaxIterations:    c.Trajectory.MaxIterations,
		RelativeErrorTol: c.Trajectory.RelativeErrorTol,
		AbsoluteErrorTol: c.Trajectory.AbsoluteErrorTol,
		LambdaInitial:    c.Trajectory.LambdaInitial,
		LambdaFactor:     c.Trajectory.LambdaFactor,
		LambdaUpperBound: c.Trajectory.LambdaUpperBound,
		DeltaInitial:     c.Trajectory.DeltaInitial,
	}
	return p, p.Validate()
}

// JointVector pads or truncates x to n entries.
func JointVector(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)
	return out
}
