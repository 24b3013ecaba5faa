// Package experiment turns a configuration into runnable work: a forward
// simulation with metrics, or a trajectory optimization problem solved by
// the nonlinear optimizer.
package experiment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/metrics"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/optimizer"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
	"github.com/san-kum/dyngraph/internal/storage"
	"github.com/san-kum/dyngraph/internal/values"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *zap.Logger
	robot    *robot.Robot
	builder  *dynamics.Builder
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// New validates cfg and resolves its robot and dynamics builder.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := &Experiment{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	r, err := e.registry.GetRobot(cfg.Robot)
	if err != nil {
		return nil, err
	}
	b, err := cfg.Builder(dynamics.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.robot, e.builder = r, b
	return e, nil
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Robot() *robot.Robot        { return e.robot }
func (e *Experiment) Builder() *dynamics.Builder { return e.builder }

// InitialState pads the configured initial angles and velocities to the
// robot's joint count.
func (e *Experiment) InitialState() (q0, v0 []float64) {
	n := e.robot.NumJoints()
	return config.JointVector(e.cfg.Simulation.InitialAngles, n), config.JointVector(e.cfg.Simulation.InitialVelocities, n)
}

func (e *Experiment) Controller() (sim.Controller, error) {
	return e.registry.GetController(e.cfg, e.robot.NumJoints())
}

func (e *Experiment) NewSimulator(observers ...sim.Observer) (*sim.Simulator, error) {
	integ, err := e.registry.GetIntegrator(e.cfg.Simulation.Integrator)
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{sim.WithIntegrator(integ), sim.WithLogger(e.logger)}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}
	q0, v0 := e.InitialState()
	return sim.New(e.robot, e.builder, q0, v0, opts...)
}

// Outcome is a finished experiment ready to be stored.
type Outcome struct {
	Meta   storage.RunMetadata
	Run    *storage.Run
	Result *optimizer.Result
}

// Simulate runs the configured controller for the configured number of
// steps with the default metrics attached.
func (e *Experiment) Simulate(ctx context.Context) (*Outcome, error) {
	ms := metrics.Defaults(e.robot, e.cfg.GravityVector())
	observers := make([]sim.Observer, len(ms))
	for i, m := range ms {
		observers[i] = m
	}
	s, err := e.NewSimulator(observers...)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.Controller()
	if err != nil {
		return nil, err
	}

	sc := e.cfg.Simulation
	res, err := s.Run(ctx, ctrl, sim.Config{Dt: sc.Dt, Steps: sc.Steps})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Meta: storage.RunMetadata{
			Kind:       "simulation",
			Robot:      e.robot.Name,
			Dt:         sc.Dt,
			Integrator: s.Integrator().Name(),
			Controller: e.cfg.Controller.Type,
			Summary:    metrics.Summary(ms),
		},
		Run: storage.FromResult(e.robot, res, sc.Dt),
	}, nil
}

// TrajectoryProblem assembles the trajectory graph with boundary
// conditions and minimum-torque costs, plus its initial values. The start
// state comes from the simulation initial state; the goal holds the goal
// angles at rest.
func (e *Experiment) TrajectoryProblem(ctx context.Context) (*factor.Graph, *values.Values, error) {
	tc := e.cfg.Trajectory
	scheme, err := dynamics.ParseScheme(tc.Scheme)
	if err != nil {
		return nil, nil, err
	}
	g, err := e.builder.TrajectoryGraph(ctx, e.robot, tc.Steps, tc.Dt, scheme)
	if err != nil {
		return nil, nil, err
	}

	costs := e.builder.Costs()
	n := e.robot.NumJoints()
	q0, v0 := e.InitialState()
	goal := config.JointVector(tc.GoalAngles, n)
	for j := 0; j < n; j++ {
		dynamics.NewJointObjectives(g, j, 0).Angle(q0[j], costs.PriorQ).Velocity(v0[j], costs.PriorV)
		dynamics.NewJointObjectives(g, j, tc.Steps).Angle(goal[j], costs.PriorQ).Velocity(0, costs.PriorV)
	}
	if tc.MinTorqueSigma > 0 {
		dynamics.MinTorqueObjectives(g, n, tc.Steps, noise.Isotropic(tc.MinTorqueSigma))
	}

	initial := dynamics.ZeroValuesTrajectory(e.robot, tc.Steps, 0, dynamics.InitOptions{Sigma: tc.InitSigma, Seed: tc.Seed})
	return g, initial, nil
}

// Optimize solves the trajectory problem with the configured optimizer.
func (e *Experiment) Optimize(ctx context.Context) (*Outcome, error) {
	params, err := e.cfg.OptimizerParams()
	if err != nil {
		return nil, err
	}
	g, initial, err := e.TrajectoryProblem(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("trajectory problem", zap.String("robot", e.robot.Name),
		zap.Int("factors", g.Len()), zap.Int("variables", initial.Len()))

	opt, err := optimizer.New(params, optimizer.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	res, err := opt.Optimize(ctx, g, initial)
	if err != nil {
		return nil, err
	}

	tc := e.cfg.Trajectory
	run, err := storage.FromValues(e.robot, res.Values, tc.Steps, tc.Dt)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Meta: storage.RunMetadata{
			Kind:      "trajectory",
			Robot:     e.robot.Name,
			Dt:        tc.Dt,
			Scheme:    tc.Scheme,
			Optimizer: params.Type.String(),
			Summary: map[string]float64{
				"initial_error": res.InitialError,
				"final_error":   res.FinalError,
				"iterations":    float64(res.Iterations),
			},
		},
		Run:    run,
		Result: res,
	}, nil
}
