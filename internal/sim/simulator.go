// Package sim steps a robot forward in time: at each step the linear
// forward-dynamics system is solved for the accelerations, which an
// integrator then applies over the step.
package sim

import (
	"context"

	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/integrators"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/values"
	"go.uber.org/zap"
)

type Simulator struct {
	robot      *robot.Robot
	builder    *dynamics.Builder
	integrator integrators.Integrator
	logger     *zap.Logger
	observers  []Observer

	q0, v0 []float64
	state  State
	solved bool
	result *Result
}

type Option func(*Simulator)

func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulator) { s.integrator = i }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// New starts a simulator at q0, v0 with zero accelerations at step 0.
func New(r *robot.Robot, b *dynamics.Builder, q0, v0 []float64, opts ...Option) (*Simulator, error) {
	if err := r.CheckJointVector("initial angles", q0); err != nil {
		return nil, err
	}
	if err := r.CheckJointVector("initial velocities", v0); err != nil {
		return nil, err
	}
	s := &Simulator{
		robot:      r,
		builder:    b,
		integrator: integrators.NewTaylor(),
		logger:     zap.NewNop(),
		q0:         append([]float64(nil), q0...),
		v0:         append([]float64(nil), v0...),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset(0)
	return s, nil
}

// Reset returns to the initial angles and velocities at time index t0
// and discards accumulated results.
func (s *Simulator) Reset(t0 int) {
	s.state = State{
		Step: t0,
		Q:    append([]float64(nil), s.q0...),
		V:    append([]float64(nil), s.v0...),
		A:    make([]float64, len(s.q0)),
	}
	s.solved = false
	s.result = newResult()
}

func (s *Simulator) Robot() *robot.Robot                { return s.robot }
func (s *Simulator) Integrator() integrators.Integrator { return s.integrator }
func (s *Simulator) State() State                       { return s.state.Clone() }
func (s *Simulator) Result() *Result                    { return s.result }
func (s *Simulator) Values() *values.Values             { return s.result.Values }
func (s *Simulator) Time() int                          { return s.state.Step }
func (s *Simulator) AddObserver(o Observer)             { s.observers = append(s.observers, o) }
func (s *Simulator) Builder() *dynamics.Builder         { return s.builder }
func (s *Simulator) InitialState() (q0, v0 []float64)   { return s.q0, s.v0 }

// ForwardDynamics solves the current step for accelerations under tau and
// records the solution. It may be called once per step.
func (s *Simulator) ForwardDynamics(tau []float64) (*values.Values, error) {
	t := s.state.Step
	if s.solved {
		return nil, &SimError{Step: t, Message: "forward dynamics already solved for this step"}
	}
	if err := s.robot.CheckJointVector("torques", tau); err != nil {
		return nil, &SimError{Step: t, Message: "torques", Wrapped: err}
	}
	kin, err := s.robot.ForwardKinematics(s.state.Q, s.state.V, nil)
	if err != nil {
		return nil, &SimError{Step: t, Message: "kinematics", Wrapped: err}
	}
	sol, err := s.builder.LinearSolveFD(s.robot, t, s.state.Q, s.state.V, tau, kin)
	if err != nil {
		return nil, &SimError{Step: t, Message: "forward dynamics", Wrapped: err}
	}
	if s.state.A, err = dynamics.JointAccels(s.robot, sol, t); err != nil {
		return nil, &SimError{Step: t, Message: "accelerations", Wrapped: err}
	}
	if err := s.result.Values.Merge(sol); err != nil {
		return nil, &SimError{Step: t, Message: "accumulate", Wrapped: err}
	}
	s.solved = true

	snapshot := s.state.Clone()
	torque := append([]float64(nil), tau...)
	s.result.States = append(s.result.States, snapshot)
	s.result.Torques = append(s.result.Torques, torque)
	for _, o := range s.observers {
		o.OnStep(snapshot, torque)
	}
	return sol, nil
}

// Integrate applies the last solved accelerations over dt and advances
// the time index.
func (s *Simulator) Integrate(dt float64) error {
	if !s.solved {
		return &SimError{Step: s.state.Step, Message: "integrate before forward dynamics"}
	}
	q, v := s.integrator.Integrate(s.state.Q, s.state.V, s.state.A, dt)
	next := State{Step: s.state.Step + 1, Q: q, V: v, A: s.state.A}
	if !next.IsValid() {
		return &SimError{Step: s.state.Step, Message: "invalid state (NaN/Inf)"}
	}
	s.state = next
	s.solved = false
	return nil
}

// Step is ForwardDynamics followed by Integrate.
func (s *Simulator) Step(tau []float64, dt float64) (*values.Values, error) {
	sol, err := s.ForwardDynamics(tau)
	if err != nil {
		return nil, err
	}
	if err := s.Integrate(dt); err != nil {
		return nil, err
	}
	return sol, nil
}

// Simulate applies each torque vector for one step of length dt.
func (s *Simulator) Simulate(ctx context.Context, torques [][]float64, dt float64) (*Result, error) {
	if err := (Config{Dt: dt, Steps: max(len(torques), 1)}).Validate(); err != nil {
		return nil, err
	}
	for _, tau := range torques {
		select {
		case <-ctx.Done():
			return s.result, ctx.Err()
		default:
		}
		if _, err := s.Step(tau, dt); err != nil {
			return s.result, err
		}
	}
	s.logger.Debug("simulated", zap.String("robot", s.robot.Name), zap.Int("steps", len(torques)),
		zap.Int("t", s.state.Step), zap.String("integrator", s.integrator.Name()))
	return s.result, nil
}

// Run asks ctrl for torques at every step.
func (s *Simulator) Run(ctx context.Context, ctrl Controller, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := s.state.Step
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return s.result, ctx.Err()
		default:
		}
		elapsed := float64(s.state.Step-start) * cfg.Dt
		if _, err := s.Step(ctrl.Compute(s.State(), elapsed), cfg.Dt); err != nil {
			return s.result, err
		}
	}
	s.logger.Info("run finished", zap.String("robot", s.robot.Name), zap.Int("steps", cfg.Steps))
	return s.result, nil
}

// ConstantTorque applies the same torques at every step.
type ConstantTorque []float64

func (c ConstantTorque) Compute(State, float64) []float64 { return c }
