package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
)

func pendulum(t *testing.T) *robot.Robot {
	t.Helper()
	r, err := robot.NewPendulum(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestMechanicalEnergy(t *testing.T) {
	r := pendulum(t)

	kin, err := r.ForwardKinematics([]float64{0}, []float64{2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// I about the hinge is m*l*l/3
	expected := 0.5 * (4.0 / 3.0) * 4
	if e := MechanicalEnergy(r, kin, r3.Vector{}); math.Abs(e-expected) > 1e-9 {
		t.Errorf("expected kinetic energy %f, got %f", expected, e)
	}

	kin, err = r.ForwardKinematics([]float64{math.Pi / 2}, []float64{0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e := MechanicalEnergy(r, kin, robot.StandardGravity); math.Abs(e-9.81) > 1e-9 {
		t.Errorf("expected potential energy 9.81, got %f", e)
	}
}

func TestEnergyReset(t *testing.T) {
	r := pendulum(t)
	m := NewEnergy(r, robot.StandardGravity)

	m.OnStep(sim.State{Q: []float64{1}, V: []float64{1}}, []float64{0})
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDriftFreeRotation(t *testing.T) {
	r := pendulum(t)
	b, err := dynamics.NewBuilder()
	if err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(r, b, []float64{0}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}

	drift := NewEnergyDrift(r, r3.Vector{})
	effort := NewControlEffort()
	s.AddObserver(drift)
	s.AddObserver(effort)
	if _, err := s.Run(context.Background(), sim.ConstantTorque{0}, sim.Config{Dt: 0.01, Steps: 100}); err != nil {
		t.Fatal(err)
	}

	if drift.Value() > 1e-9 {
		t.Errorf("free rotation should conserve energy, drift %g", drift.Value())
	}
	if math.Abs(drift.Current()-2.0/3.0) > 1e-9 {
		t.Errorf("expected energy 2/3, got %f", drift.Current())
	}
	if effort.Value() != 0 {
		t.Errorf("expected zero effort, got %f", effort.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(1)
	if s.Value() != 1 {
		t.Error("expected 1 with no samples")
	}
	s.OnStep(sim.State{Q: []float64{0.5}, V: []float64{0.5}}, nil)
	s.OnStep(sim.State{Q: []float64{0.5}, V: []float64{2}}, nil)
	s.OnStep(sim.State{Q: []float64{math.NaN()}, V: []float64{0}}, nil)
	s.OnStep(sim.State{Q: []float64{-1}, V: []float64{1}}, nil)
	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
	s.Reset()
	if s.Value() != 1 {
		t.Error("expected 1 after reset")
	}
}

func TestControlEffortAndSummary(t *testing.T) {
	c := NewControlEffort()
	c.OnStep(sim.State{}, []float64{1, -1})
	c.OnStep(sim.State{}, []float64{2, 0})

	r := pendulum(t)
	ms := []Metric{c, NewStability(10), NewEnergy(r, r3.Vector{})}
	sum := Summary(ms)
	if math.Abs(sum["control_effort"]-math.Sqrt(1.5)) > 1e-12 {
		t.Errorf("expected effort sqrt(1.5), got %f", sum["control_effort"])
	}
	if len(sum) != 3 {
		t.Errorf("expected 3 entries, got %v", sum)
	}
	names := Names(Defaults(r, robot.StandardGravity))
	if len(names) != 4 || names[0] != "control_effort" {
		t.Errorf("unexpected defaults %v", names)
	}
}
