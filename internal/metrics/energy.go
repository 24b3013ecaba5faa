package metrics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
)

// MechanicalEnergy is the kinetic energy of every moving link's body twist
// plus its potential energy in the gravity field.
func MechanicalEnergy(r *robot.Robot, kin *robot.Kinematics, gravity r3.Vector) float64 {
	var e float64
	for _, l := range r.Links() {
		if l.Fixed {
			continue
		}
		twist := kin.Twists[l.ID]
		e += 0.5 * twist.Dot(l.SpatialInertia().MulVec(twist))
		e -= l.Mass * gravity.Dot(kin.Poses[l.ID].P)
	}
	return e
}

// Energy averages the mechanical energy over observed steps.
type Energy struct {
	name        string
	robot       *robot.Robot
	gravity     r3.Vector
	samples     int
	totalEnergy float64
}

func NewEnergy(r *robot.Robot, gravity r3.Vector) *Energy {
	return &Energy{
		name:    "energy",
		robot:   r,
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(s sim.State, tau []float64) {
	kin, err := e.robot.ForwardKinematics(s.Q, s.V, nil)
	if err != nil {
		return
	}
	e.totalEnergy += MechanicalEnergy(e.robot, kin, e.gravity)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative departure from the energy of the
// first observed step.
type EnergyDrift struct {
	name          string
	robot         *robot.Robot
	gravity       r3.Vector
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(r *robot.Robot, gravity r3.Vector) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		robot:   r,
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(s sim.State, tau []float64) {
	kin, err := e.robot.ForwardKinematics(s.Q, s.V, nil)
	if err != nil {
		return
	}
	energy := MechanicalEnergy(e.robot, kin, e.gravity)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Defaults returns the metrics attached to every stored simulation.
func Defaults(r *robot.Robot, gravity r3.Vector) []Metric {
	return []Metric{
		NewEnergy(r, gravity),
		NewEnergyDrift(r, gravity),
		NewStability(10.0),
		NewControlEffort(),
	}
}
