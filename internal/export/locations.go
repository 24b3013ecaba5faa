package export

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
)

// StepOffset separates consecutive time steps along x in multi-step layouts.
const StepOffset = 20.0

func radial(r, i float64, n int) r3.Vector {
	theta := 2 * math.Pi / float64(n) * i
	return r3.Vector{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

func corner(r, j float64, n int) r3.Vector {
	return radial(r, j+0.5, n)
}

// Locations places every variable of step t for display. Radial layouts put
// link variables on rings around the origin with joint variables between
// them; otherwise links and joints alternate along a grid.
func Locations(r *robot.Robot, t int, radialLayout bool) map[keys.Key]r3.Vector {
	loc := make(map[keys.Key]r3.Vector)
	n := r.NumLinks()

	for _, l := range r.Links() {
		i := float64(l.ID)
		if radialLayout {
			loc[keys.PoseKey(l.ID, t)] = radial(2, i, n)
			loc[keys.TwistKey(l.ID, t)] = radial(3, i, n)
			loc[keys.TwistAccelKey(l.ID, t)] = radial(4, i, n)
			continue
		}
		loc[keys.PoseKey(l.ID, t)] = r3.Vector{X: i}
		loc[keys.TwistKey(l.ID, t)] = r3.Vector{X: i, Y: 1}
		loc[keys.TwistAccelKey(l.ID, t)] = r3.Vector{X: i, Y: 2}
	}

	for _, jt := range r.Joints() {
		j := float64(jt.ID)
		if radialLayout {
			loc[keys.JointAngleKey(jt.ID, t)] = corner(2.5, j, n)
			loc[keys.JointVelKey(jt.ID, t)] = corner(3.5, j, n)
			loc[keys.JointAccelKey(jt.ID, t)] = corner(4.5, j, n)
			loc[keys.TorqueKey(jt.ID, t)] = corner(6, j, n)
			loc[keys.WrenchKey(jt.Parent, jt.ID, t)] = corner(5.5, j-0.25, n)
			loc[keys.WrenchKey(jt.Child, jt.ID, t)] = corner(5.5, j+0.25, n)
			continue
		}
		loc[keys.JointAngleKey(jt.ID, t)] = r3.Vector{X: j + 0.5, Y: 0.5}
		loc[keys.JointVelKey(jt.ID, t)] = r3.Vector{X: j + 0.5, Y: 1.5}
		loc[keys.JointAccelKey(jt.ID, t)] = r3.Vector{X: j + 0.5, Y: 2.5}
		loc[keys.WrenchKey(jt.Parent, jt.ID, t)] = r3.Vector{X: j + 0.25, Y: 3.5}
		loc[keys.WrenchKey(jt.Child, jt.ID, t)] = r3.Vector{X: j + 0.75, Y: 3.5}
		loc[keys.TorqueKey(jt.ID, t)] = r3.Vector{X: j + 0.5, Y: 4.5}
	}
	return loc
}

// TrajectoryLocations lays out steps 0..numSteps side by side.
func TrajectoryLocations(r *robot.Robot, numSteps int, radialLayout bool) map[keys.Key]r3.Vector {
	loc := make(map[keys.Key]r3.Vector)
	for t := 0; t <= numSteps; t++ {
		offset := r3.Vector{X: StepOffset * float64(t)}
		for k, p := range Locations(r, t, radialLayout) {
			loc[k] = p.Add(offset)
		}
	}
	return loc
}
