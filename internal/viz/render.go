package viz

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/dyngraph/internal/robot"
)

// Anchors returns each joint's world position: the point on a revolute axis
// nearest the child COM, or the child COM itself for a prismatic joint.
func Anchors(r *robot.Robot, kin *robot.Kinematics) []r3.Vector {
	out := make([]r3.Vector, r.NumJoints())
	for _, j := range r.Joints() {
		wTc := kin.Poses[j.Child]
		w, v := j.Screw.Angular(), j.Screw.Linear()
		n2 := w.Norm2()
		if n2 < 1e-12 {
			out[j.ID] = wTc.P
			continue
		}
		out[j.ID] = wTc.TransformFrom(w.Cross(v).Mul(1 / n2))
	}
	return out
}

// Reach bounds the distance from the origin of any drawn point at the
// robot's nominal configuration.
func Reach(r *robot.Robot) float64 {
	zero := make([]float64, r.NumJoints())
	kin, err := r.ForwardKinematics(zero, zero, nil)
	if err != nil {
		return 1
	}
	anchors := Anchors(r, kin)
	reach := 0.0
	for _, l := range r.Links() {
		c := kin.Poses[l.ID].P
		for _, j := range l.Joints() {
			reach = math.Max(reach, c.Norm()+c.Sub(anchors[j]).Norm())
		}
	}
	if reach == 0 {
		return 1
	}
	return reach
}

// DrawRobot renders every moving link as rods through its joint anchors.
// A link with a single joint is drawn as a uniform rod from the anchor
// through its COM; a link whose COM sits on its only anchor is a block.
func DrawRobot(c *Canvas, vp Viewport, r *robot.Robot, kin *robot.Kinematics) {
	anchors := Anchors(r, kin)
	for _, l := range r.Links() {
		com := kin.Poses[l.ID].P
		if l.Fixed {
			continue
		}
		js := l.Joints()
		switch {
		case len(js) == 0:
			x, y := vp.Project(c, com.X, com.Y)
			c.DrawDot(x, y, 1)
		case len(js) == 1:
			a := anchors[js[0]]
			if com.Sub(a).Norm() < 1e-9 {
				x, y := vp.Project(c, com.X, com.Y)
				c.DrawDot(x, y, 2)
				continue
			}
			end := com.Mul(2).Sub(a)
			vp.Line(c, a.X, a.Y, end.X, end.Y)
		default:
			for _, j := range js {
				a := anchors[j]
				vp.Line(c, a.X, a.Y, com.X, com.Y)
			}
		}
	}
	for _, a := range anchors {
		x, y := vp.Project(c, a.X, a.Y)
		c.DrawDot(x, y, 1)
	}
}
