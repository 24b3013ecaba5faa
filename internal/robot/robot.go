package robot

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/spatial"
)

type Link struct {
	ID      int
	Name    string
	Mass    float64
	Inertia spatial.Mat3

	// COM is the nominal world pose of the center-of-mass frame.
	COM spatial.Pose

	Fixed     bool
	FixedPose spatial.Pose

	joints []int
}

// Joints returns the ids of joints incident on the link.
func (l *Link) Joints() []int { return l.joints }

func (l *Link) SpatialInertia() spatial.Matrix6 {
	return spatial.SpatialInertia(l.Mass, l.Inertia)
}

type JointType int

const (
	Revolute JointType = iota
	Prismatic
)

func (t JointType) String() string {
	if t == Prismatic {
		return "prismatic"
	}
	return "revolute"
}

// Joint connects two links by id. It never holds the links themselves.
type Joint struct {
	ID     int
	Name   string
	Type   JointType
	Parent int
	Child  int

	// Screw is the joint axis in the child COM frame.
	Screw spatial.Vector6

	// jMi is the parent COM pose in the child COM frame at zero angle.
	jMi spatial.Pose
}

// TransformChildParent is the parent COM pose expressed in the child COM
// frame at joint coordinate q.
func (j *Joint) TransformChildParent(q float64) spatial.Pose {
	return spatial.Expmap(j.Screw.Scale(-q)).Compose(j.jMi)
}

// TransformParentChild is the child COM pose expressed in the parent COM
// frame at joint coordinate q.
func (j *Joint) TransformParentChild(q float64) spatial.Pose {
	return j.jMi.Inverse().Compose(spatial.Expmap(j.Screw.Scale(q)))
}

// ParentScrew is the joint axis expressed in the parent COM frame at q.
func (j *Joint) ParentScrew(q float64) spatial.Vector6 {
	return j.TransformParentChild(q).Adjoint(j.Screw)
}

// Other returns the link on the far side of the joint from link.
func (j *Joint) Other(link int) int {
	if link == j.Parent {
		return j.Child
	}
	return j.Parent
}

type Robot struct {
	Name   string
	links  []*Link
	joints []*Joint

	linkIndex  map[string]int
	jointIndex map[string]int
}

func (r *Robot) Links() []*Link   { return r.links }
func (r *Robot) Joints() []*Joint { return r.joints }
func (r *Robot) NumLinks() int    { return len(r.links) }
func (r *Robot) NumJoints() int   { return len(r.joints) }

func (r *Robot) Link(id int) *Link   { return r.links[id] }
func (r *Robot) Joint(id int) *Joint { return r.joints[id] }

func (r *Robot) LinkByName(name string) (*Link, error) {
	id, ok := r.linkIndex[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLink, "%q", name)
	}
	return r.links[id], nil
}

func (r *Robot) JointByName(name string) (*Joint, error) {
	id, ok := r.jointIndex[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownJoint, "%q", name)
	}
	return r.joints[id], nil
}

// JointNames returns joint names ordered by id.
func (r *Robot) JointNames() []string {
	names := make([]string, len(r.joints))
	for i, j := range r.joints {
		names[i] = j.Name
	}
	return names
}

func (r *Robot) LinkNames() []string {
	names := make([]string, len(r.links))
	for i, l := range r.links {
		names[i] = l.Name
	}
	return names
}

// FixedLinks returns the ids of links welded to the world.
func (r *Robot) FixedLinks() []int {
	var ids []int
	for _, l := range r.links {
		if l.Fixed {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// Fix returns a copy of the robot with the named link welded at pose.
// Multi-phase problems use this to describe different contact patterns.
func (r *Robot) Fix(name string, pose spatial.Pose) (*Robot, error) {
	return r.withFixed(name, true, pose)
}

// Unfix returns a copy of the robot with the named link released.
func (r *Robot) Unfix(name string) (*Robot, error) {
	return r.withFixed(name, false, spatial.Pose{})
}

func (r *Robot) withFixed(name string, fixed bool, pose spatial.Pose) (*Robot, error) {
	id, ok := r.linkIndex[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLink, "%q", name)
	}
	cp := *r
	cp.links = make([]*Link, len(r.links))
	for i, l := range r.links {
		lc := *l
		cp.links[i] = &lc
	}
	cp.links[id].Fixed = fixed
	cp.links[id].FixedPose = pose
	return &cp, nil
}

// CheckJointVector verifies x has one entry per joint.
func (r *Robot) CheckJointVector(what string, x []float64) error {
	if len(x) != len(r.joints) {
		return errors.Wrapf(ErrDimensionMismatch, "%s: got %d values for %d joints", what, len(x), len(r.joints))
	}
	return nil
}
