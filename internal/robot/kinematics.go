package robot

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/spatial"
)

// LinkPose pins one link to a world pose, overriding the fixed links as
// the root of the kinematic traversal.
type LinkPose struct {
	Name string
	Pose spatial.Pose
}

// Kinematics holds per-link COM poses in the world frame and body-frame
// twists, indexed by link id.
type Kinematics struct {
	Poses  []spatial.Pose
	Twists []spatial.Vector6
}

// ForwardKinematics walks the joint tree breadth first from the root link
// and returns every reachable link's pose and twist. Closed loops are cut
// at the first joint that reaches an already visited link.
func (r *Robot) ForwardKinematics(q, v []float64, root *LinkPose) (*Kinematics, error) {
	if err := r.CheckJointVector("angles", q); err != nil {
		return nil, err
	}
	if err := r.CheckJointVector("velocities", v); err != nil {
		return nil, err
	}

	start, startPose, err := r.rootLink(root)
	if err != nil {
		return nil, err
	}

	k := &Kinematics{
		Poses:  make([]spatial.Pose, len(r.links)),
		Twists: make([]spatial.Vector6, len(r.links)),
	}
	visited := make([]bool, len(r.links))
	visited[start] = true
	k.Poses[start] = startPose

	queue := []int{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, jid := range r.links[id].joints {
			j := r.joints[jid]
			next := j.Other(id)
			if visited[next] {
				continue
			}
			if id == j.Parent {
				k.Poses[next] = k.Poses[id].Compose(j.TransformParentChild(q[jid]))
				k.Twists[next] = j.TransformChildParent(q[jid]).Adjoint(k.Twists[id]).Add(j.Screw.Scale(v[jid]))
			} else {
				k.Poses[next] = k.Poses[id].Compose(j.TransformChildParent(q[jid]))
				k.Twists[next] = j.TransformParentChild(q[jid]).Adjoint(k.Twists[id].Sub(j.Screw.Scale(v[jid])))
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	for id, ok := range visited {
		if !ok {
			return nil, errors.Wrapf(ErrInvalidModel, "link %q is not connected to %q", r.links[id].Name, r.links[start].Name)
		}
	}
	return k, nil
}

func (r *Robot) rootLink(root *LinkPose) (int, spatial.Pose, error) {
	if root != nil {
		l, err := r.LinkByName(root.Name)
		if err != nil {
			return 0, spatial.Pose{}, err
		}
		return l.ID, root.Pose, nil
	}
	for _, l := range r.links {
		if l.Fixed {
			return l.ID, l.FixedPose, nil
		}
	}
	return 0, r.links[0].COM, nil
}
