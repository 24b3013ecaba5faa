package robot

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/spatial"
	"go.uber.org/multierr"
)

// LinkSpec describes a link in world coordinates at the zero configuration.
type LinkSpec struct {
	Name    string
	Mass    float64
	Inertia spatial.Mat3
	COM     spatial.Pose
	Fixed   bool
}

// JointSpec describes a joint by its world-frame origin and axis at the
// zero configuration.
type JointSpec struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Origin r3.Vector
	Axis   r3.Vector
}

// Builder accumulates link and joint specs and validates them as a whole.
type Builder struct {
	name   string
	links  []LinkSpec
	joints []JointSpec
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) AddLink(spec LinkSpec) *Builder {
	b.links = append(b.links, spec)
	return b
}

func (b *Builder) AddJoint(spec JointSpec) *Builder {
	b.joints = append(b.joints, spec)
	return b
}

func (b *Builder) AddRevolute(name, parent, child string, origin, axis r3.Vector) *Builder {
	return b.AddJoint(JointSpec{Name: name, Type: Revolute, Parent: parent, Child: child, Origin: origin, Axis: axis})
}

func (b *Builder) AddPrismatic(name, parent, child string, origin, axis r3.Vector) *Builder {
	return b.AddJoint(JointSpec{Name: name, Type: Prismatic, Parent: parent, Child: child, Origin: origin, Axis: axis})
}

// Build validates every spec and returns the robot, or all problems found
// combined into one error.
func (b *Builder) Build() (*Robot, error) {
	r := &Robot{
		Name:       b.name,
		linkIndex:  make(map[string]int, len(b.links)),
		jointIndex: make(map[string]int, len(b.joints)),
	}
	var errs error

	if len(b.links) == 0 {
		errs = multierr.Append(errs, errors.Wrap(ErrInvalidModel, "no links"))
	}

	for _, spec := range b.links {
		if _, dup := r.linkIndex[spec.Name]; dup {
			errs = multierr.Append(errs, errors.Wrapf(ErrInvalidModel, "duplicate link %q", spec.Name))
			continue
		}
		if spec.Mass <= 0 && !spec.Fixed {
			errs = multierr.Append(errs, errors.Wrapf(ErrInvalidModel, "link %q: mass must be positive, got %g", spec.Name, spec.Mass))
		}
		l := &Link{
			ID:      len(r.links),
			Name:    spec.Name,
			Mass:    spec.Mass,
			Inertia: spec.Inertia,
			COM:     spec.COM,
			Fixed:   spec.Fixed,
		}
		if spec.Fixed {
			l.FixedPose = spec.COM
		}
		r.linkIndex[spec.Name] = l.ID
		r.links = append(r.links, l)
	}

	for _, spec := range b.joints {
		j, err := r.newJoint(spec)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		r.jointIndex[spec.Name] = j.ID
		r.joints = append(r.joints, j)
		r.links[j.Parent].joints = append(r.links[j.Parent].joints, j.ID)
		r.links[j.Child].joints = append(r.links[j.Child].joints, j.ID)
	}

	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (r *Robot) newJoint(spec JointSpec) (*Joint, error) {
	if _, dup := r.jointIndex[spec.Name]; dup {
		return nil, errors.Wrapf(ErrInvalidModel, "duplicate joint %q", spec.Name)
	}
	parent, ok := r.linkIndex[spec.Parent]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLink, "joint %q parent %q", spec.Name, spec.Parent)
	}
	child, ok := r.linkIndex[spec.Child]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLink, "joint %q child %q", spec.Name, spec.Child)
	}
	if parent == child {
		return nil, errors.Wrapf(ErrInvalidModel, "joint %q connects link %q to itself", spec.Name, spec.Parent)
	}
	if spec.Axis.Norm() < 1e-12 {
		return nil, errors.Wrapf(ErrInvalidModel, "joint %q has a zero axis", spec.Name)
	}

	axis := spec.Axis.Normalize()
	var screwWorld spatial.Vector6
	switch spec.Type {
	case Revolute:
		screwWorld = spatial.NewVector6(axis, spec.Origin.Cross(axis))
	case Prismatic:
		screwWorld = spatial.NewVector6(r3.Vector{}, axis)
	default:
		return nil, errors.Wrapf(ErrInvalidModel, "joint %q has unknown type %d", spec.Name, spec.Type)
	}

	wTp := r.links[parent].COM
	wTc := r.links[child].COM
	return &Joint{
		ID:     len(r.joints),
		Name:   spec.Name,
		Type:   spec.Type,
		Parent: parent,
		Child:  child,
		Screw:  wTc.Inverse().Adjoint(screwWorld),
		jMi:    wTc.Inverse().Compose(wTp),
	}, nil
}
