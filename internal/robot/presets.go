package robot

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/spatial"
)

// StandardGravity points along -y; every preset moves in the xy plane.
var StandardGravity = r3.Vector{Y: -9.81}

var ground = LinkSpec{
	Name:    "ground",
	Mass:    1,
	Inertia: spatial.Identity3(),
	COM:     spatial.IdentityPose(),
	Fixed:   true,
}

// rod returns a thin uniform rod of the given mass and length centered at
// com and lying along dir.
func rod(name string, mass, length float64, com r3.Vector, dir r3.Vector) LinkSpec {
	I := mass * length * length / 12
	inertia := spatial.InertiaDiag(r3.Vector{X: I, Y: I, Z: I})
	d := dir.Normalize()
	// no inertia about the rod's own axis
	inertia = inertia.Add(spatial.Mat3{
		d.X * d.X, d.X * d.Y, d.X * d.Z,
		d.Y * d.X, d.Y * d.Y, d.Y * d.Z,
		d.Z * d.X, d.Z * d.Y, d.Z * d.Z,
	}.Scale(-I))
	return LinkSpec{Name: name, Mass: mass, Inertia: inertia, COM: spatial.Translation(com)}
}

var zAxis = r3.Vector{Z: 1}

// NewPendulum builds a fixed ground link and one rod of the given mass and
// length hinged at the origin about z, lying along +x at zero angle.
func NewPendulum(mass, length float64) (*Robot, error) {
	return NewBuilder("pendulum").
		AddLink(ground).
		AddLink(rod("link1", mass, length, r3.Vector{X: length / 2}, r3.Vector{X: 1})).
		AddRevolute("joint1", "ground", "link1", r3.Vector{}, zAxis).
		Build()
}

func NewDoublePendulum(m1, l1, m2, l2 float64) (*Robot, error) {
	return NewBuilder("double_pendulum").
		AddLink(ground).
		AddLink(rod("link1", m1, l1, r3.Vector{X: l1 / 2}, r3.Vector{X: 1})).
		AddLink(rod("link2", m2, l2, r3.Vector{X: l1 + l2/2}, r3.Vector{X: 1})).
		AddRevolute("joint1", "ground", "link1", r3.Vector{}, zAxis).
		AddRevolute("joint2", "link1", "link2", r3.Vector{X: l1}, zAxis).
		Build()
}

// NewFourBar builds a unit-square planar four-bar linkage, a single closed
// loop through the ground link.
func NewFourBar(mass float64) (*Robot, error) {
	return NewBuilder("four_bar").
		AddLink(ground).
		AddLink(rod("crank", mass, 1, r3.Vector{Y: 0.5}, r3.Vector{Y: 1})).
		AddLink(rod("coupler", mass, 1, r3.Vector{X: 0.5, Y: 1}, r3.Vector{X: 1})).
		AddLink(rod("rocker", mass, 1, r3.Vector{X: 1, Y: 0.5}, r3.Vector{Y: 1})).
		AddRevolute("j0", "ground", "crank", r3.Vector{}, zAxis).
		AddRevolute("j1", "crank", "coupler", r3.Vector{Y: 1}, zAxis).
		AddRevolute("j2", "coupler", "rocker", r3.Vector{X: 1, Y: 1}, zAxis).
		AddRevolute("j3", "ground", "rocker", r3.Vector{X: 1}, zAxis).
		Build()
}

// NewCartPole builds a cart sliding along x with an upright pole hinged on it.
func NewCartPole(cartMass, poleMass, poleLength float64) (*Robot, error) {
	cart := LinkSpec{
		Name:    "cart",
		Mass:    cartMass,
		Inertia: spatial.InertiaDiag(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}),
		COM:     spatial.IdentityPose(),
	}
	return NewBuilder("cartpole").
		AddLink(ground).
		AddLink(cart).
		AddLink(rod("pole", poleMass, poleLength, r3.Vector{Y: poleLength / 2}, r3.Vector{Y: 1})).
		AddPrismatic("slider", "ground", "cart", r3.Vector{}, r3.Vector{X: 1}).
		AddRevolute("hinge", "cart", "pole", r3.Vector{}, zAxis).
		Build()
}

var presets = map[string]func() (*Robot, error){
	"pendulum":        func() (*Robot, error) { return NewPendulum(1, 1) },
	"double_pendulum": func() (*Robot, error) { return NewDoublePendulum(1, 1, 1, 1) },
	"four_bar":        func() (*Robot, error) { return NewFourBar(1) },
	"cartpole":        func() (*Robot, error) { return NewCartPole(1, 0.1, 1) },
}

// Preset builds a named robot.
func Preset(name string) (*Robot, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, errors.Errorf("unknown robot: %s", name)
	}
	return fn()
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
