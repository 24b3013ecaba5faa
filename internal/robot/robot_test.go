package robot

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/spatial"
	"go.uber.org/multierr"
)

func TestPendulumJointGeometry(t *testing.T) {
	g := NewWithT(t)
	r, err := NewPendulum(1, 2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r.NumLinks()).To(Equal(2))
	g.Expect(r.NumJoints()).To(Equal(1))

	j := r.Joint(0)
	g.Expect(j.Screw.EqualApprox(spatial.Vector6{0, 0, 1, 0, 1, 0}, 1e-12)).To(BeTrue(), "screw %v", j.Screw)
	g.Expect(j.TransformChildParent(0).EqualApprox(spatial.Translation(r3.Vector{X: -1}), 1e-12)).To(BeTrue())
	g.Expect(r.Link(0).Joints()).To(Equal([]int{0}))
	g.Expect(r.Link(1).Joints()).To(Equal([]int{0}))
	g.Expect(r.FixedLinks()).To(Equal([]int{0}))
}

func TestTransformsAreInverse(t *testing.T) {
	g := NewWithT(t)
	r, err := NewDoublePendulum(1, 1, 2, 0.5)
	g.Expect(err).NotTo(HaveOccurred())
	for _, j := range r.Joints() {
		for _, q := range []float64{0, 0.3, -1.2} {
			cp := j.TransformChildParent(q)
			pc := j.TransformParentChild(q)
			g.Expect(cp.Compose(pc).EqualApprox(spatial.IdentityPose(), 1e-12)).To(BeTrue())
		}
	}
}

func TestForwardKinematicsPendulum(t *testing.T) {
	g := NewWithT(t)
	r, _ := NewPendulum(1, 2)

	k, err := r.ForwardKinematics([]float64{math.Pi / 2}, []float64{3}, nil)
	g.Expect(err).NotTo(HaveOccurred())
	com := k.Poses[1].P
	g.Expect(com.X).To(BeNumerically("~", 0, 1e-12))
	g.Expect(com.Y).To(BeNumerically("~", 1, 1e-12))
	g.Expect(k.Twists[0]).To(Equal(spatial.Vector6{}))
	g.Expect(k.Twists[1].EqualApprox(spatial.Vector6{0, 0, 3, 0, 3, 0}, 1e-12)).To(BeTrue())
}

func TestForwardKinematicsDoublePendulum(t *testing.T) {
	g := NewWithT(t)
	r, _ := NewDoublePendulum(1, 1, 1, 1)

	k, err := r.ForwardKinematics([]float64{math.Pi / 2, -math.Pi / 2}, []float64{0, 0}, nil)
	g.Expect(err).NotTo(HaveOccurred())
	p := k.Poses[2].P
	g.Expect(p.X).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(p.Y).To(BeNumerically("~", 1, 1e-12))
	g.Expect(k.Poses[2].R.EqualApprox(spatial.Identity3(), 1e-12)).To(BeTrue())
}

func TestForwardKinematicsFromOverrideRoot(t *testing.T) {
	g := NewWithT(t)
	r, _ := NewPendulum(1, 2)
	link := r.Link(1)

	k, err := r.ForwardKinematics([]float64{0}, []float64{0}, &LinkPose{Name: link.Name, Pose: link.COM})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(k.Poses[0].EqualApprox(spatial.IdentityPose(), 1e-12)).To(BeTrue())

	_, err = r.ForwardKinematics([]float64{0}, []float64{0}, &LinkPose{Name: "nope"})
	g.Expect(errors.Is(err, ErrUnknownLink)).To(BeTrue())
}

func TestForwardKinematicsClosedLoopAtRest(t *testing.T) {
	g := NewWithT(t)
	r, err := NewFourBar(1)
	g.Expect(err).NotTo(HaveOccurred())

	k, err := r.ForwardKinematics(make([]float64, 4), make([]float64, 4), nil)
	g.Expect(err).NotTo(HaveOccurred())
	for _, l := range r.Links() {
		g.Expect(k.Poses[l.ID].EqualApprox(l.COM, 1e-12)).To(BeTrue(), l.Name)
	}
}

func TestForwardKinematicsLengthMismatch(t *testing.T) {
	r, _ := NewDoublePendulum(1, 1, 1, 1)
	_, err := r.ForwardKinematics([]float64{0}, []float64{0, 0}, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBuildCollectsAllErrors(t *testing.T) {
	_, err := NewBuilder("broken").
		AddLink(LinkSpec{Name: "a", Mass: 1}).
		AddLink(LinkSpec{Name: "a", Mass: 1}).
		AddLink(LinkSpec{Name: "b", Mass: 0}).
		AddRevolute("j", "a", "missing", r3.Vector{}, zAxis).
		AddRevolute("k", "a", "a", r3.Vector{}, zAxis).
		AddRevolute("z", "a", "b", r3.Vector{}, r3.Vector{}).
		Build()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(multierr.Errors(err)); got != 5 {
		t.Errorf("expected 5 errors, got %d: %v", got, err)
	}
	if !errors.Is(err, ErrUnknownLink) {
		t.Errorf("expected ErrUnknownLink in %v", err)
	}
}

func TestFixReturnsCopy(t *testing.T) {
	g := NewWithT(t)
	r, _ := NewPendulum(1, 1)
	fixed, err := r.Fix("link1", spatial.IdentityPose())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(fixed.FixedLinks()).To(Equal([]int{0, 1}))
	g.Expect(r.FixedLinks()).To(Equal([]int{0}))

	free, err := fixed.Unfix("ground")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(free.FixedLinks()).To(Equal([]int{1}))
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		r, err := Preset(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(r.FixedLinks()) != 1 {
			t.Errorf("%s: expected one fixed link", name)
		}
	}
	if _, err := Preset("hexapod"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
