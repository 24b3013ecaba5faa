package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/floats"
)

func paramsFor(t Type) Params {
	p := DefaultParams()
	p.Type = t
	p.AbsoluteErrorTol = 1e-12
	p.RelativeErrorTol = 1e-10
	if t == Dogleg {
		p.DeltaInitial = 100
	}
	return p
}

var allTypes = []Type{GaussNewton, LevenbergMarquardt, Dogleg}

func TestPriorProblem(t *testing.T) {
	goal := spatial.NewPose(spatial.RotZ(0.7).Mul(spatial.RotX(-0.3)), r3.Vector{X: 1, Y: -2, Z: 0.5})
	twist := spatial.Vector6{0.1, 0.2, 0.3, 1, 2, 3}

	g := factor.NewGraph(
		factor.NewPrior(keys.PoseKey(0, 0), goal, noise.Isotropic(0.1)),
		factor.NewPrior(keys.TwistKey(0, 0), twist, noise.Unit()),
		factor.NewPrior(keys.JointAngleKey(0, 0), 2.5, noise.Constrained()),
	)
	init := values.New()
	values.Set(init, keys.PoseKey(0, 0), spatial.IdentityPose())
	values.Set(init, keys.TwistKey(0, 0), spatial.Vector6{})
	values.Set(init, keys.JointAngleKey(0, 0), 0.0)

	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			g2 := NewWithT(t)
			res, err := Optimize(context.Background(), g, init, paramsFor(typ))
			g2.Expect(err).NotTo(HaveOccurred())
			g2.Expect(res.Converged).To(BeTrue())
			g2.Expect(res.FinalError).To(BeNumerically("<", 1e-8))
			g2.Expect(res.FinalError).To(BeNumerically("<", res.InitialError))

			g2.Expect(values.MustGet[spatial.Pose](res.Values, keys.PoseKey(0, 0)).EqualApprox(goal, 1e-6)).To(BeTrue())
			g2.Expect(values.MustGet[spatial.Vector6](res.Values, keys.TwistKey(0, 0)).EqualApprox(twist, 1e-6)).To(BeTrue())
			g2.Expect(res.Values.Double(keys.JointAngleKey(0, 0))).To(BeNumerically("~", 2.5, 1e-9))

			// the initial values are untouched
			g2.Expect(init.Double(keys.JointAngleKey(0, 0))).To(BeZero())
		})
	}
}

// Solving the nonlinear single-step graph with forward-dynamics priors
// must agree with the direct linear solve.
func TestForwardDynamicsMatchesLinearSolve(t *testing.T) {
	r, err := robot.NewDoublePendulum(1, 1, 2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dynamics.NewBuilder(dynamics.WithGravity(robot.StandardGravity))
	if err != nil {
		t.Fatal(err)
	}
	q, v, tau := []float64{0.3, -0.5}, []float64{0.7, 1.1}, []float64{0.2, -0.4}

	kin, err := r.ForwardKinematics(q, v, nil)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := b.LinearSolveFD(r, 0, q, v, tau, kin)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := dynamics.JointAccels(r, direct, 0)

	g, err := b.DynamicsGraph(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	priors, err := b.ForwardDynamicsPriors(r, 0, q, v, tau)
	if err != nil {
		t.Fatal(err)
	}
	g.Merge(priors)

	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			gt := NewWithT(t)
			res, err := Optimize(context.Background(), g, dynamics.ZeroValues(r, 0, dynamics.InitOptions{}), paramsFor(typ))
			gt.Expect(err).NotTo(HaveOccurred())
			got, err := dynamics.JointAccels(r, res.Values, 0)
			gt.Expect(err).NotTo(HaveOccurred())
			for i := range want {
				gt.Expect(got[i]).To(BeNumerically("~", want[i], 1e-6))
			}
		})
	}
}

func TestUnsupportedOptimizer(t *testing.T) {
	p := DefaultParams()
	p.Type = Type(7)
	if _, err := New(p); !errors.Is(err, ErrUnsupportedOptimizer) {
		t.Errorf("expected ErrUnsupportedOptimizer, got %v", err)
	}
	if _, err := ParseType("conjugate_gradient"); !errors.Is(err, ErrUnsupportedOptimizer) {
		t.Errorf("expected ErrUnsupportedOptimizer, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"gn", GaussNewton},
		{"Gauss-Newton", GaussNewton},
		{"lm", LevenbergMarquardt},
		{"levenberg_marquardt", LevenbergMarquardt},
		{"dogleg", Dogleg},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestValidateAggregates(t *testing.T) {
	p := Params{Type: Type(9), MaxIterations: 0}
	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrUnsupportedOptimizer) {
		t.Errorf("expected ErrUnsupportedOptimizer in %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	g := factor.NewGraph(factor.NewPrior(keys.JointAngleKey(0, 0), 1.0, noise.Unit()))
	init := values.New()
	values.Set(init, keys.JointAngleKey(0, 0), 0.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Optimize(ctx, g, init, DefaultParams()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoglegStep(t *testing.T) {
	g := NewWithT(t)
	hGN := []float64{3, 4}
	hSD := []float64{1, 0}

	g.Expect(doglegStep(hGN, hSD, 10)).To(Equal(hGN))

	short := doglegStep(hGN, hSD, 0.5)
	g.Expect(short).To(Equal([]float64{0.5, 0}))

	mid := doglegStep(hGN, hSD, 2)
	g.Expect(floats.Norm(mid, 2)).To(BeNumerically("~", 2, 1e-12))
	// on the segment from hSD to hGN
	beta := (mid[0] - 1) / 2
	g.Expect(mid[1]).To(BeNumerically("~", 4*beta, 1e-12))
}

func TestPenaltyMethod(t *testing.T) {
	g := NewWithT(t)
	x := keys.JointAngleKey(0, 0)
	graph := factor.NewGraph(
		factor.NewPrior(x, 0.0, noise.Unit()),
		factor.NewPrior(x, 1.0, noise.Constrained()),
	)
	init := values.New()
	values.Set(init, x, 0.0)

	pp := DefaultPenaltyParams()
	res, err := PenaltyMethod(context.Background(), graph, init, pp)
	g.Expect(err).NotTo(HaveOccurred())

	// minimizer of ½x² + ½mu(x−1)² at the final mu
	mu := pp.InitialMu * math.Pow(pp.MuIncrease, float64(pp.Iterations-1))
	g.Expect(res.Values.Double(x)).To(BeNumerically("~", mu/(1+mu), 1e-6))
	g.Expect(res.Iterations).To(BeNumerically(">=", pp.Iterations))

	penalized := penalize(graph, 4)
	g.Expect(penalized.At(0).Model().IsConstrained()).To(BeFalse())
	g.Expect(penalized.At(1).Model().Sigma(0)).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(factor.NameOf(penalized.At(1))).To(Equal("prior"))

	pp.MuIncrease = 1
	_, err = PenaltyMethod(context.Background(), graph, init, pp)
	g.Expect(err).To(HaveOccurred())
}
