package linear

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/noise"
	"gonum.org/v1/gonum/mat"
)

func scalar(x float64) *mat.Dense { return mat.NewDense(1, 1, []float64{x}) }

func TestSolveExactSystem(t *testing.T) {
	g := NewWithT(t)
	x, y := keys.JointAngleKey(0, 0), keys.JointVelKey(0, 0)

	lg := NewGraph()
	// x = 2, x + y = 5
	lg.Add(&Factor{Keys: []keys.Key{x}, A: []*mat.Dense{scalar(1)}, B: []float64{2}})
	lg.Add(&Factor{Keys: []keys.Key{x, y}, A: []*mat.Dense{scalar(1), scalar(1)}, B: []float64{5}, Model: noise.Constrained()})

	sol, ord, err := lg.Solve()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ord.Cols()).To(Equal(2))
	g.Expect(sol[x][0]).To(BeNumerically("~", 2, 1e-9))
	g.Expect(sol[y][0]).To(BeNumerically("~", 3, 1e-9))
}

func TestSolveWeightedOverdetermined(t *testing.T) {
	g := NewWithT(t)
	x := keys.TorqueKey(0, 0)
	lg := NewGraph()
	lg.Add(&Factor{Keys: []keys.Key{x}, A: []*mat.Dense{scalar(1)}, B: []float64{0}, Model: noise.Isotropic(1)})
	lg.Add(&Factor{Keys: []keys.Key{x}, A: []*mat.Dense{scalar(1)}, B: []float64{10}, Model: noise.Isotropic(1)})

	sol, _, err := lg.Solve()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol[x][0]).To(BeNumerically("~", 5, 1e-9))
}

func TestSolveSingular(t *testing.T) {
	x, y := keys.JointAngleKey(0, 0), keys.JointAngleKey(1, 0)
	lg := NewGraph()
	// y never influences the residual
	lg.Add(&Factor{Keys: []keys.Key{x, y}, A: []*mat.Dense{scalar(1), scalar(0)}, B: []float64{1}})
	lg.Add(&Factor{Keys: []keys.Key{x}, A: []*mat.Dense{scalar(2)}, B: []float64{2}})

	if _, _, err := lg.Solve(); !errors.Is(err, ErrSingularSystem) {
		t.Errorf("expected ErrSingularSystem, got %v", err)
	}

	// damping regularizes the same system
	sol, _, err := lg.SolveDamped(1e-6)
	if err != nil {
		t.Fatalf("damped solve failed: %v", err)
	}
	if d := sol[x][0] - 1; d > 1e-5 || d < -1e-5 {
		t.Errorf("expected x near 1, got %v", sol[x][0])
	}
	if d := sol[y][0]; d > 1e-9 || d < -1e-9 {
		t.Errorf("expected y near 0, got %v", d)
	}
}

func TestUnderdetermined(t *testing.T) {
	lg := NewGraph()
	lg.Add(&Factor{
		Keys: []keys.Key{keys.TwistKey(0, 0)},
		A:    []*mat.Dense{mat.NewDense(1, 6, []float64{1, 0, 0, 0, 0, 0})},
		B:    []float64{1},
	})
	if _, _, err := lg.Solve(); !errors.Is(err, ErrSingularSystem) {
		t.Errorf("expected ErrSingularSystem, got %v", err)
	}
}

func TestDimensionMismatch(t *testing.T) {
	k := keys.TwistKey(0, 0)
	lg := NewGraph()
	lg.Add(&Factor{Keys: []keys.Key{k}, A: []*mat.Dense{mat.NewDense(1, 6, nil)}, B: []float64{0}})
	lg.Add(&Factor{Keys: []keys.Key{k}, A: []*mat.Dense{mat.NewDense(1, 3, nil)}, B: []float64{0}})
	if _, err := lg.NewOrdering(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
