package sim

import (
	"context"
	"errors"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/integrators"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
)

type countingObserver struct {
	steps []int
}

func (c *countingObserver) OnStep(s State, tau []float64) { c.steps = append(c.steps, s.Step) }

var _ = Describe("Simulator", func() {
	const (
		mass   = 1.0
		length = 2.0
		g      = 9.81
	)
	var (
		pendulum *robot.Robot
		free     *dynamics.Builder
	)

	BeforeEach(func() {
		var err error
		pendulum, err = robot.NewPendulum(mass, length)
		Expect(err).NotTo(HaveOccurred())
		free, err = dynamics.NewBuilder(dynamics.WithGravity(r3.Vector{}))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("a pendulum without gravity under constant torque", func() {
		const (
			steps = 1000
			dt    = 0.001
		)
		tau := mass * g * length / 2
		alpha := tau / (mass * length * length / 3)

		It("follows q = ½·α·t²", func() {
			s, err := New(pendulum, free, []float64{0}, []float64{0})
			Expect(err).NotTo(HaveOccurred())

			torques := make([][]float64, steps)
			for i := range torques {
				torques[i] = []float64{tau}
			}
			res, err := s.Simulate(context.Background(), torques, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Len()).To(Equal(steps))

			T := steps * dt
			final := s.State()
			Expect(final.Step).To(Equal(steps))
			Expect(final.Q[0]).To(BeNumerically("~", 0.5*alpha*T*T, 1e-6))
			Expect(final.V[0]).To(BeNumerically("~", alpha*T, 1e-6))
			for _, st := range res.States {
				Expect(st.A[0]).To(BeNumerically("~", alpha, 1e-9))
			}
		})

		It("accumulates every solved variable of every step", func() {
			s, _ := New(pendulum, free, []float64{0}, []float64{0})
			_, err := s.Simulate(context.Background(), [][]float64{{tau}, {tau}, {tau}}, dt)
			Expect(err).NotTo(HaveOccurred())
			for t := 0; t < 3; t++ {
				Expect(s.Values().Exists(keys.JointAccelKey(0, t))).To(BeTrue())
				Expect(s.Values().Exists(keys.WrenchKey(1, 0, t))).To(BeTrue())
				Expect(s.Values().Exists(keys.PoseKey(1, t))).To(BeTrue())
			}
			Expect(s.Values().Exists(keys.JointAngleKey(0, 3))).To(BeFalse())
		})
	})

	Describe("stepping", func() {
		It("uses the start-of-step velocity in the angle update", func() {
			s, _ := New(pendulum, free, []float64{0.1}, []float64{2})
			_, err := s.Step([]float64{3}, 0.1)
			Expect(err).NotTo(HaveOccurred())
			a := 3 / (mass * length * length / 3)
			st := s.State()
			Expect(st.V[0]).To(BeNumerically("~", 2+0.1*a, 1e-9))
			Expect(st.Q[0]).To(BeNumerically("~", 0.1+0.1*2+0.5*0.01*a, 1e-9))
		})

		It("honors the selected integrator", func() {
			s, _ := New(pendulum, free, []float64{0}, []float64{1}, WithIntegrator(integrators.NewEuler()))
			_, err := s.Step([]float64{3}, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State().Q[0]).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("solves forward dynamics once per step", func() {
			s, _ := New(pendulum, free, []float64{0}, []float64{0})
			Expect(s.Integrate(0.1)).To(HaveOccurred())
			_, err := s.ForwardDynamics([]float64{1})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.ForwardDynamics([]float64{1})
			Expect(err).To(HaveOccurred())
			Expect(s.Integrate(0.1)).To(Succeed())
			Expect(s.Time()).To(Equal(1))
		})

		It("balances gravity at the horizontal", func() {
			b, err := dynamics.NewBuilder(dynamics.WithGravity(robot.StandardGravity))
			Expect(err).NotTo(HaveOccurred())
			s, _ := New(pendulum, b, []float64{0}, []float64{0})
			_, err = s.Step([]float64{mass * g * length / 2}, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State().Q[0]).To(BeNumerically("~", 0, 1e-9))
		})

		It("rejects mismatched vectors", func() {
			_, err := New(pendulum, free, []float64{0, 0}, []float64{0})
			Expect(errors.Is(err, robot.ErrDimensionMismatch)).To(BeTrue())

			s, _ := New(pendulum, free, []float64{0}, []float64{0})
			_, err = s.Step([]float64{1, 2}, 0.1)
			var simErr *SimError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(0))
			Expect(errors.Is(err, robot.ErrDimensionMismatch)).To(BeTrue())
		})
	})

	Describe("Reset", func() {
		It("restores the initial state at the requested time index", func() {
			s, _ := New(pendulum, free, []float64{0.3}, []float64{-1})
			_, err := s.Simulate(context.Background(), [][]float64{{1}, {1}}, 0.01)
			Expect(err).NotTo(HaveOccurred())

			s.Reset(10)
			st := s.State()
			Expect(st.Step).To(Equal(10))
			Expect(st.Q).To(Equal([]float64{0.3}))
			Expect(st.V).To(Equal([]float64{-1}))
			Expect(st.A).To(Equal([]float64{0}))
			Expect(s.Result().Len()).To(BeZero())

			_, err = s.Step([]float64{1}, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Values().Exists(keys.JointAccelKey(0, 10))).To(BeTrue())
			Expect(s.Values().Exists(keys.JointAccelKey(0, 0))).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("calls the controller and observers every step", func() {
			obs := &countingObserver{}
			s, _ := New(pendulum, free, []float64{0}, []float64{0}, WithObserver(obs))
			res, err := s.Run(context.Background(), ConstantTorque{0.5}, Config{Dt: 0.01, Steps: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Torques).To(HaveLen(5))
			Expect(obs.steps).To(Equal([]int{0, 1, 2, 3, 4}))
		})

		It("stops when the context is canceled", func() {
			s, _ := New(pendulum, free, []float64{0}, []float64{0})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Run(ctx, ConstantTorque{0}, Config{Dt: 0.01, Steps: 5})
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects an invalid config", func() {
			s, _ := New(pendulum, free, []float64{0}, []float64{0})
			_, err := s.Run(context.Background(), ConstantTorque{0}, Config{Dt: 0, Steps: 5})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Ensemble", func() {
		It("matches independent runs", func() {
			initial := []InitialCondition{
				{Q: []float64{0}, V: []float64{0}},
				{Q: []float64{0.5}, V: []float64{1}},
				{Q: []float64{-1}, V: []float64{0.2}},
			}
			cfg := Config{Dt: 0.01, Steps: 20}
			b, _ := dynamics.NewBuilder(dynamics.WithGravity(robot.StandardGravity))

			results, err := NewEnsemble(pendulum, b, initial).Run(context.Background(),
				func(int) Controller { return ConstantTorque{0.2} }, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(len(initial)))

			for i, ic := range initial {
				s, _ := New(pendulum, b, ic.Q, ic.V)
				want, err := s.Run(context.Background(), ConstantTorque{0.2}, cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(results[i].Column('q', 0)).To(Equal(want.Column('q', 0)))
			}
		})
	})
})
