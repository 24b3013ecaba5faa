package dynamics

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
)

type Scheme int

const (
	Euler Scheme = iota
	RungeKutta
	Trapezoidal
	HermiteSimpson
)

var schemeNames = map[Scheme]string{
	Euler:          "euler",
	RungeKutta:     "runge_kutta",
	Trapezoidal:    "trapezoidal",
	HermiteSimpson: "hermite_simpson",
}

func (s Scheme) String() string {
	if n, ok := schemeNames[s]; ok {
		return n
	}
	return "unknown"
}

func ParseScheme(name string) (Scheme, error) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownScheme, "%q", name)
}

// stepTerms builds the "Δt·x" term either with a fixed Δt or with the
// phase duration variable.
type stepTerms func(coeff float64, x keys.Key) factor.Term

func fixedStep(dt float64) stepTerms {
	return func(coeff float64, x keys.Key) factor.Term { return factor.Linear(coeff*dt, x) }
}

func phaseStep(phase int) stepTerms {
	dt := keys.PhaseKey(phase)
	return func(coeff float64, x keys.Key) factor.Term { return factor.Bilinear(coeff, dt, x) }
}

// Collocation ties angles and velocities at t and t+1 with a fixed step dt.
func (b *Builder) Collocation(r *robot.Robot, t int, dt float64, scheme Scheme) (*factor.Graph, error) {
	return b.collocation(r, t, scheme, fixedStep(dt))
}

// MultiPhaseCollocation is Collocation with the step duration taken from
// the PhaseDuration variable of phase. The Δt products are bilinear.
func (b *Builder) MultiPhaseCollocation(r *robot.Robot, t, phase int, scheme Scheme) (*factor.Graph, error) {
	return b.collocation(r, t, scheme, phaseStep(phase))
}

func (b *Builder) collocation(r *robot.Robot, t int, scheme Scheme, dt stepTerms) (*factor.Graph, error) {
	c := b.opts.Costs
	g := factor.NewGraph()
	for _, j := range r.Joints() {
		q0, q1 := keys.JointAngleKey(j.ID, t), keys.JointAngleKey(j.ID, t+1)
		v0, v1 := keys.JointVelKey(j.ID, t), keys.JointVelKey(j.ID, t+1)
		a0, a1 := keys.JointAccelKey(j.ID, t), keys.JointAccelKey(j.ID, t+1)

		var qTerms, vTerms []factor.Term
		switch scheme {
		case Euler:
			qTerms = []factor.Term{factor.Linear(1, q0), dt(1, v0), factor.Linear(-1, q1)}
			vTerms = []factor.Term{factor.Linear(1, v0), dt(1, a0), factor.Linear(-1, v1)}
		case Trapezoidal:
			qTerms = []factor.Term{factor.Linear(1, q0), dt(0.5, v0), dt(0.5, v1), factor.Linear(-1, q1)}
			vTerms = []factor.Term{factor.Linear(1, v0), dt(0.5, a0), dt(0.5, a1), factor.Linear(-1, v1)}
		case RungeKutta, HermiteSimpson:
			return nil, errors.Wrapf(ErrSchemeNotImplemented, "%s", scheme)
		default:
			return nil, errors.Wrapf(ErrUnknownScheme, "%d", int(scheme))
		}

		qf, err := factor.NewProductFactor("collocation_q", c.CollocationQ, qTerms...)
		if err != nil {
			return nil, &BuildError{Entity: "joint", Name: j.Name, Time: t, Wrapped: err}
		}
		vf, err := factor.NewProductFactor("collocation_v", c.CollocationV, vTerms...)
		if err != nil {
			return nil, &BuildError{Entity: "joint", Name: j.Name, Time: t, Wrapped: err}
		}
		g.Add(qf, vf)
	}
	return g, nil
}
