package dynamics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/noise"
	"go.uber.org/zap"
)

// CostModels holds one noise model per constraint category. A nil entry
// for Planar, the priors or Time disables that category; nil entries for
// the structural categories fall back to hard constraints.
type CostModels struct {
	Pose              *noise.Model
	Twist             *noise.Model
	Accel             *noise.Model
	Dynamics          *noise.Model
	WrenchEquivalence *noise.Model
	Torque            *noise.Model
	Planar            *noise.Model
	FixedPose         *noise.Model
	FixedTwist        *noise.Model
	FixedAccel        *noise.Model
	CollocationQ      *noise.Model
	CollocationV      *noise.Model
	PriorQ            *noise.Model
	PriorV            *noise.Model
	PriorTorque       *noise.Model
	Time              *noise.Model
}

func DefaultCostModels() CostModels {
	c := noise.Constrained()
	return CostModels{
		Pose:              c,
		Twist:             c,
		Accel:             c,
		Dynamics:          c,
		WrenchEquivalence: c,
		Torque:            c,
		Planar:            c,
		FixedPose:         c,
		FixedTwist:        c,
		FixedAccel:        c,
		CollocationQ:      c,
		CollocationV:      c,
		PriorQ:            c,
		PriorV:            c,
		PriorTorque:       c,
		Time:              c,
	}
}

func (c *CostModels) fillRequired() {
	for _, m := range []**noise.Model{
		&c.Pose, &c.Twist, &c.Accel, &c.Dynamics, &c.WrenchEquivalence, &c.Torque,
		&c.FixedPose, &c.FixedTwist, &c.FixedAccel, &c.CollocationQ, &c.CollocationV,
	} {
		if *m == nil {
			*m = noise.Constrained()
		}
	}
}

type Options struct {
	Gravity    r3.Vector
	PlanarAxis *r3.Vector
	Costs      CostModels
	Logger     *zap.Logger
}

type Option func(*Options)

func WithGravity(g r3.Vector) Option {
	return func(o *Options) { o.Gravity = g }
}

// WithPlanarAxis restricts every joint wrench to the plane normal to axis.
func WithPlanarAxis(axis r3.Vector) Option {
	return func(o *Options) { o.PlanarAxis = &axis }
}

func WithCosts(c CostModels) Option {
	return func(o *Options) { o.Costs = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

type Builder struct {
	opts      Options
	planarRow [3]int
}

func NewBuilder(opts ...Option) (*Builder, error) {
	o := Options{Costs: DefaultCostModels(), Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.Costs.fillRequired()
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	b := &Builder{opts: o}
	if o.PlanarAxis != nil {
		rows, err := factor.PlanarRows(*o.PlanarAxis)
		if err != nil {
			return nil, errors.Wrap(err, "dynamics")
		}
		b.planarRow = rows
	}
	return b, nil
}

func (b *Builder) Options() Options  { return b.opts }
func (b *Builder) Costs() CostModels { return b.opts.Costs }
