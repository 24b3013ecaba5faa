package dynamics

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/linear"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/spatial"
	"github.com/san-kum/dyngraph/internal/values"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func dense6(m spatial.Matrix6) *mat.Dense { return m.Dense() }

func column(v spatial.Vector6) *mat.Dense { return mat.NewDense(6, 1, v[:]) }

func eye(n int, s float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, s)
	}
	return m
}

// LinearDynamicsGraph is the dynamics of step t with angles, velocities
// and kinematics known. The remaining unknowns are twist accelerations,
// joint accelerations, wrenches and torques, and every equation is linear
// in them.
func (b *Builder) LinearDynamicsGraph(r *robot.Robot, t int, q, v []float64, kin *robot.Kinematics) (*linear.Graph, error) {
	if err := r.CheckJointVector("angles", q); err != nil {
		return nil, err
	}
	if err := r.CheckJointVector("velocities", v); err != nil {
		return nil, err
	}
	c := b.opts.Costs
	g := linear.NewGraph()

	for _, l := range r.Links() {
		A := keys.TwistAccelKey(l.ID, t)
		if l.Fixed {
			g.Add(&linear.Factor{Keys: []keys.Key{A}, A: []*mat.Dense{eye(6, 1)}, B: make([]float64, 6), Model: c.FixedAccel})
			continue
		}
		G := l.SpatialInertia()
		rhs := factor.BiasWrench(G, kin.Twists[l.ID]).Add(factor.GravityWrench(l.Mass, kin.Poses[l.ID].R, b.opts.Gravity))
		ks := []keys.Key{A}
		blocks := []*mat.Dense{dense6(G)}
		for _, jid := range l.Joints() {
			ks = append(ks, keys.WrenchKey(l.ID, jid, t))
			blocks = append(blocks, eye(6, -1))
		}
		g.Add(&linear.Factor{Keys: ks, A: blocks, B: rhs[:], Model: c.Dynamics})
	}

	for _, j := range r.Joints() {
		T := j.TransformChildParent(q[j.ID])
		S := j.Screw
		negS := S.Scale(-1)
		bias := spatial.Ad(kin.Twists[j.Child]).MulVec(S.Scale(v[j.ID]))
		parentWrench := keys.WrenchKey(j.Parent, j.ID, t)
		childWrench := keys.WrenchKey(j.Child, j.ID, t)

		g.Add(
			&linear.Factor{
				Keys:  []keys.Key{keys.TwistAccelKey(j.Child, t), keys.TwistAccelKey(j.Parent, t), keys.JointAccelKey(j.ID, t)},
				A:     []*mat.Dense{eye(6, 1), dense6(T.AdjointMap().Scale(-1)), column(negS)},
				B:     bias[:],
				Model: c.Accel,
			},
			&linear.Factor{
				Keys:  []keys.Key{childWrench, keys.TorqueKey(j.ID, t)},
				A:     []*mat.Dense{mat.NewDense(1, 6, S[:]), eye(1, -1)},
				B:     []float64{0},
				Model: c.Torque,
			},
			&linear.Factor{
				Keys:  []keys.Key{parentWrench, childWrench},
				A:     []*mat.Dense{eye(6, 1), dense6(T.AdjointMap().T())},
				B:     make([]float64, 6),
				Model: c.WrenchEquivalence,
			},
		)
		if b.opts.PlanarAxis != nil && c.Planar != nil {
			H := mat.NewDense(3, 6, nil)
			for i, col := range b.planarRow {
				H.Set(i, col, 1)
			}
			g.Add(&linear.Factor{Keys: []keys.Key{childWrench}, A: []*mat.Dense{H}, B: make([]float64, 3), Model: c.Planar})
		}
	}
	return g, nil
}

// LinearFDPriors fixes every joint torque at step t.
func (b *Builder) LinearFDPriors(r *robot.Robot, t int, torques []float64) (*linear.Graph, error) {
	if err := r.CheckJointVector("torques", torques); err != nil {
		return nil, err
	}
	model := b.opts.Costs.PriorTorque
	if model == nil {
		model = b.opts.Costs.Torque
	}
	g := linear.NewGraph()
	for _, j := range r.Joints() {
		g.Add(&linear.Factor{
			Keys:  []keys.Key{keys.TorqueKey(j.ID, t)},
			A:     []*mat.Dense{eye(1, 1)},
			B:     []float64{torques[j.ID]},
			Model: model,
		})
	}
	return g, nil
}

// LinearSolveFD solves forward dynamics at step t in one direct solve.
// The result holds angles, velocities, accelerations, torques and both
// wrenches of every joint, plus pose, twist and twist acceleration of
// every link.
func (b *Builder) LinearSolveFD(r *robot.Robot, t int, q, v, torques []float64, kin *robot.Kinematics) (*values.Values, error) {
	g, err := b.LinearDynamicsGraph(r, t, q, v, kin)
	if err != nil {
		return nil, err
	}
	priors, err := b.LinearFDPriors(r, t, torques)
	if err != nil {
		return nil, err
	}
	g.Add(priors.Factors()...)

	sol, ord, err := g.Solve()
	if err != nil {
		return nil, errors.Wrapf(err, "forward dynamics at t=%d", t)
	}
	b.opts.Logger.Debug("solved linear forward dynamics",
		zap.Int("t", t), zap.Int("equations", g.Rows()), zap.Int("unknowns", ord.Cols()))

	out := values.New()
	for _, l := range r.Links() {
		values.Set(out, keys.PoseKey(l.ID, t), kin.Poses[l.ID])
		values.Set(out, keys.TwistKey(l.ID, t), kin.Twists[l.ID])
		values.Set(out, keys.TwistAccelKey(l.ID, t), toVector6(sol[keys.TwistAccelKey(l.ID, t)]))
	}
	for _, j := range r.Joints() {
		values.Set(out, keys.JointAngleKey(j.ID, t), q[j.ID])
		values.Set(out, keys.JointVelKey(j.ID, t), v[j.ID])
		values.Set(out, keys.JointAccelKey(j.ID, t), sol[keys.JointAccelKey(j.ID, t)][0])
		values.Set(out, keys.TorqueKey(j.ID, t), sol[keys.TorqueKey(j.ID, t)][0])
		for _, link := range []int{j.Parent, j.Child} {
			k := keys.WrenchKey(link, j.ID, t)
			values.Set(out, k, toVector6(sol[k]))
		}
	}
	return out, nil
}

func toVector6(x []float64) spatial.Vector6 {
	var v spatial.Vector6
	copy(v[:], x)
	return v
}
