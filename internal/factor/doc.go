// Package factor defines the constraints of a dynamics graph and the
// graph that collects them.
//
// Every constraint is a [Factor]: a residual over a fixed, small set of
// variable keys together with its Jacobian blocks and a noise model. The
// residuals are:
//
//   - [PoseFactor]: Log((Tp·T_pc(q))⁻¹·Tc)
//   - [TwistFactor]: Vc − Ad(T_cp)·Vp − S·v
//   - [TwistAccelFactor]: Ac − Ad(T_cp)·Ap − S·a − ad(Vc)·S·v
//   - [WrenchFactor]: G·A − ΣF − ad(V)ᵀ·G·V − [0; m·Rᵀ·g]
//   - [WrenchEquivalenceFactor]: Fp + Ad(T_cp)ᵀ·Fc
//   - [TorqueFactor]: Sᵀ·Fc − τ
//   - [PlanarFactor]: H·Fc, selecting the out-of-plane wrench components
//   - [ProductFactor]: Σ cᵢ·Πxⱼ over scalar keys, used for collocation
//   - [Prior]: local coordinates of a variable from a fixed value
//
// A [Graph] is a flat list of factors. It linearizes into a
// [linear.Graph] for the solvers.
package factor
