// Package dynamics builds constraint graphs for rigid-body robots.
//
// A [Builder] carries the gravity vector, the optional planar axis, the
// per-category [CostModels] and a logger. From those it emits:
//
//   - single-step graphs: [Builder.QFactors], [Builder.VFactors],
//     [Builder.AFactors], [Builder.DynamicsFactors] and their union
//     [Builder.DynamicsGraph];
//   - the linear forward-dynamics system for known angles, velocities and
//     torques, solved directly by [Builder.LinearSolveFD];
//   - collocation constraints between consecutive steps, with a fixed step
//     ([Builder.Collocation]) or a per-phase duration variable
//     ([Builder.MultiPhaseCollocation]);
//   - whole trajectories: [Builder.TrajectoryGraph] and
//     [Builder.MultiPhaseTrajectoryGraph].
//
// Priors, objectives and initial values for the nonlinear solvers live
// alongside the builders.
//
// # Thread Safety
//
// A Builder is immutable after construction and may be shared. Each
// method returns a freshly allocated graph.
package dynamics
