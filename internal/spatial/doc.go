// Package spatial implements the rigid-body algebra the constraint graph
// is written in: rotations, poses, 6D twists and wrenches, and the adjoint
// maps that move them between frames.
//
// Conventions:
//
//   - A twist is [ω; v] and a wrench is [τ; f], angular part first.
//   - A [Pose] (R, p) maps points from its own frame into the reference
//     frame: x_ref = R·x + p.
//   - [Pose.AdjointMap] is [[R, 0], [p̂R, R]]; [Ad] of a twist ξ is
//     [[ω̂, 0], [v̂, ω̂]].
//   - Tangent-space updates are applied on the right: T ⊕ δ = T·Exp(δ).
package spatial
