// Package analysis characterizes stored joint trajectories:
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of one
//     joint series, computed with gonum's FFT
//   - [NewPhasePortrait]: angle against velocity for one joint, rendered
//     as text by [PhasePortrait.ASCII]
//
// A swinging pendulum run yields its period directly:
//
//	q, _ := run.Series("q", 0)
//	f, _ := analysis.DominantFrequency(q, meta.Dt)
//	period := 1 / f
package analysis
