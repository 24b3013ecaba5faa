// Package viz provides a terminal view of a running simulation using the
// Bubble Tea framework:
//
//   - [Model]: steps a [sim.Simulator] in real time and draws the robot on
//     a braille [Canvas] with a joint angle chart and an energy sparkline
//   - [Picker]: a menu that starts a [Model] for the chosen preset
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	+/-   - Double or halve steps per frame
//	T     - Cycle color themes
//	?     - Show help
package viz
