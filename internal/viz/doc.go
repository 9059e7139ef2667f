// Package viz is the terminal viewer for a running session.
//
// The viewer draws the field and the robot on a Braille canvas and shows
// the robot's sensors next to it using the Bubble Tea framework:
//
//   - [Model]: the viewer, driving one session
//   - [Canvas]: Braille-based pixel canvas
//   - three built-in color themes
//
// # Key Bindings
//
//	Ctrl+T - Start teleop
//	Ctrl+O - Start autonomous
//	Esc    - Stop
//	Ctrl+G - Cycle color themes
//	Ctrl+C - Quit
//
// Every other key is forwarded to the robot's keyboard. Terminals report
// presses but not releases, so a key counts as held until it has not
// repeated for a short while.
package viz
