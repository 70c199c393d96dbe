// Package input provides the primitive types shared by the input
// subsystem: screen coordinates and mouse button identities.
//
// The subpackages build the engine on top of these primitives:
//
//   - action: configured click and key actions for replay
//   - hotkey: hotkey normalization and global hotkey binding
//   - monitor: OS-level input capture with subscription fan-out
//   - record: recorded input sessions
//   - replay: replay strategies and the run controller
//   - driver: synthetic input injection
package input
