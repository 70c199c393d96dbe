// Package driver abstracts synthetic input injection. The replay
// engine only ever talks to the Driver interface; the robotgo-backed
// implementation is the single place OS injection happens.
package driver

import (
	"github.com/dshills/clickstorm/internal/input"
)

// Driver injects synthetic input. Implementations may fail on any
// call (unsupported key names, platform restrictions); callers decide
// whether a failure aborts or is swallowed.
type Driver interface {
	// MoveTo repositions the pointer.
	MoveTo(x, y int) error

	// Click repositions the pointer and clicks the button, twice when
	// double is set.
	Click(x, y int, button input.Button, double bool) error

	// Press repositions the pointer and holds the button down.
	Press(x, y int, button input.Button) error

	// Release repositions the pointer and releases the button.
	Release(x, y int, button input.Button) error

	// Scroll repositions the pointer and scrolls vertically by dy.
	Scroll(x, y, dy int) error

	// Tap presses and releases the named key.
	Tap(key string) error

	// Location returns the current pointer position.
	Location() (input.Point, error)
}
