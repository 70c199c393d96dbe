package monitor

import (
	"time"

	"github.com/dshills/clickstorm/internal/input"
)

// Kind identifies the type of a captured event.
type Kind uint8

const (
	// KindNone indicates an event the capture layer could not classify.
	KindNone Kind = iota
	// KindKeyDown is a key press.
	KindKeyDown
	// KindKeyUp is a key release.
	KindKeyUp
	// KindMouseDown is a mouse button press.
	KindMouseDown
	// KindMouseUp is a mouse button release.
	KindMouseUp
	// KindMouseMove is a pointer movement, including drags.
	KindMouseMove
	// KindWheel is a scroll wheel movement.
	KindWheel
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindKeyDown:
		return "keydown"
	case KindKeyUp:
		return "keyup"
	case KindMouseDown:
		return "mousedown"
	case KindMouseUp:
		return "mouseup"
	case KindMouseMove:
		return "mousemove"
	case KindWheel:
		return "wheel"
	default:
		return "none"
	}
}

// Event is one captured input event in normalized form.
type Event struct {
	// Kind classifies the event; the remaining fields are valid per kind.
	Kind Kind

	// X, Y is the pointer position for mouse events.
	X int
	Y int

	// Button is set for mouse button events.
	Button input.Button

	// Key is the lowercased bare key name ("a", "f9", "enter") for
	// key events.
	Key string

	// WheelDX, WheelDY are the scroll deltas for wheel events.
	WheelDX int
	WheelDY int

	// When is the capture timestamp.
	When time.Time
}

// Source produces captured events. Start may be called once per
// Start/Stop cycle; the returned channel closes when the source
// stops.
type Source interface {
	Start() (<-chan Event, error)
	Stop()
}
