package input

import "fmt"

// Button identifies a mouse button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary (left) mouse button.
	ButtonLeft
	// ButtonMiddle is the middle mouse button (scroll wheel click).
	ButtonMiddle
	// ButtonRight is the secondary (right) mouse button.
	ButtonRight
)

// String returns the wire name of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// ParseButton maps a wire name to a Button. Unknown names return
// ButtonNone with an error; callers injecting input treat that as
// best-effort and fall back to the left button.
func ParseButton(s string) (Button, error) {
	switch s {
	case "left":
		return ButtonLeft, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonRight, nil
	default:
		return ButtonNone, fmt.Errorf("unknown button %q", s)
	}
}

// Point is a screen coordinate in pixels. The origin is the top-left
// corner of the primary display.
type Point struct {
	X int
	Y int
}

// String returns the point as "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Equal returns true if two points are equal.
func (p Point) Equal(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}
