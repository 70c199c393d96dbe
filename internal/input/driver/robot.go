package driver

import (
	"github.com/go-vgo/robotgo"

	"github.com/dshills/clickstorm/internal/input"
)

// Robot injects input through robotgo.
type Robot struct{}

// NewRobot returns the robotgo-backed driver.
func NewRobot() Robot {
	return Robot{}
}

// robotButton maps a Button to robotgo's button name. robotgo calls
// the middle button "center"; unknown buttons fall back to left so
// injection stays best-effort.
func robotButton(b input.Button) string {
	switch b {
	case input.ButtonRight:
		return "right"
	case input.ButtonMiddle:
		return "center"
	default:
		return "left"
	}
}

// MoveTo repositions the pointer.
func (Robot) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Click repositions the pointer and clicks.
func (Robot) Click(x, y int, button input.Button, double bool) error {
	robotgo.Move(x, y)
	robotgo.Click(robotButton(button), double)
	return nil
}

// Press repositions the pointer and holds the button down.
func (Robot) Press(x, y int, button input.Button) error {
	robotgo.Move(x, y)
	return robotgo.Toggle(robotButton(button), "down")
}

// Release repositions the pointer and releases the button.
func (Robot) Release(x, y int, button input.Button) error {
	robotgo.Move(x, y)
	return robotgo.Toggle(robotButton(button), "up")
}

// Scroll repositions the pointer and scrolls vertically.
func (Robot) Scroll(x, y, dy int) error {
	robotgo.Move(x, y)
	robotgo.Scroll(0, dy)
	return nil
}

// Tap presses and releases the named key.
func (Robot) Tap(key string) error {
	return robotgo.KeyTap(key)
}

// Location returns the current pointer position.
func (Robot) Location() (input.Point, error) {
	x, y := robotgo.Location()
	return input.Point{X: x, Y: y}, nil
}
