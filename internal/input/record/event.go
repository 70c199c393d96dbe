// Package record captures live input sessions as replayable event
// sequences.
//
// A session is a flat list of Events, each carrying the delay since
// the previous one. On disk an event is a compact positional array
// tagged by its first element; in memory it is a tagged variant with
// one constructor per kind.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/clickstorm/internal/input"
)

// ErrMalformedEvent indicates a persisted event tuple that does not
// match any known shape.
var ErrMalformedEvent = errors.New("malformed recorded event")

// Kind identifies the variant of a recorded event.
type Kind uint8

const (
	// KindNone is the zero value; no constructor produces it.
	KindNone Kind = iota
	// KindMove is a pointer reposition.
	KindMove
	// KindClick is a button press or release.
	KindClick
	// KindScroll is a wheel movement.
	KindScroll
	// KindKey is a key press.
	KindKey
)

// wire tags, also the Kind names.
const (
	tagMove   = "move"
	tagClick  = "click"
	tagScroll = "scroll"
	tagKey    = "key"
)

// String returns the wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindMove:
		return tagMove
	case KindClick:
		return tagClick
	case KindScroll:
		return tagScroll
	case KindKey:
		return tagKey
	default:
		return "none"
	}
}

// Event is one recorded input event. Only the fields of its Kind are
// meaningful.
//
// Button holds the wire name of the button rather than a parsed
// identity so that sessions recorded by other tools round-trip
// through save and load byte for byte, whatever the name.
type Event struct {
	Kind    Kind
	X       int
	Y       int
	Button  string
	Pressed bool
	DX      int
	DY      int
	Key     string
	Delay   time.Duration
}

// NewMove returns a pointer-reposition event.
func NewMove(x, y int, delay time.Duration) Event {
	return Event{Kind: KindMove, X: x, Y: y, Delay: delay}
}

// NewClick returns a button transition event at (x, y).
func NewClick(x, y int, button input.Button, pressed bool, delay time.Duration) Event {
	return Event{Kind: KindClick, X: x, Y: y, Button: button.String(), Pressed: pressed, Delay: delay}
}

// NewScroll returns a wheel event at (x, y) with both deltas.
func NewScroll(x, y, dx, dy int, delay time.Duration) Event {
	return Event{Kind: KindScroll, X: x, Y: y, DX: dx, DY: dy, Delay: delay}
}

// NewKey returns a key press event for a normalized key name.
func NewKey(name string, delay time.Duration) Event {
	return Event{Kind: KindKey, Key: name, Delay: delay}
}

// DelayMS returns the delay as whole milliseconds, the wire form.
func (e Event) DelayMS() int64 {
	return e.Delay.Milliseconds()
}

// MarshalJSON encodes the event as its positional wire array.
func (e Event) MarshalJSON() ([]byte, error) {
	var tuple []any
	switch e.Kind {
	case KindMove:
		tuple = []any{tagMove, e.X, e.Y, e.DelayMS()}
	case KindClick:
		tuple = []any{tagClick, e.X, e.Y, e.Button, e.Pressed, e.DelayMS()}
	case KindScroll:
		tuple = []any{tagScroll, e.X, e.Y, e.DX, e.DY, e.DelayMS()}
	case KindKey:
		tuple = []any{tagKey, e.Key, e.DelayMS()}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrMalformedEvent, e.Kind)
	}
	return json.Marshal(tuple)
}

// UnmarshalJSON decodes a positional wire array, validating the tag
// and the arity and types of its fields.
func (e *Event) UnmarshalJSON(data []byte) error {
	var tuple []any
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(tuple) == 0 {
		return fmt.Errorf("%w: empty tuple", ErrMalformedEvent)
	}
	tag, ok := tuple[0].(string)
	if !ok {
		return fmt.Errorf("%w: tag is not a string", ErrMalformedEvent)
	}

	switch tag {
	case tagMove:
		if len(tuple) != 4 {
			return arityError(tag, len(tuple), 4)
		}
		x, okX := tupleInt(tuple[1])
		y, okY := tupleInt(tuple[2])
		d, okD := tupleInt(tuple[3])
		if !okX || !okY || !okD {
			return fieldError(tag)
		}
		*e = NewMove(x, y, time.Duration(d)*time.Millisecond)
	case tagClick:
		if len(tuple) != 6 {
			return arityError(tag, len(tuple), 6)
		}
		x, okX := tupleInt(tuple[1])
		y, okY := tupleInt(tuple[2])
		button, okB := tuple[3].(string)
		pressed, okP := tuple[4].(bool)
		d, okD := tupleInt(tuple[5])
		if !okX || !okY || !okB || !okP || !okD {
			return fieldError(tag)
		}
		*e = Event{Kind: KindClick, X: x, Y: y, Button: button, Pressed: pressed,
			Delay: time.Duration(d) * time.Millisecond}
	case tagScroll:
		if len(tuple) != 6 {
			return arityError(tag, len(tuple), 6)
		}
		x, okX := tupleInt(tuple[1])
		y, okY := tupleInt(tuple[2])
		dx, okDX := tupleInt(tuple[3])
		dy, okDY := tupleInt(tuple[4])
		d, okD := tupleInt(tuple[5])
		if !okX || !okY || !okDX || !okDY || !okD {
			return fieldError(tag)
		}
		*e = NewScroll(x, y, dx, dy, time.Duration(d)*time.Millisecond)
	case tagKey:
		if len(tuple) != 3 {
			return arityError(tag, len(tuple), 3)
		}
		name, okN := tuple[1].(string)
		d, okD := tupleInt(tuple[2])
		if !okN || !okD {
			return fieldError(tag)
		}
		*e = NewKey(name, time.Duration(d)*time.Millisecond)
	default:
		return fmt.Errorf("%w: unknown tag %q", ErrMalformedEvent, tag)
	}
	return nil
}

// tupleInt converts a decoded JSON number to int.
func tupleInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func arityError(tag string, got, want int) error {
	return fmt.Errorf("%w: %s tuple has %d elements, want %d", ErrMalformedEvent, tag, got, want)
}

func fieldError(tag string) error {
	return fmt.Errorf("%w: %s tuple has mistyped fields", ErrMalformedEvent, tag)
}
