// Package action defines the configured actions the replay engine
// injects: clicks at fixed coordinates and key taps, each with its own
// repeat delay.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingPosition indicates an action without x/y coordinates.
	ErrMissingPosition = errors.New("action requires x and y coordinates")

	// ErrNegativeDelay indicates a negative repeat delay.
	ErrNegativeDelay = errors.New("action delay cannot be negative")

	// ErrUnknownUnit indicates an unrecognized delay unit.
	ErrUnknownUnit = errors.New("unknown delay unit")

	// ErrUnknownKind indicates an unrecognized action kind.
	ErrUnknownKind = errors.New("unknown action kind")

	// ErrMissingKey indicates a key action without a key name.
	ErrMissingKey = errors.New("key action requires a key name")
)

// Unit selects the scale of an action's delay value.
type Unit string

const (
	// UnitMilliseconds interprets the delay value as milliseconds.
	UnitMilliseconds Unit = "ms"
	// UnitSeconds interprets the delay value as whole seconds.
	UnitSeconds Unit = "s"
)

// Kind identifies what an action injects when it fires.
type Kind string

const (
	// KindLeft is a single left click.
	KindLeft Kind = "left"
	// KindRight is a single right click.
	KindRight Kind = "right"
	// KindMiddle is a single middle click.
	KindMiddle Kind = "middle"
	// KindDouble is a double left click.
	KindDouble Kind = "double"
	// KindKey is a key tap; the Key field names the key.
	KindKey Kind = "key"
)

// DefaultDelayMS is the repeat delay applied when none is configured.
const DefaultDelayMS = 500

// Action is one configured replay step: a click or key tap at a fixed
// screen position, repeated with a delay.
//
// DelayMS is the delay magnitude interpreted in Unit units; the name
// follows the wire field, which predates the unit selector.
type Action struct {
	X       int
	Y       int
	DelayMS int
	Unit    Unit
	Kind    Kind
	Key     string
}

// New returns an action at (x, y) with the defaults: a left click
// repeated every DefaultDelayMS milliseconds.
func New(x, y int) Action {
	return Action{
		X:       x,
		Y:       y,
		DelayMS: DefaultDelayMS,
		Unit:    UnitMilliseconds,
		Kind:    KindLeft,
	}
}

// Delay returns the repeat delay as a duration.
func (a Action) Delay() time.Duration {
	if a.Unit == UnitSeconds {
		return time.Duration(a.DelayMS) * time.Second
	}
	return time.Duration(a.DelayMS) * time.Millisecond
}

// Validate checks the action for replay readiness.
func (a Action) Validate() error {
	if a.DelayMS < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDelay, a.DelayMS)
	}
	switch a.Unit {
	case UnitMilliseconds, UnitSeconds:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUnit, a.Unit)
	}
	switch a.Kind {
	case KindLeft, KindRight, KindMiddle, KindDouble:
	case KindKey:
		if a.Key == "" {
			return ErrMissingKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	return nil
}

// wireAction is the persisted object form. key_char is null when the
// action has no key.
type wireAction struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	DelayMS int     `json:"delay_ms"`
	Unit    string  `json:"unit"`
	Kind    string  `json:"action_type"`
	Key     *string `json:"key_char"`
}

// MarshalJSON encodes the action as its persisted object form.
func (a Action) MarshalJSON() ([]byte, error) {
	w := wireAction{
		X:       a.X,
		Y:       a.Y,
		DelayMS: a.DelayMS,
		Unit:    string(a.Unit),
		Kind:    string(a.Kind),
	}
	if a.Key != "" {
		k := a.Key
		w.Key = &k
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the persisted object form. Coordinates are
// required; delay, unit, kind, and key fall back to the defaults New
// applies.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w struct {
		X       *int    `json:"x"`
		Y       *int    `json:"y"`
		DelayMS *int    `json:"delay_ms"`
		Unit    *string `json:"unit"`
		Kind    *string `json:"action_type"`
		Key     *string `json:"key_char"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.X == nil || w.Y == nil {
		return ErrMissingPosition
	}

	out := New(*w.X, *w.Y)
	if w.DelayMS != nil {
		out.DelayMS = *w.DelayMS
	}
	if w.Unit != nil {
		out.Unit = Unit(*w.Unit)
	}
	if w.Kind != nil {
		out.Kind = Kind(*w.Kind)
	}
	if w.Key != nil {
		out.Key = *w.Key
	}
	*a = out
	return nil
}
