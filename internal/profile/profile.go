// Package profile persists and restores application state: the active
// mode, hotkey bindings, the multi-action list, the single-target
// configuration, and the recorded event log. Files are JSON objects;
// loading applies sections one at a time so a damaged section cannot
// take the rest of the file down with it.
package profile

import (
	"encoding/json"

	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/hotkey"
	"github.com/dshills/clickstorm/internal/input/record"
)

// Mode selects which replay flow the start hotkey launches.
type Mode string

// Persisted mode names.
const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
	ModeRecord Mode = "record"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSingle, ModeMulti, ModeRecord:
		return true
	}
	return false
}

// SinglePos holds the single-target configuration: where to click,
// how long to wait between repeats, and what to inject there.
type SinglePos struct {
	X       int
	Y       int
	DelayMS int
	Kind    action.Kind
	Key     string
}

type wireSingle struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	DelayMS int     `json:"delay_ms"`
	Kind    string  `json:"action_type"`
	Key     *string `json:"key_char"`
}

// MarshalJSON writes the single-target wire object. key_char is null
// unless a key action is configured.
func (s SinglePos) MarshalJSON() ([]byte, error) {
	w := wireSingle{
		X:       s.X,
		Y:       s.Y,
		DelayMS: s.DelayMS,
		Kind:    string(s.Kind),
	}
	if s.Key != "" {
		key := s.Key
		w.Key = &key
	}
	return json.Marshal(w)
}

// Profile is the application state a profile file carries.
type Profile struct {
	Mode        Mode
	StartHotkey hotkey.Binding
	StopHotkey  hotkey.Binding
	Items       []action.Action
	Single      *SinglePos
	Events      []record.Event
}

// Default returns the state a fresh install runs with: single mode,
// the stock hotkeys, and nothing configured.
func Default() *Profile {
	return &Profile{
		Mode:        ModeSingle,
		StartHotkey: hotkey.DefaultStart,
		StopHotkey:  hotkey.DefaultStop,
	}
}
