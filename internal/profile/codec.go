package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/hotkey"
	"github.com/dshills/clickstorm/internal/input/record"
)

// ErrMalformedProfile marks structural problems in a persisted
// profile file.
var ErrMalformedProfile = errors.New("malformed profile")

// MalformedError reports which section of a profile file failed
// structural validation, and for list sections which element. Sections
// applied before the failure remain applied.
type MalformedError struct {
	Section string
	Index   int
	Err     error
}

// Error implements error.
func (e *MalformedError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed profile: %s[%d]: %v", e.Section, e.Index, e.Err)
	}
	return fmt.Sprintf("malformed profile: %s: %v", e.Section, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedError) Unwrap() error { return e.Err }

// Is matches ErrMalformedProfile.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformedProfile }

func malformed(section string, err error) error {
	return &MalformedError{Section: section, Index: -1, Err: err}
}

func malformedAt(section string, index int, err error) error {
	return &MalformedError{Section: section, Index: index, Err: err}
}

// Save writes p to path, creating parent directories as needed. The
// write replaces only the sections Save owns; unrelated keys already
// present in the file survive. The file lands via a temp file rename
// so readers never see a partial write.
func Save(path string, p *Profile) error {
	base := []byte("{}")
	if data, err := os.ReadFile(path); err == nil && gjson.ValidBytes(data) {
		if gjson.ParseBytes(data).IsObject() {
			base = data
		}
	}

	var err error
	if base, err = sjson.SetBytes(base, "mode", string(p.Mode)); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if base, err = sjson.SetBytes(base, "start_hotkey", string(p.StartHotkey)); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if base, err = sjson.SetBytes(base, "stop_hotkey", string(p.StopHotkey)); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if p.Single != nil {
		raw, err := json.Marshal(p.Single)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		if base, err = sjson.SetRawBytes(base, "single", raw); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
	} else if base, err = sjson.DeleteBytes(base, "single"); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	items := p.Items
	if items == nil {
		items = []action.Action{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if base, err = sjson.SetRawBytes(base, "items", raw); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	events := p.Events
	if events == nil {
		events = []record.Event{}
	}
	if raw, err = json.Marshal(events); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if base, err = sjson.SetRawBytes(base, "recorded_events", raw); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	out := pretty.Pretty(base)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Load reads path and applies its sections onto p in file order:
// mode, hotkeys, single, items, recorded events. Missing sections
// keep p's current values, so loading over Default() yields a usable
// profile from any subset. A missing file is not an error and leaves
// p untouched.
//
// A malformed single section is skipped silently. Everything else
// structural, including any bad element in items or recorded_events,
// stops the load with a MalformedError; sections already applied stay
// applied.
func Load(path string, p *Profile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read profile: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return malformed("file", errors.New("invalid json"))
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return malformed("file", errors.New("not an object"))
	}

	if v := root.Get("mode"); v.Exists() {
		if v.Type != gjson.String {
			return malformed("mode", errors.New("not a string"))
		}
		m := Mode(v.String())
		if !m.Valid() {
			return malformed("mode", fmt.Errorf("unknown mode %q", v.String()))
		}
		p.Mode = m
	}

	if err := loadHotkey(root, "start_hotkey", &p.StartHotkey); err != nil {
		return err
	}
	if err := loadHotkey(root, "stop_hotkey", &p.StopHotkey); err != nil {
		return err
	}

	if v := root.Get("single"); v.Exists() {
		if s, ok := parseSingle(v); ok {
			p.Single = s
		}
	}

	if v := root.Get("items"); v.Exists() {
		if !v.IsArray() {
			return malformed("items", errors.New("not an array"))
		}
		elems := v.Array()
		items := make([]action.Action, 0, len(elems))
		for i, el := range elems {
			var act action.Action
			if err := json.Unmarshal([]byte(el.Raw), &act); err != nil {
				return malformedAt("items", i, err)
			}
			items = append(items, act)
		}
		p.Items = items
	}

	if v := root.Get("recorded_events"); v.Exists() {
		if !v.IsArray() {
			return malformed("recorded_events", errors.New("not an array"))
		}
		elems := v.Array()
		events := make([]record.Event, 0, len(elems))
		for i, el := range elems {
			var ev record.Event
			if err := json.Unmarshal([]byte(el.Raw), &ev); err != nil {
				return malformedAt("recorded_events", i, err)
			}
			events = append(events, ev)
		}
		p.Events = events
	}

	return nil
}

func loadHotkey(root gjson.Result, key string, dst *hotkey.Binding) error {
	v := root.Get(key)
	if !v.Exists() {
		return nil
	}
	if v.Type != gjson.String {
		return malformed(key, errors.New("not a string"))
	}
	if b := hotkey.Normalize(v.String()); !b.IsZero() {
		*dst = b
	}
	return nil
}

// parseSingle accepts only a well-formed single section; anything
// else reports !ok so the caller keeps the prior value.
func parseSingle(v gjson.Result) (*SinglePos, bool) {
	if !v.IsObject() {
		return nil, false
	}
	x := v.Get("x")
	y := v.Get("y")
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return nil, false
	}

	s := &SinglePos{
		X:       int(x.Int()),
		Y:       int(y.Int()),
		DelayMS: action.DefaultDelayMS,
		Kind:    action.KindLeft,
	}
	if d := v.Get("delay_ms"); d.Type == gjson.Number {
		s.DelayMS = int(d.Int())
	}
	if k := v.Get("action_type"); k.Type == gjson.String {
		s.Kind = action.Kind(k.String())
	}
	if k := v.Get("key_char"); k.Type == gjson.String {
		s.Key = k.String()
	}
	return s, true
}
