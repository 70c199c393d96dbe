package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/record"
)

func tempProfile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "profile.json")
}

func writeProfileFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func fullProfile() *Profile {
	keyed := action.New(3, 4)
	keyed.Kind = action.KindKey
	keyed.Key = "a"
	keyed.DelayMS = 250

	return &Profile{
		Mode:        ModeMulti,
		StartHotkey: "<f6>",
		StopHotkey:  "<f7>",
		Items:       []action.Action{action.New(1, 2), keyed},
		Single:      &SinglePos{X: 9, Y: 9, DelayMS: 100, Kind: action.KindDouble},
		Events: []record.Event{
			record.NewMove(1, 2, 50*time.Millisecond),
			record.NewClick(3, 4, input.ButtonRight, true, 10*time.Millisecond),
			record.NewScroll(5, 6, 1, -2, 0),
			record.NewKey("<enter>", 75*time.Millisecond),
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := tempProfile(t)
	want := fullProfile()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := Default()
	if err := Load(path, got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Mode != want.Mode {
		t.Errorf("Mode = %q, want %q", got.Mode, want.Mode)
	}
	if got.StartHotkey != want.StartHotkey || got.StopHotkey != want.StopHotkey {
		t.Errorf("hotkeys = %q/%q, want %q/%q",
			got.StartHotkey, got.StopHotkey, want.StartHotkey, want.StopHotkey)
	}
	if !reflect.DeepEqual(got.Items, want.Items) {
		t.Errorf("Items = %+v, want %+v", got.Items, want.Items)
	}
	if got.Single == nil || *got.Single != *want.Single {
		t.Errorf("Single = %+v, want %+v", got.Single, want.Single)
	}
	if !reflect.DeepEqual(got.Events, want.Events) {
		t.Errorf("Events = %+v, want %+v", got.Events, want.Events)
	}
}

func TestSaveIsByteStable(t *testing.T) {
	path := tempProfile(t)
	p := fullProfile()

	if err := Save(path, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := Save(path, p); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("repeated Save changed the file:\n%s\nvs\n%s", first, second)
	}
}

func TestSavePreservesUnknownKeys(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"theme":"dark","mode":"multi"}`)

	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := gjson.GetBytes(data, "theme").String(); got != "dark" {
		t.Errorf("theme = %q, want preserved %q", got, "dark")
	}
	if got := gjson.GetBytes(data, "mode").String(); got != "single" {
		t.Errorf("mode = %q, want overwritten %q", got, "single")
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	p := Default()
	if err := Load(filepath.Join(t.TempDir(), "nope.json"), p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if p.Mode != want.Mode || p.StartHotkey != want.StartHotkey || p.StopHotkey != want.StopHotkey {
		t.Errorf("profile changed by missing file: %+v", p)
	}
	if p.Items != nil || p.Single != nil || p.Events != nil {
		t.Errorf("profile gained data from missing file: %+v", p)
	}
}

func TestLoadStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		section string
	}{
		{"invalid json", `{"mode":`, "file"},
		{"root not object", `[1,2,3]`, "file"},
		{"mode not string", `{"mode":3}`, "mode"},
		{"unknown mode", `{"mode":"turbo"}`, "mode"},
		{"hotkey not string", `{"start_hotkey":9}`, "start_hotkey"},
		{"items not array", `{"items":{}}`, "items"},
		{"events not array", `{"recorded_events":"x"}`, "recorded_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tempProfile(t)
			writeProfileFile(t, path, tt.content)

			err := Load(path, Default())
			if !errors.Is(err, ErrMalformedProfile) {
				t.Fatalf("Load() error = %v, want ErrMalformedProfile", err)
			}
			var mErr *MalformedError
			if !errors.As(err, &mErr) {
				t.Fatalf("Load() error = %T, want *MalformedError", err)
			}
			if mErr.Section != tt.section {
				t.Errorf("Section = %q, want %q", mErr.Section, tt.section)
			}
		})
	}
}

func TestLoadBadItemReportsIndexAndKeepsEarlierSections(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"mode":"multi","items":[{"x":1,"y":2},{"y":3}]}`)

	p := Default()
	err := Load(path, p)
	if !errors.Is(err, ErrMalformedProfile) {
		t.Fatalf("Load() error = %v, want ErrMalformedProfile", err)
	}
	if !errors.Is(err, action.ErrMissingPosition) {
		t.Errorf("Load() error = %v, want wrapped ErrMissingPosition", err)
	}

	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("Load() error = %T, want *MalformedError", err)
	}
	if mErr.Section != "items" || mErr.Index != 1 {
		t.Errorf("failure at %s[%d], want items[1]", mErr.Section, mErr.Index)
	}

	if p.Mode != ModeMulti {
		t.Errorf("Mode = %q, want %q applied before the failure", p.Mode, ModeMulti)
	}
	if p.Items != nil {
		t.Errorf("Items = %+v, want untouched", p.Items)
	}
}

func TestLoadBadEventReportsIndex(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"recorded_events":[["move",1,2,0],["warp",1]]}`)

	err := Load(path, Default())
	if !errors.Is(err, record.ErrMalformedEvent) {
		t.Fatalf("Load() error = %v, want wrapped ErrMalformedEvent", err)
	}
	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("Load() error = %T, want *MalformedError", err)
	}
	if mErr.Section != "recorded_events" || mErr.Index != 1 {
		t.Errorf("failure at %s[%d], want recorded_events[1]", mErr.Section, mErr.Index)
	}
}

func TestLoadMalformedSingleIgnored(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"x wrong type", `{"mode":"record","single":{"x":"oops","y":2}}`},
		{"missing y", `{"mode":"record","single":{"x":1}}`},
		{"not an object", `{"mode":"record","single":[1,2]}`},
		{"null", `{"mode":"record","single":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tempProfile(t)
			writeProfileFile(t, path, tt.content)

			p := Default()
			if err := Load(path, p); err != nil {
				t.Fatalf("Load() error = %v, want nil", err)
			}
			if p.Mode != ModeRecord {
				t.Errorf("Mode = %q, want %q", p.Mode, ModeRecord)
			}
			if p.Single != nil {
				t.Errorf("Single = %+v, want nil", p.Single)
			}
		})
	}
}

func TestLoadSingleAppliesDefaults(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"single":{"x":7,"y":8}}`)

	p := Default()
	if err := Load(path, p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := SinglePos{X: 7, Y: 8, DelayMS: action.DefaultDelayMS, Kind: action.KindLeft}
	if p.Single == nil || *p.Single != want {
		t.Errorf("Single = %+v, want %+v", p.Single, want)
	}
}

func TestLoadSingleFullObject(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path,
		`{"single":{"x":1,"y":2,"delay_ms":250,"action_type":"key","key_char":"z"}}`)

	p := Default()
	if err := Load(path, p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := SinglePos{X: 1, Y: 2, DelayMS: 250, Kind: action.KindKey, Key: "z"}
	if p.Single == nil || *p.Single != want {
		t.Errorf("Single = %+v, want %+v", p.Single, want)
	}
}

func TestLoadNormalizesHotkeys(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"start_hotkey":"F6","stop_hotkey":"   "}`)

	p := Default()
	if err := Load(path, p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.StartHotkey != "<f6>" {
		t.Errorf("StartHotkey = %q, want %q", p.StartHotkey, "<f6>")
	}
	if p.StopHotkey != Default().StopHotkey {
		t.Errorf("StopHotkey = %q, want default kept for blank value", p.StopHotkey)
	}
}

func TestLoadKeepsUnmentionedSections(t *testing.T) {
	path := tempProfile(t)
	writeProfileFile(t, path, `{"mode":"record"}`)

	p := Default()
	p.Items = []action.Action{action.New(1, 2)}
	if err := Load(path, p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Mode != ModeRecord {
		t.Errorf("Mode = %q, want %q", p.Mode, ModeRecord)
	}
	if len(p.Items) != 1 {
		t.Errorf("Items = %+v, want kept", p.Items)
	}
}

func TestModeValid(t *testing.T) {
	for _, m := range []Mode{ModeSingle, ModeMulti, ModeRecord} {
		if !m.Valid() {
			t.Errorf("Valid(%q) = false", m)
		}
	}
	if Mode("turbo").Valid() {
		t.Error(`Valid("turbo") = true`)
	}
	if Mode("").Valid() {
		t.Error(`Valid("") = true`)
	}
}
