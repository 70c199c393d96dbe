// Package config loads runtime settings from a TOML file, overlays
// environment variables, and watches the file for edits so the
// application can reload without a restart. Settings cover logging,
// hotkey bindings, replay stop behavior, monitor buffering, and the
// profile location; everything has a usable default, so no file is
// required.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/clickstorm/internal/input/hotkey"
	"github.com/dshills/clickstorm/internal/input/monitor"
)

// Settings is the full runtime configuration.
type Settings struct {
	LogLevel string          `toml:"log_level"`
	Debug    bool            `toml:"debug"`
	Hotkeys  HotkeySettings  `toml:"hotkeys"`
	Replay   ReplaySettings  `toml:"replay"`
	Monitor  MonitorSettings `toml:"monitor"`
	Profile  ProfileSettings `toml:"profile"`
}

// HotkeySettings holds the raw binding strings. They are normalized
// on access, so "F6" and "<f6>" configure the same key.
type HotkeySettings struct {
	Start string `toml:"start"`
	Stop  string `toml:"stop"`
}

// ReplaySettings tunes the replay controller.
type ReplaySettings struct {
	StopTimeoutMS int `toml:"stop_timeout_ms"`
}

// MonitorSettings tunes the capture service.
type MonitorSettings struct {
	Buffer int `toml:"buffer"`
}

// ProfileSettings points at the persisted profile.
type ProfileSettings struct {
	Path string `toml:"path"`
}

const defaultStopTimeoutMS = 500

// Default returns the settings used when no file or environment
// overrides are present.
func Default() *Settings {
	return &Settings{
		LogLevel: "info",
		Hotkeys: HotkeySettings{
			Start: string(hotkey.DefaultStart),
			Stop:  string(hotkey.DefaultStop),
		},
		Replay:  ReplaySettings{StopTimeoutMS: defaultStopTimeoutMS},
		Monitor: MonitorSettings{Buffer: monitor.DefaultBuffer},
		Profile: ProfileSettings{Path: DefaultProfilePath()},
	}
}

// StartBinding returns the normalized start hotkey, falling back to
// the stock binding when the configured value is blank.
func (s *Settings) StartBinding() hotkey.Binding {
	return hotkey.Normalize(s.Hotkeys.Start).Or(hotkey.DefaultStart)
}

// StopBinding returns the normalized stop hotkey.
func (s *Settings) StopBinding() hotkey.Binding {
	return hotkey.Normalize(s.Hotkeys.Stop).Or(hotkey.DefaultStop)
}

// StopTimeout returns the replay stop bound as a duration.
func (s *Settings) StopTimeout() time.Duration {
	ms := s.Replay.StopTimeoutMS
	if ms <= 0 {
		ms = defaultStopTimeoutMS
	}
	return time.Duration(ms) * time.Millisecond
}

// MonitorBuffer returns the capture fanout buffer size.
func (s *Settings) MonitorBuffer() int {
	if s.Monitor.Buffer <= 0 {
		return monitor.DefaultBuffer
	}
	return s.Monitor.Buffer
}

// DefaultPath returns the standard location of the settings file.
func DefaultPath() string {
	return inConfigDir("config.toml")
}

// DefaultProfilePath returns the standard location of the profile.
func DefaultProfilePath() string {
	return inConfigDir("profile.json")
}

func inConfigDir(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "clickstorm", name)
}
