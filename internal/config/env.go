package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is shared by every recognized environment variable.
const EnvPrefix = "CLICKSTORM_"

// applyEnv overlays recognized CLICKSTORM_* variables onto s. Values
// that fail to parse keep the file value. Empty strings count as set.
func applyEnv(s *Settings) {
	if v, ok := lookup("LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := lookup("DEBUG"); ok {
		if b, valid := parseBool(v); valid {
			s.Debug = b
		}
	}
	if v, ok := lookup("START_HOTKEY"); ok {
		s.Hotkeys.Start = v
	}
	if v, ok := lookup("STOP_HOTKEY"); ok {
		s.Hotkeys.Stop = v
	}
	if v, ok := lookup("STOP_TIMEOUT_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Replay.StopTimeoutMS = n
		}
	}
	if v, ok := lookup("MONITOR_BUFFER"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Monitor.Buffer = n
		}
	}
	if v, ok := lookup("PROFILE"); ok {
		s.Profile.Path = v
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

// parseBool accepts the spellings people actually use in shells.
func parseBool(v string) (value, valid bool) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}
