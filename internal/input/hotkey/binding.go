// Package hotkey canonicalizes hotkey strings and binds them to
// callbacks on global key capture.
//
// Bindings use a compact textual form: plain single characters stay
// literal ("a", "7"), everything else is a lowercased bracketed name
// ("<f9>", "<enter>"). Normalize is idempotent, so stored and
// user-entered values can be re-normalized freely.
package hotkey

import (
	"strings"
	"unicode/utf8"
)

// Binding is a canonical hotkey string as produced by Normalize.
type Binding string

const (
	// DefaultStart is the fallback binding that starts execution.
	DefaultStart Binding = "<f9>"
	// DefaultStop is the fallback binding that stops execution.
	DefaultStop Binding = "<f10>"
)

// namedKeys maps recognized key names to their canonical form. Both
// "esc" and "escape" collapse to "esc".
var namedKeys = map[string]string{
	"enter":  "enter",
	"space":  "space",
	"esc":    "esc",
	"escape": "esc",
	"f1":     "f1",
	"f2":     "f2",
	"f3":     "f3",
	"f4":     "f4",
	"f5":     "f5",
	"f6":     "f6",
	"f7":     "f7",
	"f8":     "f8",
	"f9":     "f9",
	"f10":    "f10",
	"f11":    "f11",
	"f12":    "f12",
}

// Normalize converts a raw hotkey string to its canonical Binding.
//
// Rules, applied in order: surrounding whitespace is trimmed; an
// already-bracketed value is lowercased and kept; a recognized key
// name is bracketed; a single character stays literal; anything else
// is lowercased and bracketed as a best-effort named-key guess. The
// result is not validated against real key names; a bad name surfaces
// when binding is attempted.
//
// Normalize is pure and idempotent.
func Normalize(raw string) Binding {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return Binding(strings.ToLower(s))
	}
	lower := strings.ToLower(s)
	if name, ok := namedKeys[lower]; ok {
		return Binding("<" + name + ">")
	}
	if utf8.RuneCountInString(lower) == 1 {
		return Binding(lower)
	}
	return Binding("<" + lower + ">")
}

// String returns the binding text.
func (b Binding) String() string {
	return string(b)
}

// IsZero reports whether the binding is empty.
func (b Binding) IsZero() bool {
	return b == ""
}

// Or returns the binding, or fallback when the binding is empty.
func (b Binding) Or(fallback Binding) Binding {
	if b.IsZero() {
		return fallback
	}
	return b
}

// Key returns the bare key name: the inner text for bracketed
// bindings, the binding itself otherwise.
func (b Binding) Key() string {
	s := string(b)
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	return s
}
