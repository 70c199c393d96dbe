package monitor

import (
	"strings"
	"sync"
	"unicode"

	hook "github.com/robotn/gohook"

	"github.com/dshills/clickstorm/internal/input"
)

// libuiohook wheel directions.
const (
	wheelVertical   = 3
	wheelHorizontal = 4
)

// hookSource adapts the process-wide gohook capture hook to the
// Source interface.
type hookSource struct {
	mu      sync.Mutex
	running bool
	out     chan Event
	stop    chan struct{}
	done    chan struct{}
}

// NewHookSource returns the OS-backed capture source. Only one hook
// source can run per process.
func NewHookSource() Source {
	return &hookSource{}
}

// Start opens the OS hook and begins translating its events.
func (h *hookSource) Start() (<-chan Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil, ErrMonitorRunning
	}

	raw := hook.Start()
	h.out = make(chan Event, DefaultBuffer)
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	h.running = true
	go h.translate(raw)
	return h.out, nil
}

// Stop closes the OS hook. Safe to call when not running.
func (h *hookSource) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.stop)
	hook.End()
	<-h.done
}

func (h *hookSource) translate(raw chan hook.Event) {
	defer close(h.done)
	defer close(h.out)
	for {
		select {
		case ev, ok := <-raw:
			if !ok {
				return
			}
			out, ok := convertHookEvent(ev)
			if !ok {
				continue
			}
			select {
			case h.out <- out:
			case <-h.stop:
				return
			}
		case <-h.stop:
			return
		}
	}
}

// convertHookEvent maps a raw hook event to the normalized form.
// Events with no mapping (holds, unknown kinds) report ok=false.
func convertHookEvent(ev hook.Event) (Event, bool) {
	out := Event{
		X:    int(ev.X),
		Y:    int(ev.Y),
		When: ev.When,
	}

	switch ev.Kind {
	case hook.KeyDown:
		name := hookKeyName(ev)
		if name == "" {
			return Event{}, false
		}
		out.Kind = KindKeyDown
		out.Key = name
	case hook.KeyUp:
		name := hookKeyName(ev)
		if name == "" {
			return Event{}, false
		}
		out.Kind = KindKeyUp
		out.Key = name
	case hook.MouseDown:
		out.Kind = KindMouseDown
		out.Button = hookButton(ev.Button)
	case hook.MouseUp:
		out.Kind = KindMouseUp
		out.Button = hookButton(ev.Button)
	case hook.MouseMove, hook.MouseDrag:
		out.Kind = KindMouseMove
	case hook.MouseWheel:
		out.Kind = KindWheel
		switch ev.Direction {
		case wheelVertical:
			out.WheelDY = int(ev.Rotation)
		case wheelHorizontal:
			out.WheelDX = int(ev.Rotation)
		default:
			return Event{}, false
		}
	default:
		return Event{}, false
	}
	return out, true
}

// hookButton maps gohook button numbers to Button values. gohook
// numbers the middle button 2 and the right button 3.
func hookButton(b uint16) input.Button {
	switch b {
	case 1:
		return input.ButtonLeft
	case 2:
		return input.ButtonMiddle
	case 3:
		return input.ButtonRight
	default:
		return input.ButtonNone
	}
}

// undefinedKeychar is the keychar gohook reports for keys with no
// character mapping.
const undefinedKeychar = 0xFFFF

// hookKeyName derives the bare key name for a key event: the
// character itself for printable keys, otherwise the name gohook
// knows for the raw code. Space is named rather than literal so it
// survives whitespace trimming downstream.
func hookKeyName(ev hook.Event) string {
	if ev.Keychar == ' ' {
		return "space"
	}
	if ev.Keychar != 0 && ev.Keychar != undefinedKeychar && unicode.IsPrint(ev.Keychar) {
		return strings.ToLower(string(ev.Keychar))
	}
	name := strings.TrimSpace(hook.RawcodetoKeychar(ev.Rawcode))
	if name == "" {
		return ""
	}
	return strings.ToLower(name)
}
