package record

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/hotkey"
	"github.com/dshills/clickstorm/internal/input/monitor"
)

// ErrAlreadyRecording indicates Start was called while a recording
// is in progress.
var ErrAlreadyRecording = errors.New("recording already in progress")

// captureJoinTimeout bounds how long Stop waits for the capture flow
// to exit before giving up on the join.
const captureJoinTimeout = 500 * time.Millisecond

// Recorder captures a session of input events from the capture
// service.
//
// Pointer movement is not recorded as events; it only maintains the
// last known pointer position. Button transitions, wheel movement,
// and key presses append events tagged with the delay since the
// previous appended event. Stopping is explicit via Stop: key presses
// are captured as events, never interpreted as a command to end the
// session.
type Recorder struct {
	svc *monitor.Service

	mu        sync.Mutex
	recording bool
	events    []Event
	lastPos   input.Point
	havePos   bool
	lastAt    time.Time

	sub  *monitor.Subscription
	stop chan struct{}
	done chan struct{}
}

// NewRecorder creates a recorder fed by the given capture service.
func NewRecorder(svc *monitor.Service) *Recorder {
	return &Recorder{svc: svc}
}

// Start clears any previous session and begins capturing. It fails
// with ErrAlreadyRecording when a session is active, and with the
// subscription error when the capture service is not running.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}

	sub, err := r.svc.Subscribe()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("start recording: %w", err)
	}

	r.events = nil
	r.havePos = false
	r.lastAt = time.Now()
	r.sub = sub
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.recording = true
	stop, done := r.stop, r.done
	r.mu.Unlock()

	go r.capture(sub, stop, done)
	return nil
}

// Stop ends the session and returns the captured events. Safe to
// call when idle: it returns the last captured session unchanged.
func (r *Recorder) Stop() []Event {
	r.mu.Lock()
	if !r.recording {
		events := r.copyEventsLocked()
		r.mu.Unlock()
		return events
	}
	r.recording = false
	sub, stop, done := r.sub, r.stop, r.done
	r.sub, r.stop, r.done = nil, nil, nil
	r.mu.Unlock()

	close(stop)
	sub.Cancel()
	select {
	case <-done:
	case <-time.After(captureJoinTimeout):
	}

	r.mu.Lock()
	events := r.copyEventsLocked()
	r.mu.Unlock()
	return events
}

// Recording reports whether a session is being captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Events returns a copy of the captured session so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyEventsLocked()
}

// Len returns the number of captured events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// LastPosition returns the last pointer position seen during the
// session, and whether one was seen at all.
func (r *Recorder) LastPosition() (input.Point, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPos, r.havePos
}

func (r *Recorder) capture(sub *monitor.Subscription, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-sub.Events():
			r.handle(ev)
		case <-sub.Done():
			return
		case <-stop:
			return
		}
	}
}

func (r *Recorder) handle(ev monitor.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}

	switch ev.Kind {
	case monitor.KindMouseMove:
		r.lastPos = input.Point{X: ev.X, Y: ev.Y}
		r.havePos = true
	case monitor.KindMouseDown, monitor.KindMouseUp:
		r.notePosLocked(ev)
		pressed := ev.Kind == monitor.KindMouseDown
		delay := r.delayLocked(ev.When)
		r.appendLocked(NewClick(ev.X, ev.Y, ev.Button, pressed, delay), ev.When)
	case monitor.KindWheel:
		r.notePosLocked(ev)
		delay := r.delayLocked(ev.When)
		r.appendLocked(NewScroll(ev.X, ev.Y, ev.WheelDX, ev.WheelDY, delay), ev.When)
	case monitor.KindKeyDown:
		name := string(hotkey.Normalize(ev.Key))
		if name == "" {
			return
		}
		delay := r.delayLocked(ev.When)
		r.appendLocked(NewKey(name, delay), ev.When)
	}
}

func (r *Recorder) notePosLocked(ev monitor.Event) {
	r.lastPos = input.Point{X: ev.X, Y: ev.Y}
	r.havePos = true
}

// delayLocked computes the delay attributed to an event captured at
// the given time. The capture timestamp is preferred; a zero or
// backwards timestamp falls back to a zero delay.
func (r *Recorder) delayLocked(when time.Time) time.Duration {
	if when.IsZero() {
		when = time.Now()
	}
	d := when.Sub(r.lastAt)
	if d < 0 {
		d = 0
	}
	return d
}

func (r *Recorder) appendLocked(ev Event, when time.Time) {
	if when.IsZero() {
		when = time.Now()
	}
	r.events = append(r.events, ev)
	r.lastAt = when
}

func (r *Recorder) copyEventsLocked() []Event {
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}
