package replay

import (
	"context"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/driver"
	"github.com/dshills/clickstorm/internal/input/record"
)

// Session replays a recorded event sequence with its original timing,
// restarting from the beginning after the last event until cancelled.
//
// Each event sleeps its own delay first, then injects. Scroll events
// replay only the vertical delta; the horizontal delta stays in the
// data but never reaches the driver. Key events try the literal name
// and fall back to the bracket-stripped form, swallowing failures, so
// one unmappable key does not abort the session.
type Session struct {
	events []record.Event
	drv    driver.Driver
	stats  counters
}

// NewSession creates the recorded-session strategy over a private
// copy of the sequence.
func NewSession(drv driver.Driver, events []record.Event) *Session {
	copied := make([]record.Event, len(events))
	copy(copied, events)
	return &Session{events: copied, drv: drv}
}

// Name returns the strategy name.
func (s *Session) Name() string { return "session" }

// Validate fails with ErrNoRecordingAvailable on an empty sequence.
func (s *Session) Validate() error {
	if len(s.events) == 0 {
		return ErrNoRecordingAvailable
	}
	return nil
}

// Run replays the sequence in a loop until the context ends.
func (s *Session) Run(ctx context.Context) error {
	for {
		for _, ev := range s.events {
			if err := sleep(ctx, ev.Delay); err != nil {
				return err
			}
			s.inject(ev)
		}
		s.stats.cycles.Add(1)
	}
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats { return s.stats.snapshot() }

func (s *Session) inject(ev record.Event) {
	var err error
	switch ev.Kind {
	case record.KindMove:
		err = s.drv.MoveTo(ev.X, ev.Y)
	case record.KindClick:
		button, perr := input.ParseButton(ev.Button)
		if perr != nil {
			button = input.ButtonLeft
		}
		if ev.Pressed {
			err = s.drv.Press(ev.X, ev.Y, button)
		} else {
			err = s.drv.Release(ev.X, ev.Y, button)
		}
	case record.KindScroll:
		err = s.drv.Scroll(ev.X, ev.Y, ev.DY)
	case record.KindKey:
		err = tapKey(s.drv, ev.Key)
	default:
		return
	}
	s.stats.note(err)
}
