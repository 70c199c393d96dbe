// Package replay turns stored action data into synthetic input. Three
// strategies implement the same contract: run until cancelled, check
// cancellation between side effects. A Controller owns the single
// active strategy and its cancellation.
//
// Injection failures never abort a run. One unmappable key or a
// rejected click is counted and skipped so a long unattended session
// survives bad events.
package replay

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/driver"
)

var (
	// ErrNoPositionSet indicates single mode without a configured
	// click position.
	ErrNoPositionSet = errors.New("no click position set")

	// ErrNoActionsConfigured indicates multi mode with an empty
	// action list.
	ErrNoActionsConfigured = errors.New("no actions configured")

	// ErrNoRecordingAvailable indicates session mode without a
	// recorded session.
	ErrNoRecordingAvailable = errors.New("no recording available")

	// ErrAlreadyRunning indicates Start while a strategy is active.
	ErrAlreadyRunning = errors.New("replay already running")
)

// Strategy is one replay loop. Validate reports configuration errors
// without side effects; Run loops until the context ends and returns
// the context's error.
type Strategy interface {
	Name() string
	Validate() error
	Run(ctx context.Context) error
	Stats() Stats
}

// Stats is a snapshot of a strategy's counters. Injected counts
// attempts; Errors counts the attempts the driver rejected; Cycles
// counts completed passes over the configured data.
type Stats struct {
	Injected uint64
	Errors   uint64
	Cycles   uint64
}

// counters backs Stats with atomics so the replay flow can bump them
// while other flows read.
type counters struct {
	injected atomic.Uint64
	errors   atomic.Uint64
	cycles   atomic.Uint64
}

func (c *counters) note(err error) {
	c.injected.Add(1)
	if err != nil {
		c.errors.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Injected: c.injected.Load(),
		Errors:   c.errors.Load(),
		Cycles:   c.cycles.Load(),
	}
}

// sleep waits for d or until the context ends, whichever comes first.
// A non-positive d still observes cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// injectAction performs one configured action. Key actions touch only
// the keyboard; click kinds reposition and click.
func injectAction(drv driver.Driver, act action.Action, c *counters) {
	var err error
	switch act.Kind {
	case action.KindRight:
		err = drv.Click(act.X, act.Y, input.ButtonRight, false)
	case action.KindMiddle:
		err = drv.Click(act.X, act.Y, input.ButtonMiddle, false)
	case action.KindDouble:
		err = drv.Click(act.X, act.Y, input.ButtonLeft, true)
	case action.KindKey:
		err = tapKey(drv, act.Key)
	default:
		err = drv.Click(act.X, act.Y, input.ButtonLeft, false)
	}
	c.note(err)
}

// tapKey tries the literal identifier first. A bracketed name that
// the driver rejects is retried bare, so "<f5>" falls back to "f5".
func tapKey(drv driver.Driver, name string) error {
	err := drv.Tap(name)
	if err == nil {
		return nil
	}
	if len(name) >= 2 && strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">") {
		return drv.Tap(name[1 : len(name)-1])
	}
	return err
}
