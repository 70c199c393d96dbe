package app

import (
	"sync/atomic"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/driver"
)

// loggingDriver wraps a Driver so the injection failures the replay
// strategies swallow still land in the log, with a running count.
type loggingDriver struct {
	inner    driver.Driver
	log      *Logger
	failures atomic.Uint64
}

func newLoggingDriver(inner driver.Driver, log *Logger) *loggingDriver {
	return &loggingDriver{inner: inner, log: log.WithComponent("driver")}
}

// Failures reports how many injections have failed so far.
func (d *loggingDriver) Failures() uint64 {
	return d.failures.Load()
}

func (d *loggingDriver) note(op string, err error) error {
	if err != nil {
		d.failures.Add(1)
		d.log.Warn("%s failed: %v", op, err)
	}
	return err
}

func (d *loggingDriver) MoveTo(x, y int) error {
	return d.note("move", d.inner.MoveTo(x, y))
}

func (d *loggingDriver) Click(x, y int, button input.Button, double bool) error {
	return d.note("click", d.inner.Click(x, y, button, double))
}

func (d *loggingDriver) Press(x, y int, button input.Button) error {
	return d.note("press", d.inner.Press(x, y, button))
}

func (d *loggingDriver) Release(x, y int, button input.Button) error {
	return d.note("release", d.inner.Release(x, y, button))
}

func (d *loggingDriver) Scroll(x, y, dy int) error {
	return d.note("scroll", d.inner.Scroll(x, y, dy))
}

func (d *loggingDriver) Tap(key string) error {
	return d.note("key", d.inner.Tap(key))
}

func (d *loggingDriver) Location() (input.Point, error) {
	pos, err := d.inner.Location()
	_ = d.note("locate", err)
	return pos, err
}

var _ driver.Driver = (*loggingDriver)(nil)
