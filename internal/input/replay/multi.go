package replay

import (
	"context"
	"fmt"

	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/driver"
)

// Multi cycles round-robin over an ordered action list, sleeping each
// item's own delay after performing it.
type Multi struct {
	items []action.Action
	drv   driver.Driver
	stats counters
}

// NewMulti creates the multi-action strategy over a private copy of
// the list.
func NewMulti(drv driver.Driver, items []action.Action) *Multi {
	copied := make([]action.Action, len(items))
	copy(copied, items)
	return &Multi{items: copied, drv: drv}
}

// Name returns the strategy name.
func (m *Multi) Name() string { return "multi" }

// Validate fails with ErrNoActionsConfigured on an empty list and
// reports the first invalid item with its index.
func (m *Multi) Validate() error {
	if len(m.items) == 0 {
		return ErrNoActionsConfigured
	}
	for i, act := range m.items {
		if err := act.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Run cycles the list until the context ends.
func (m *Multi) Run(ctx context.Context) error {
	i := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		act := m.items[i]
		injectAction(m.drv, act, &m.stats)
		if err := sleep(ctx, act.Delay()); err != nil {
			return err
		}
		i = (i + 1) % len(m.items)
		if i == 0 {
			m.stats.cycles.Add(1)
		}
	}
}

// Stats returns a snapshot of the counters.
func (m *Multi) Stats() Stats { return m.stats.snapshot() }
