package replay

import (
	"context"
	"time"

	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/driver"
)

// SingleConfig describes the one repeated action of single mode.
type SingleConfig struct {
	// Pos is the click position; nil means none was ever configured.
	Pos *input.Point

	// Kind defaults to a left click when empty.
	Kind action.Kind

	// Key names the key for KindKey.
	Key string

	// Delay is the pause after each action.
	Delay time.Duration
}

// Single repeats one action forever: act, wait, act again.
type Single struct {
	cfg   SingleConfig
	drv   driver.Driver
	stats counters
}

// NewSingle creates the single-action strategy.
func NewSingle(drv driver.Driver, cfg SingleConfig) *Single {
	if cfg.Pos != nil {
		p := *cfg.Pos
		cfg.Pos = &p
	}
	if cfg.Kind == "" {
		cfg.Kind = action.KindLeft
	}
	return &Single{cfg: cfg, drv: drv}
}

// Name returns the strategy name.
func (s *Single) Name() string { return "single" }

// Validate fails with ErrNoPositionSet when no position was
// configured. The position is required for every kind, key actions
// included.
func (s *Single) Validate() error {
	if s.cfg.Pos == nil {
		return ErrNoPositionSet
	}
	act := s.action()
	return act.Validate()
}

// Run loops the configured action until the context ends.
func (s *Single) Run(ctx context.Context) error {
	act := s.action()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		injectAction(s.drv, act, &s.stats)
		s.stats.cycles.Add(1)
		if err := sleep(ctx, s.cfg.Delay); err != nil {
			return err
		}
	}
}

// Stats returns a snapshot of the counters.
func (s *Single) Stats() Stats { return s.stats.snapshot() }

func (s *Single) action() action.Action {
	var x, y int
	if s.cfg.Pos != nil {
		x, y = s.cfg.Pos.X, s.cfg.Pos.Y
	}
	act := action.New(x, y)
	act.Kind = s.cfg.Kind
	act.Key = s.cfg.Key
	act.DelayMS = int(s.cfg.Delay / time.Millisecond)
	return act
}
