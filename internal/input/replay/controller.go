package replay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultStopTimeout bounds how long Stop waits for the replay flow
// to exit before clearing the handle anyway.
const DefaultStopTimeout = 500 * time.Millisecond

// Controller owns the single active replay flow. Start validates and
// spawns a strategy; Stop cancels it and waits, bounded. At most one
// strategy runs at a time.
type Controller struct {
	mu       sync.Mutex
	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	runID    string
	strategy Strategy

	stopWait time.Duration
	onDone   func(runID string, err error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithStopTimeout sets the bound on how long Stop waits for the flow
// to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.stopWait = d
		}
	}
}

// WithCompletion sets a callback invoked when a replay flow exits.
// A clean cancellation reports a nil error.
func WithCompletion(fn func(runID string, err error)) Option {
	return func(c *Controller) {
		c.onDone = fn
	}
}

// NewController creates a controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{stopWait: DefaultStopTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start validates the strategy and spawns its flow. Validation
// failures are returned synchronously and spawn nothing. Starting
// while a flow is active fails with ErrAlreadyRunning; callers stop
// the previous flow first.
func (c *Controller) Start(s Strategy) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running.Load() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	runID := uuid.New().String()

	c.cancel = cancel
	c.done = done
	c.runID = runID
	c.strategy = s
	c.running.Store(true)

	go func() {
		defer close(done)
		defer cancel()
		err := s.Run(ctx)

		// A flow abandoned by a timed-out Stop may exit after a
		// newer flow has started; it must not touch that flow's
		// state.
		c.mu.Lock()
		if c.runID == runID {
			c.running.Store(false)
		}
		c.mu.Unlock()

		if c.onDone != nil {
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			c.onDone(runID, err)
		}
	}()
	return nil
}

// Stop cancels the active flow and waits for it to exit, bounded by
// the stop timeout. The handle is cleared regardless, so a wedged
// flow cannot block later starts. Safe and prompt when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(c.stopWait):
	}
	c.running.Store(false)
}

// Running reports whether a replay flow is active.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// RunID returns the identifier of the current or most recent flow.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Stats returns the counters of the current or most recent strategy.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.strategy == nil {
		return Stats{}
	}
	return c.strategy.Stats()
}
