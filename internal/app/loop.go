package app

import (
	"context"
	"sync"
	"sync/atomic"
)

// mainLoopBuffer is how many tasks may queue before Defer blocks.
const mainLoopBuffer = 64

// MainLoop serializes state changes onto one goroutine. Hotkey
// callbacks and file-watch notifications arrive on their own
// goroutines; deferring their work here keeps the toggle semantics
// ordered without spreading locks across callers.
type MainLoop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	panics    atomic.Uint64
}

// NewMainLoop creates an idle loop. Nothing runs until Run.
func NewMainLoop() *MainLoop {
	return &MainLoop{
		tasks: make(chan func(), mainLoopBuffer),
		done:  make(chan struct{}),
	}
}

// Defer queues fn for execution on the loop goroutine. It blocks
// when the queue is full and fails once the loop is closed.
func (l *MainLoop) Defer(fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Run executes queued tasks until the context is cancelled or the
// loop is closed. Close drains tasks already queued; cancellation
// does not.
func (l *MainLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			for {
				select {
				case fn := <-l.tasks:
					l.exec(fn)
				default:
					return nil
				}
			}
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Close stops the loop. Idempotent.
func (l *MainLoop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Panics reports how many tasks panicked. The loop survives them.
func (l *MainLoop) Panics() uint64 {
	return l.panics.Load()
}

func (l *MainLoop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
		}
	}()
	fn()
}
