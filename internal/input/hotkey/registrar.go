package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/clickstorm/internal/input/monitor"
)

// ErrRegistration indicates hotkey bindings could not be installed.
// Callers treat it as non-fatal: the engine still works, only the
// hotkeys are missing.
var ErrRegistration = errors.New("hotkey registration failed")

// Registrar binds canonical hotkeys to callbacks on global key
// capture. Bind replaces the whole binding set; Close releases the
// capture subscription.
//
// Callbacks run on the registrar's listener flow. Callers that need
// them elsewhere marshal them onto their own flow.
type Registrar interface {
	Bind(bindings map[Binding]func()) error
	Close()
}

// MonitorRegistrar implements Registrar on top of the capture
// service.
type MonitorRegistrar struct {
	mu       sync.Mutex
	svc      *monitor.Service
	bindings map[Binding]func()
	sub      *monitor.Subscription
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitorRegistrar creates a registrar over the given capture
// service. No subscription is taken until the first Bind.
func NewMonitorRegistrar(svc *monitor.Service) *MonitorRegistrar {
	return &MonitorRegistrar{svc: svc}
}

// Bind installs the given binding set, replacing any previous one.
// Binding keys are re-normalized; nil callbacks and empty bindings
// are skipped. The first Bind subscribes to the capture service;
// failure to subscribe is reported wrapped in ErrRegistration.
func (r *MonitorRegistrar) Bind(bindings map[Binding]func()) error {
	normalized := make(map[Binding]func(), len(bindings))
	for b, fn := range bindings {
		if fn == nil {
			continue
		}
		nb := Normalize(string(b))
		if nb.IsZero() {
			continue
		}
		normalized[nb] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sub == nil {
		sub, err := r.svc.Subscribe()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRegistration, err)
		}
		r.sub = sub
		r.stop = make(chan struct{})
		r.done = make(chan struct{})
		go r.listen(sub, r.stop, r.done)
	}

	r.bindings = normalized
	return nil
}

// Bound returns the currently installed bindings.
func (r *MonitorRegistrar) Bound() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Binding, 0, len(r.bindings))
	for b := range r.bindings {
		out = append(out, b)
	}
	return out
}

// Close releases the capture subscription and clears all bindings.
// Safe to call repeatedly; Bind after Close re-subscribes.
func (r *MonitorRegistrar) Close() {
	r.mu.Lock()
	sub, stop, done := r.sub, r.stop, r.done
	r.sub, r.stop, r.done = nil, nil, nil
	r.bindings = nil
	r.mu.Unlock()

	if sub == nil {
		return
	}
	close(stop)
	sub.Cancel()
	<-done
}

func (r *MonitorRegistrar) listen(sub *monitor.Subscription, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-sub.Events():
			if ev.Kind != monitor.KindKeyDown {
				continue
			}
			r.dispatch(Normalize(ev.Key))
		case <-sub.Done():
			return
		case <-stop:
			return
		}
	}
}

func (r *MonitorRegistrar) dispatch(b Binding) {
	r.mu.Lock()
	fn := r.bindings[b]
	r.mu.Unlock()
	if fn == nil {
		return
	}
	// A panicking callback must not take down the listener.
	defer func() { _ = recover() }()
	fn()
}
