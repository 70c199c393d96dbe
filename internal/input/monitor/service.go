package monitor

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrMonitorRunning indicates Start was called on a running service.
	ErrMonitorRunning = errors.New("monitor already running")

	// ErrMonitorNotRunning indicates an operation that needs a running
	// service, such as Subscribe.
	ErrMonitorNotRunning = errors.New("monitor not running")
)

// DefaultBuffer is the subscription channel capacity used when no
// option overrides it.
const DefaultBuffer = 64

// Service owns the capture source and fans its events out to
// subscribers.
type Service struct {
	mu     sync.Mutex
	source Source
	subs   map[string]*Subscription

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	buffer int

	eventsSeen    atomic.Uint64
	eventsDropped atomic.Uint64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBuffer sets the per-subscription channel capacity.
func WithBuffer(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// NewService creates a service over the given source.
func NewService(source Source, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		subs:   make(map[string]*Subscription),
		buffer: DefaultBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins capture and fan-out.
func (s *Service) Start() error {
	if s.running.Load() {
		return ErrMonitorRunning
	}
	ch, err := s.source.Start()
	if err != nil {
		return err
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.fanout(ch)
	return nil
}

// Stop ends capture and cancels every subscription. Safe to call when
// not running.
func (s *Service) Stop() {
	if !s.running.Swap(false) {
		return
	}
	close(s.stop)
	s.source.Stop()
	<-s.done

	for _, sub := range s.snapshot() {
		sub.Cancel()
	}
}

// Running reports whether capture is active.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Subscribe registers a new subscriber. It fails when the service is
// not running.
func (s *Service) Subscribe() (*Subscription, error) {
	if !s.running.Load() {
		return nil, ErrMonitorNotRunning
	}
	sub := &Subscription{
		id:     uuid.New().String(),
		ch:     make(chan Event, s.buffer),
		closed: make(chan struct{}),
		svc:    s,
	}
	s.mu.Lock()
	s.subs[sub.id] = sub
	s.mu.Unlock()
	return sub, nil
}

// Stats returns a snapshot of the fan-out counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	n := len(s.subs)
	s.mu.Unlock()
	return Stats{
		EventsSeen:    s.eventsSeen.Load(),
		EventsDropped: s.eventsDropped.Load(),
		Subscribers:   n,
	}
}

func (s *Service) fanout(ch <-chan Event) {
	defer close(s.done)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.deliver(ev)
		case <-s.stop:
			return
		}
	}
}

func (s *Service) deliver(ev Event) {
	s.eventsSeen.Add(1)
	for _, sub := range s.snapshot() {
		select {
		case sub.ch <- ev:
		default:
			s.eventsDropped.Add(1)
		}
	}
}

func (s *Service) snapshot() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (s *Service) remove(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

// Stats is a snapshot of service counters.
type Stats struct {
	EventsSeen    uint64
	EventsDropped uint64
	Subscribers   int
}

// Subscription is one subscriber's handle on the event stream.
type Subscription struct {
	id     string
	ch     chan Event
	closed chan struct{}
	once   sync.Once
	svc    *Service
}

// ID returns the subscription identifier.
func (sub *Subscription) ID() string {
	return sub.id
}

// Events returns the subscriber's event channel. The channel is never
// closed; select on Done to detect cancellation.
func (sub *Subscription) Events() <-chan Event {
	return sub.ch
}

// Done is closed when the subscription is cancelled, either directly
// or by the service stopping.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.closed
}

// Cancel removes the subscription. Idempotent.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		close(sub.closed)
		sub.svc.remove(sub.id)
	})
}
