package monitor

import (
	"errors"
	"testing"
	"time"
)

// fakeSource is a channel-backed Source for deterministic tests.
type fakeSource struct {
	ch      chan Event
	stopped chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ch:      make(chan Event, 16),
		stopped: make(chan struct{}),
	}
}

func (f *fakeSource) Start() (<-chan Event, error) { return f.ch, nil }

func (f *fakeSource) Stop() { close(f.stopped) }

func (f *fakeSource) emit(ev Event) { f.ch <- ev }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSubscribeBeforeStart(t *testing.T) {
	svc := NewService(newFakeSource())
	if _, err := svc.Subscribe(); !errors.Is(err, ErrMonitorNotRunning) {
		t.Errorf("Subscribe() error = %v, want ErrMonitorNotRunning", err)
	}
}

func TestStartTwice(t *testing.T) {
	svc := NewService(newFakeSource())
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Stop()
	if err := svc.Start(); !errors.Is(err, ErrMonitorRunning) {
		t.Errorf("second Start() error = %v, want ErrMonitorRunning", err)
	}
}

func TestFanoutDeliversToAllSubscribers(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Stop()

	first, err := svc.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	second, err := svc.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []Kind{KindMouseMove, KindMouseDown, KindKeyDown}
	for _, k := range want {
		src.emit(Event{Kind: k})
	}

	for _, sub := range []*Subscription{first, second} {
		for i, k := range want {
			select {
			case ev := <-sub.Events():
				if ev.Kind != k {
					t.Errorf("event %d kind = %v, want %v", i, ev.Kind, k)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for event %d", i)
			}
		}
	}
}

func TestFanoutDropsWhenSubscriberFull(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, WithBuffer(1))
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Stop()

	sub, err := svc.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		src.emit(Event{Kind: KindMouseMove, X: i})
	}
	waitFor(t, "overflow drops", func() bool {
		return svc.Stats().EventsDropped == 2
	})

	if got := svc.Stats().EventsSeen; got != 3 {
		t.Errorf("EventsSeen = %d, want 3", got)
	}

	select {
	case ev := <-sub.Events():
		if ev.X != 0 {
			t.Errorf("delivered event X = %d, want 0", ev.X)
		}
	default:
		t.Error("expected one buffered event")
	}
}

func TestStopCancelsSubscriptions(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sub, err := svc.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	svc.Stop()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not cancelled by Stop")
	}
	select {
	case <-src.stopped:
	default:
		t.Error("source not stopped")
	}
	if svc.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestStopWithoutStart(t *testing.T) {
	svc := NewService(newFakeSource())
	svc.Stop() // must not panic or block
	if svc.Running() {
		t.Error("Running() = true without Start")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Stop()

	sub, err := svc.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if got := svc.Stats().Subscribers; got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}

	sub.Cancel()
	sub.Cancel() // idempotent
	if got := svc.Stats().Subscribers; got != 0 {
		t.Errorf("Subscribers = %d after Cancel, want 0", got)
	}
}
