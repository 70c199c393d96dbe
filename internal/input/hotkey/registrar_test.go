package hotkey

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/clickstorm/internal/input/monitor"
)

// fakeSource feeds the capture service from a plain channel.
type fakeSource struct {
	ch chan monitor.Event
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan monitor.Event, 16)}
}

func (f *fakeSource) Start() (<-chan monitor.Event, error) { return f.ch, nil }

func (f *fakeSource) Stop() {}

func (f *fakeSource) pressKey(name string) {
	f.ch <- monitor.Event{Kind: monitor.KindKeyDown, Key: name}
}

func startService(t *testing.T) (*monitor.Service, *fakeSource) {
	t.Helper()
	src := newFakeSource()
	svc := monitor.NewService(src)
	if err := svc.Start(); err != nil {
		t.Fatalf("monitor Start() error = %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, src
}

func waitFired(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("fired %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestBindWithoutMonitor(t *testing.T) {
	svc := monitor.NewService(newFakeSource())
	reg := NewMonitorRegistrar(svc)

	err := reg.Bind(map[Binding]func(){"<f9>": func() {}})
	if !errors.Is(err, ErrRegistration) {
		t.Errorf("Bind() error = %v, want ErrRegistration", err)
	}
}

func TestBindMatchesKeyDown(t *testing.T) {
	svc, src := startService(t)
	reg := NewMonitorRegistrar(svc)
	defer reg.Close()

	fired := make(chan string, 4)
	err := reg.Bind(map[Binding]func(){
		"F9": func() { fired <- "start" },
		"a":  func() { fired <- "letter" },
	})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	src.pressKey("f9")
	waitFired(t, fired, "start")

	src.pressKey("a")
	waitFired(t, fired, "letter")
}

func TestBindIgnoresOtherKeys(t *testing.T) {
	svc, src := startService(t)
	reg := NewMonitorRegistrar(svc)
	defer reg.Close()

	fired := make(chan string, 4)
	err := reg.Bind(map[Binding]func(){
		"<f10>": func() { fired <- "stop" },
	})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	// Per-subscription delivery is ordered, so receiving the f10
	// callback proves the earlier keys fired nothing.
	src.pressKey("x")
	src.pressKey("f9")
	src.pressKey("f10")
	waitFired(t, fired, "stop")

	select {
	case got := <-fired:
		t.Fatalf("unexpected extra callback %q", got)
	default:
	}
}

func TestRebindReplacesBindings(t *testing.T) {
	svc, src := startService(t)
	reg := NewMonitorRegistrar(svc)
	defer reg.Close()

	fired := make(chan string, 4)
	if err := reg.Bind(map[Binding]func(){"<f9>": func() { fired <- "old" }}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := reg.Bind(map[Binding]func(){"<f10>": func() { fired <- "new" }}); err != nil {
		t.Fatalf("rebind error = %v", err)
	}

	src.pressKey("f9")
	src.pressKey("f10")
	waitFired(t, fired, "new")

	select {
	case got := <-fired:
		t.Fatalf("unexpected extra callback %q", got)
	default:
	}
}

func TestCloseStopsDispatch(t *testing.T) {
	svc, src := startService(t)
	reg := NewMonitorRegistrar(svc)

	fired := make(chan string, 4)
	if err := reg.Bind(map[Binding]func(){"<f9>": func() { fired <- "start" }}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	reg.Close()
	reg.Close() // idempotent

	src.pressKey("f9")
	select {
	case got := <-fired:
		t.Fatalf("callback %q after Close", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCallbackPanicKeepsListener(t *testing.T) {
	svc, src := startService(t)
	reg := NewMonitorRegistrar(svc)
	defer reg.Close()

	fired := make(chan string, 4)
	err := reg.Bind(map[Binding]func(){
		"<f9>":  func() { panic("boom") },
		"<f10>": func() { fired <- "ok" },
	})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	src.pressKey("f9")
	src.pressKey("f10")
	waitFired(t, fired, "ok")
}

func TestBoundReportsNormalized(t *testing.T) {
	svc, _ := startService(t)
	reg := NewMonitorRegistrar(svc)
	defer reg.Close()

	if err := reg.Bind(map[Binding]func(){"F9": func() {}}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	bound := reg.Bound()
	if len(bound) != 1 || bound[0] != "<f9>" {
		t.Errorf("Bound() = %v, want [<f9>]", bound)
	}
}
