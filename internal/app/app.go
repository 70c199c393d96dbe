package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/clickstorm/internal/config"
	"github.com/dshills/clickstorm/internal/input"
	"github.com/dshills/clickstorm/internal/input/action"
	"github.com/dshills/clickstorm/internal/input/driver"
	"github.com/dshills/clickstorm/internal/input/hotkey"
	"github.com/dshills/clickstorm/internal/input/monitor"
	"github.com/dshills/clickstorm/internal/input/record"
	"github.com/dshills/clickstorm/internal/input/replay"
	"github.com/dshills/clickstorm/internal/profile"
	"github.com/dshills/clickstorm/internal/script"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty uses the standard
	// location.
	ConfigPath string

	// ProfilePath overrides the configured profile location.
	ProfilePath string

	// ScriptPath is a Lua action list loaded at startup into the
	// multi-action list.
	ScriptPath string

	// Mode overrides the profile's mode: single, multi, or record.
	Mode string

	// RecordNow switches to record mode, starts capturing as soon as
	// Run is up, and saves the profile when the stop hotkey ends the
	// recording.
	RecordNow bool

	// LogLevel overrides the configured log level.
	LogLevel string

	// Debug forces debug logging.
	Debug bool

	// Watch reloads settings and profile when their files change.
	Watch bool

	// LogOutput redirects log output. Nil writes to stderr.
	LogOutput io.Writer
}

// Application coordinates capture, replay, hotkeys, persistence, and
// configuration. All state-changing operations are safe from any
// goroutine; hotkey and watcher callbacks are serialized through the
// main loop.
type Application struct {
	mu sync.RWMutex

	opts       Options
	logger     *Logger
	settings   *config.Settings
	configPath string

	profilePath string
	prof        *profile.Profile

	monitor    *monitor.Service
	registrar  *hotkey.MonitorRegistrar
	recorder   *record.Recorder
	drv        *loggingDriver
	controller *replay.Controller

	loop    *MainLoop
	watcher *config.Watcher

	running atomic.Bool
}

// New creates an application from the settings file, environment,
// profile, and options, in that order of increasing precedence. The
// monitor is not started until Run.
func New(opts Options) (*Application, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, NewOperationError("load config", configPath, err)
	}

	level := settings.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logCfg := LoggerConfig{
		Level:  ParseLogLevel(level),
		Output: opts.LogOutput,
		Prefix: "clickstorm",
	}
	if opts.Debug || settings.Debug {
		logCfg.Level = LogLevelDebug
	}
	logger := NewLogger(logCfg)

	app := &Application{
		opts:       opts,
		logger:     logger,
		settings:   settings,
		configPath: configPath,
		loop:       NewMainLoop(),
	}

	app.profilePath = opts.ProfilePath
	if app.profilePath == "" {
		app.profilePath = settings.Profile.Path
	}

	prof := profile.Default()
	prof.StartHotkey = settings.StartBinding()
	prof.StopHotkey = settings.StopBinding()
	if err := profile.Load(app.profilePath, prof); err != nil {
		// Sections before the damage are already applied.
		logger.Warn("profile %s: %v", app.profilePath, err)
	}
	app.prof = prof

	if opts.Mode != "" {
		m := profile.Mode(opts.Mode)
		if !m.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
		}
		prof.Mode = m
	}
	if opts.ScriptPath != "" {
		items, err := script.Load(opts.ScriptPath)
		if err != nil {
			return nil, NewOperationError("load script", opts.ScriptPath, err)
		}
		prof.Items = items
		if opts.Mode == "" {
			prof.Mode = profile.ModeMulti
		}
		logger.Info("script %s: %d actions", opts.ScriptPath, len(items))
	}
	if opts.RecordNow {
		prof.Mode = profile.ModeRecord
	}

	app.drv = newLoggingDriver(driver.NewRobot(), logger)
	app.monitor = monitor.NewService(monitor.NewHookSource(),
		monitor.WithBuffer(settings.MonitorBuffer()))
	app.recorder = record.NewRecorder(app.monitor)
	app.registrar = hotkey.NewMonitorRegistrar(app.monitor)
	app.controller = replay.NewController(
		replay.WithStopTimeout(settings.StopTimeout()),
		replay.WithCompletion(app.replayDone),
	)
	return app, nil
}

// SetDriver replaces the injection driver. Call before Run.
func (app *Application) SetDriver(d driver.Driver) error {
	if app.running.Load() {
		return ErrRunning
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.drv = newLoggingDriver(d, app.logger)
	return nil
}

// SetCaptureSource replaces the capture backend. Call before Run.
func (app *Application) SetCaptureSource(src monitor.Source) error {
	if app.running.Load() {
		return ErrRunning
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.monitor = monitor.NewService(src, monitor.WithBuffer(app.settings.MonitorBuffer()))
	app.recorder = record.NewRecorder(app.monitor)
	app.registrar = hotkey.NewMonitorRegistrar(app.monitor)
	return nil
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Mode returns the active replay mode.
func (app *Application) Mode() profile.Mode {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.prof.Mode
}

// SetMode switches the replay mode.
func (app *Application) SetMode(m profile.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	app.mu.Lock()
	app.prof.Mode = m
	app.mu.Unlock()
	return nil
}

// Running reports whether a replay flow is active.
func (app *Application) Running() bool {
	return app.controller.Running()
}

// Recording reports whether the recorder is capturing.
func (app *Application) Recording() bool {
	return app.recorder.Recording()
}

// ReplayStats returns the counters of the current or latest flow.
func (app *Application) ReplayStats() replay.Stats {
	return app.controller.Stats()
}

// RecordedEvents reports how many events the active recording holds,
// or the stored session's length when idle.
func (app *Application) RecordedEvents() int {
	app.mu.RLock()
	rec := app.recorder
	stored := len(app.prof.Events)
	app.mu.RUnlock()
	if rec.Recording() {
		return rec.Len()
	}
	return stored
}

// InjectionFailures reports how many injections have failed.
func (app *Application) InjectionFailures() uint64 {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.drv.Failures()
}

// StartReplay builds the active mode's strategy and starts it.
// Validation problems and an already-active flow are returned as
// errors with nothing started.
func (app *Application) StartReplay() error {
	app.mu.RLock()
	s, err := app.buildStrategy()
	app.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := app.controller.Start(s); err != nil {
		app.logger.Warn("start replay: %v", err)
		return err
	}
	app.logger.Info("replay %s started (%s)", app.controller.RunID(), s.Name())
	return nil
}

// buildStrategy requires app.mu held.
func (app *Application) buildStrategy() (replay.Strategy, error) {
	drv := app.drv
	switch app.prof.Mode {
	case profile.ModeSingle:
		cfg := replay.SingleConfig{}
		if s := app.prof.Single; s != nil {
			cfg.Pos = &input.Point{X: s.X, Y: s.Y}
			cfg.Kind = s.Kind
			cfg.Key = s.Key
			cfg.Delay = time.Duration(s.DelayMS) * time.Millisecond
		}
		return replay.NewSingle(drv, cfg), nil
	case profile.ModeMulti:
		return replay.NewMulti(drv, app.prof.Items), nil
	case profile.ModeRecord:
		return replay.NewSession(drv, app.prof.Events), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidMode, app.prof.Mode)
}

// StopReplay stops the active flow, bounded by the stop timeout.
// A no-op when idle.
func (app *Application) StopReplay() {
	app.controller.Stop()
}

// StartRecording begins capturing input events.
func (app *Application) StartRecording() error {
	if err := app.recorder.Start(); err != nil {
		app.logger.Warn("start recording: %v", err)
		return err
	}
	app.logger.Info("recording started")
	return nil
}

// StopRecording stops capture and, when the take is non-empty,
// stores it in the profile. It reports how many events were captured.
func (app *Application) StopRecording() int {
	events := app.recorder.Stop()
	if len(events) > 0 {
		app.mu.Lock()
		app.prof.Events = events
		app.mu.Unlock()
	}
	app.logger.Info("recording stopped: %d events", len(events))
	return len(events)
}

// Hotkeys returns the active start and stop bindings.
func (app *Application) Hotkeys() (start, stop hotkey.Binding) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.prof.StartHotkey, app.prof.StopHotkey
}

// Rebind normalizes and installs new hotkey bindings, storing them in
// the profile. A registration failure leaves the application usable
// without hotkeys.
func (app *Application) Rebind(start, stop hotkey.Binding) error {
	start = hotkey.Normalize(string(start)).Or(hotkey.DefaultStart)
	stop = hotkey.Normalize(string(stop)).Or(hotkey.DefaultStop)

	app.mu.Lock()
	app.prof.StartHotkey = start
	app.prof.StopHotkey = stop
	app.mu.Unlock()

	return app.bindHotkeys()
}

func (app *Application) bindHotkeys() error {
	app.mu.RLock()
	start, stop := app.prof.StartHotkey, app.prof.StopHotkey
	app.mu.RUnlock()

	err := app.registrar.Bind(map[hotkey.Binding]func(){
		start: app.onStartKey,
		stop:  app.onStopKey,
	})
	if err != nil {
		app.logger.Warn("hotkeys unavailable: %v", err)
		return err
	}
	app.logger.Debug("hotkeys bound: start %s, stop %s", start, stop)
	return nil
}

// onStartKey runs on the registrar goroutine; the work is deferred to
// the main loop. In record mode with nothing recorded yet the start
// key begins a recording; otherwise it starts replay.
func (app *Application) onStartKey() {
	_ = app.loop.Defer(func() {
		if app.Mode() == profile.ModeRecord && !app.Recording() && !app.hasRecording() {
			_ = app.StartRecording()
			return
		}
		_ = app.StartReplay()
	})
}

// onStopKey stops whichever of recording or replay is active. An
// immediate-record run persists its take as soon as it ends.
func (app *Application) onStopKey() {
	_ = app.loop.Defer(func() {
		if app.Recording() {
			app.StopRecording()
			if app.opts.RecordNow {
				if err := app.SaveProfile(); err != nil {
					app.logger.Warn("save after recording: %v", err)
				}
			}
			return
		}
		app.StopReplay()
	})
}

func (app *Application) hasRecording() bool {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return len(app.prof.Events) > 0
}

func (app *Application) replayDone(runID string, err error) {
	if err != nil {
		app.logger.Warn("replay %s ended: %v", runID, err)
		return
	}
	app.logger.Info("replay %s stopped", runID)
}

// SaveProfile writes the current state to the profile path.
func (app *Application) SaveProfile() error {
	app.mu.RLock()
	err := profile.Save(app.profilePath, app.prof)
	app.mu.RUnlock()
	if err != nil {
		return NewOperationError("save profile", app.profilePath, err)
	}
	app.logger.Info("profile saved to %s", app.profilePath)
	return nil
}

// ReloadProfile re-reads the profile file over the current state and
// re-registers hotkeys in case the bindings changed.
func (app *Application) ReloadProfile() error {
	app.mu.Lock()
	err := profile.Load(app.profilePath, app.prof)
	app.mu.Unlock()
	if err != nil {
		app.logger.Warn("profile %s: %v", app.profilePath, err)
		return err
	}
	return app.bindHotkeys()
}

// LoadScript replaces the multi-action list from a Lua file.
func (app *Application) LoadScript(path string) error {
	items, err := script.Load(path)
	if err != nil {
		return NewOperationError("load script", path, err)
	}
	app.mu.Lock()
	app.prof.Items = items
	app.mu.Unlock()
	app.logger.Info("script %s: %d actions", path, len(items))
	return nil
}

// CaptureSinglePosition points single mode at the current cursor
// location, keeping any configured delay and action kind.
func (app *Application) CaptureSinglePosition() (input.Point, error) {
	app.mu.RLock()
	drv := app.drv
	app.mu.RUnlock()

	pos, err := drv.Location()
	if err != nil {
		return input.Point{}, NewOperationError("locate cursor", "", err)
	}

	app.mu.Lock()
	if app.prof.Single == nil {
		app.prof.Single = &profile.SinglePos{
			DelayMS: action.DefaultDelayMS,
			Kind:    action.KindLeft,
		}
	}
	app.prof.Single.X, app.prof.Single.Y = pos.X, pos.Y
	app.mu.Unlock()

	app.logger.Info("single position set to %s", pos)
	return pos, nil
}

// Run starts capture, binds hotkeys, and serves the main loop until
// the context is cancelled or Shutdown is called. Hotkey
// registration failures are non-fatal; a dead capture backend is.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.mu.RLock()
	svc := app.monitor
	registrar := app.registrar
	recorder := app.recorder
	app.mu.RUnlock()

	if err := svc.Start(); err != nil {
		return NewOperationError("start monitor", "", err)
	}
	defer svc.Stop()
	defer registrar.Close()
	defer app.controller.Stop()
	defer func() {
		if recorder.Recording() {
			app.StopRecording()
		}
	}()
	defer app.stopWatcher()

	_ = app.bindHotkeys()

	if app.opts.RecordNow {
		if err := app.StartRecording(); err != nil {
			app.logger.Warn("immediate recording: %v", err)
		}
	}

	if app.opts.Watch {
		if err := app.startWatcher(); err != nil {
			app.logger.Warn("file watcher unavailable: %v", err)
		}
	}

	app.logger.Info("ready: mode %s", app.Mode())
	err := app.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops the main loop, ending Run. Safe from any goroutine
// and repeatedly.
func (app *Application) Shutdown() {
	app.loop.Close()
}

func (app *Application) startWatcher() error {
	w, err := config.NewWatcher()
	if err != nil {
		return err
	}

	for _, path := range []string{app.configPath, app.profilePath} {
		if err := w.Add(path); err != nil {
			app.logger.Warn("watch %s: %v", path, err)
		}
	}

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()

	go app.consumeWatcher(w)
	return nil
}

func (app *Application) stopWatcher() {
	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}
}

func (app *Application) consumeWatcher(w *config.Watcher) {
	for {
		select {
		case path, ok := <-w.Changes():
			if !ok {
				return
			}
			app.onFileChanged(path)
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			app.logger.Warn("watcher: %v", err)
		}
	}
}

func (app *Application) onFileChanged(path string) {
	cfg, _ := filepath.Abs(app.configPath)
	prof, _ := filepath.Abs(app.profilePath)
	switch path {
	case cfg:
		_ = app.loop.Defer(app.reloadSettings)
	case prof:
		_ = app.loop.Defer(func() { _ = app.ReloadProfile() })
	}
}

// reloadSettings re-reads the settings file. Only the log level takes
// effect at runtime; structural settings need a restart.
func (app *Application) reloadSettings() {
	settings, err := config.Load(app.configPath)
	if err != nil {
		app.logger.Warn("reload config: %v", err)
		return
	}
	app.mu.Lock()
	app.settings = settings
	app.mu.Unlock()
	app.logger.SetLevel(ParseLogLevel(settings.LogLevel))
	app.logger.Info("config reloaded")
}
