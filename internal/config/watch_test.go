package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(WithDebounce(debounce))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitChange(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Changes():
		if got != want {
			t.Fatalf("change = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change to %s", want)
	}
}

func assertNoChange(t *testing.T, w *Watcher, window time.Duration) {
	t.Helper()
	select {
	case got := <-w.Changes():
		t.Fatalf("unexpected change to %q", got)
	case <-time.After(window):
	}
}

func TestWatcherSeesWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("log_level = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := os.WriteFile(file, []byte("log_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitChange(t, w, file)
}

func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")

	w := newTestWatcher(t, 200*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(file, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitChange(t, w, file)
	assertNoChange(t, w, 400*time.Millisecond)
}

func TestWatcherSeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "profile.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, []byte(`{"mode":"multi"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, file); err != nil {
		t.Fatal(err)
	}
	waitChange(t, w, file)
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := os.WriteFile(other, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	assertNoChange(t, w, 300*time.Millisecond)
}

func TestWatcherCreateCountsAsChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := os.WriteFile(file, []byte("log_level = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitChange(t, w, file)
}

func TestWatcherRemoveStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := w.Remove(file); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if err := os.WriteFile(file, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	assertNoChange(t, w, 300*time.Millisecond)
}

func TestWatcherRegistrationErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, 20*time.Millisecond)
	if err := w.Add(file); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := w.Add(file); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("second Add() error = %v, want ErrAlreadyWatching", err)
	}
	if err := w.Remove(filepath.Join(dir, "other.toml")); !errors.Is(err, ErrNotWatching) {
		t.Errorf("Remove() error = %v, want ErrNotWatching", err)
	}

	missing := filepath.Join(dir, "no-such-dir", "config.toml")
	if err := w.Add(missing); err == nil {
		t.Error("Add() with missing parent directory succeeded")
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Add("whatever"); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Add() after Close error = %v, want ErrWatcherClosed", err)
	}
}
