package watcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func startWatcher(t *testing.T, paths []string) (<-chan []string, context.CancelFunc, <-chan error) {
	t.Helper()
	changes := make(chan []string, 10)
	w := New(paths, func(changed []string) { changes <- changed }, quietLogger()).
		WithDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("Watch: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	t.Cleanup(cancel)
	return changes, cancel, done
}

func write(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "topology.json")
	conns := filepath.Join(dir, "connections.json")
	write(t, top, "{}")
	write(t, conns, "{}")

	changes, _, _ := startWatcher(t, []string{top, conns})

	write(t, top, `{"devices": []}`)
	write(t, conns, `{"connections": []}`)
	write(t, top, `{"devices": [], "zones": []}`)

	select {
	case got := <-changes:
		if len(got) != 2 || got[0] != conns || got[1] != top {
			t.Errorf("changed = %v, want [%s %s]", got, conns, top)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected second report %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "topology.json")
	write(t, top, "{}")

	changes, _, _ := startWatcher(t, []string{top})
	write(t, filepath.Join(dir, "notes.txt"), "hello")

	select {
	case got := <-changes:
		t.Errorf("unrelated file reported: %v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "topology.json")
	write(t, top, "{}")

	_, cancel, done := startWatcher(t, []string{top})
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "nope", "topology.json")}, func([]string) {}, quietLogger())
	if err := w.Watch(context.Background()); err == nil {
		t.Error("Watch() on a missing directory should fail")
	}
}
