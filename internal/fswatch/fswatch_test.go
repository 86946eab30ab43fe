package fswatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// waitForOp reads events until one with the wanted op arrives.
func waitForOp(t *testing.T, events <-chan source.ChangeEvent, path string, want source.Op) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("channel closed while waiting for %s", want)
			}
			if ev.Path != path {
				t.Fatalf("event for unexpected path %q (want %q)", ev.Path, path)
			}
			if ev.Op == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s on %s", want, path)
		}
	}
}

func waitClosed(t *testing.T, events <-chan source.ChangeEvent) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for channel to close")
		}
	}
}

func TestDiff(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		prev   fileState
		next   fileState
		wantOp source.Op
		wantOK bool
	}{
		{"still missing", fileState{}, fileState{}, 0, false},
		{"created", fileState{}, fileState{exists: true}, source.OpCreated, true},
		{"deleted", fileState{exists: true}, fileState{}, source.OpDeleted, true},
		{"size changed", fileState{exists: true, size: 1, modTime: now}, fileState{exists: true, size: 2, modTime: now}, source.OpModified, true},
		{"mtime changed", fileState{exists: true, size: 1, modTime: now}, fileState{exists: true, size: 1, modTime: now.Add(time.Second)}, source.OpModified, true},
		{"unchanged", fileState{exists: true, size: 1, modTime: now}, fileState{exists: true, size: 1, modTime: now}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := diff(tt.prev, tt.next)
			if op != tt.wantOp || ok != tt.wantOK {
				t.Errorf("diff() = (%v, %v), want (%v, %v)", op, ok, tt.wantOp, tt.wantOK)
			}
		})
	}
}

func TestTranslateOp(t *testing.T) {
	tests := []struct {
		op     fsnotify.Op
		want   source.Op
		wantOK bool
	}{
		{fsnotify.Create, source.OpCreated, true},
		{fsnotify.Write, source.OpModified, true},
		{fsnotify.Chmod, source.OpModified, true},
		{fsnotify.Remove, source.OpDeleted, true},
		{fsnotify.Rename, source.OpRenamed, true},
		{fsnotify.Create | fsnotify.Write, source.OpCreated, true},
		{fsnotify.Write | fsnotify.Remove, source.OpDeleted, true},
		{0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got, ok := translateOp(tt.op)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("translateOp(%v) = (%v, %v), want (%v, %v)", tt.op, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsFatalFsnotifyError(t *testing.T) {
	if isFatalFsnotifyError(errors.New("some transient error")) {
		t.Error("plain error classified as fatal")
	}
	if isFatalFsnotifyError(nil) {
		t.Error("nil classified as fatal")
	}
}

func TestIsFatalFsnotifyError_Wrapped(t *testing.T) {
	if !isFatalFsnotifyError(fatalErrnoForTest()) {
		t.Error("expected resource exhaustion errno to be fatal")
	}
}

func TestPollWatcher_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	w := NewPollWatcher(10*time.Millisecond, WithLogger(testLogger()))
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("web1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpCreated)

	if err := os.WriteFile(path, []byte("web1\nweb2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpModified)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpDeleted)

	cancel()
	waitClosed(t, events)
}

func TestPollWatcher_Close(t *testing.T) {
	w := NewPollWatcher(10*time.Millisecond, WithLogger(testLogger()))

	events, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	waitClosed(t, events)

	if _, err := w.Watch(context.Background(), "/tmp/x"); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("expected ErrWatcherClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNotifyWatcher_CreateModifyDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	sibling := filepath.Join(dir, "config.bak")

	w, err := NewNotifyWatcher(nil, WithLogger(testLogger()))
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Changes to other files in the directory are filtered out.
	if err := os.WriteFile(sibling, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("Host web1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpCreated)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpDeleted)

	cancel()
	waitClosed(t, events)
}

func TestNotifyWatcher_MissingDirectoryWithoutFallback(t *testing.T) {
	w, err := NewNotifyWatcher(nil, WithLogger(testLogger()))
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	path := filepath.Join(t.TempDir(), "missing", "config")
	if _, err := w.Watch(context.Background(), path); err == nil {
		t.Fatal("expected error watching file in missing directory")
	}
}

func TestNotifyWatcher_FallsBackToPolling(t *testing.T) {
	poll := NewPollWatcher(10*time.Millisecond, WithLogger(testLogger()))
	w, err := NewNotifyWatcher(poll, WithLogger(testLogger()))
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	dir := filepath.Join(t.TempDir(), "ssh")
	path := filepath.Join(dir, "config")

	events, err := w.Watch(context.Background(), path)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("Host db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitForOp(t, events, path, source.OpCreated)
}

func TestNotifyWatcher_Close(t *testing.T) {
	w, err := NewNotifyWatcher(nil, WithLogger(testLogger()))
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}

	events, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	waitClosed(t, events)

	if _, err := w.Watch(context.Background(), "/tmp/config"); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("expected ErrWatcherClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew_Methods(t *testing.T) {
	tests := []struct {
		method   source.WatchMethodType
		wantPoll bool
	}{
		{source.WatchMethodPoll, true},
		{source.WatchMethodInotify, false},
		{source.WatchMethodAuto, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			w, err := New(source.WatchConfig{Method: tt.method, PollInterval: time.Second}, WithLogger(testLogger()))
			if err != nil {
				t.Skipf("watcher unavailable: %v", err)
			}
			defer w.Close()

			_, isPoll := w.(*PollWatcher)
			if isPoll != tt.wantPoll {
				t.Errorf("New(%s) returned %T", tt.method, w)
			}
		})
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	w, err := New(source.WatchConfig{Method: source.WatchMethodPoll}, WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	poll := w.(*PollWatcher)
	if poll.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", poll.interval)
	}
}

