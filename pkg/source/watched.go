package source

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
)

// Reload outcomes reported in metrics.
const (
	reloadLoaded  = "loaded"
	reloadMissing = "missing"
	reloadError   = "error"
)

// Snapshot is an immutable view of a source's last successful load.
// Snapshots are replaced as a whole, never modified in place.
type Snapshot struct {
	// Hosts is the parsed host list in file order. Empty when the file is missing.
	Hosts []string

	// Exists reports whether the file existed at the last check.
	Exists bool

	// LoadedAt is when the snapshot was taken. Zero before the first load.
	LoadedAt time.Time
}

// WatchedSource pairs a file path with its parser and the last parsed host list.
//
// The host list is only replaced by the source's own change handler. Readers
// get a consistent snapshot without locking because the handler swaps a
// pointer instead of mutating the list.
type WatchedSource struct {
	kind   Kind
	path   string
	parse  Parser
	fs     FileSystem
	logger *slog.Logger

	snap atomic.Pointer[Snapshot]

	// reloadMu serializes reloads so an out-of-band Refresh cannot interleave
	// with an event-driven one and publish an older read last.
	reloadMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// WatchedOption configures a WatchedSource.
type WatchedOption func(*WatchedSource)

// WithSourceLogger sets the logger for the source.
func WithSourceLogger(logger *slog.Logger) WatchedOption {
	return func(s *WatchedSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileSystem sets the filesystem used to stat and read the file.
func WithFileSystem(fsys FileSystem) WatchedOption {
	return func(s *WatchedSource) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewWatchedSource creates an unattached source with an empty host list.
func NewWatchedSource(kind Kind, path string, parse Parser, opts ...WatchedOption) *WatchedSource {
	s := &WatchedSource{
		kind:   kind,
		path:   path,
		parse:  parse,
		fs:     OSFileSystem{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.snap.Store(&Snapshot{})
	return s
}

// Kind returns the source kind.
func (s *WatchedSource) Kind() Kind {
	return s.kind
}

// Path returns the watched file path.
func (s *WatchedSource) Path() string {
	return s.path
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *WatchedSource) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Refresh stats and re-parses the file synchronously.
//
// A missing file clears the host list. If the file exists but cannot be read,
// the previous host list is kept and a *ReadError is returned.
func (s *WatchedSource) Refresh() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	info, err := s.fs.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.publish(&Snapshot{Exists: false, LoadedAt: time.Now()})
			s.logger.Debug("source file missing",
				slog.String("source", s.kind.String()),
				slog.String("path", s.path),
			)
			s.recordReload(reloadMissing, 0, false)
			return nil
		}
		return s.readFailed("stat", err)
	}

	if info.IsDir() {
		return s.readFailed("stat", ErrIsDirectory)
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Deleted between the stat and the read.
			s.publish(&Snapshot{Exists: false, LoadedAt: time.Now()})
			s.recordReload(reloadMissing, 0, false)
			return nil
		}
		return s.readFailed("read", err)
	}

	hosts := s.parse(data)
	if hosts == nil {
		hosts = []string{}
	}
	s.publish(&Snapshot{Hosts: hosts, Exists: true, LoadedAt: time.Now()})

	s.logger.Debug("source loaded",
		slog.String("source", s.kind.String()),
		slog.String("path", s.path),
		slog.Int("hosts", len(hosts)),
	)
	s.recordReload(reloadLoaded, len(hosts), true)
	return nil
}

// HandleEvent reacts to a change notification by reloading the file.
// Every kind of event triggers the same check, so deletions clear the host
// list and recreations restore it.
func (s *WatchedSource) HandleEvent(ev ChangeEvent) error {
	s.logger.Debug("source file changed",
		slog.String("source", s.kind.String()),
		slog.String("path", ev.Path),
		slog.String("op", ev.Op.String()),
	)
	metrics.SourceEventsTotal.WithLabelValues(s.kind.String(), ev.Op.String()).Inc()
	return s.Refresh()
}

// Attach loads the file once and subscribes to its change notifications.
// Events are handled on a dedicated goroutine until Detach is called or ctx
// is cancelled. Attaching an already attached source is a no-op.
func (s *WatchedSource) Attach(ctx context.Context, sub Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}

	// Initial load; a read failure here still leaves the source watching.
	_ = s.Refresh()

	ctx, cancel := context.WithCancel(ctx)
	events, err := sub.Watch(ctx, s.path)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		for ev := range events {
			// Errors are logged by Refresh; keep consuming events.
			_ = s.HandleEvent(ev)
		}
	}()

	return nil
}

// Detach releases the change subscription and waits for the event handler
// to exit. It is safe to call more than once.
func (s *WatchedSource) Detach() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Attached reports whether the source currently holds a subscription.
func (s *WatchedSource) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *WatchedSource) publish(snap *Snapshot) {
	s.snap.Store(snap)
}

func (s *WatchedSource) readFailed(op string, err error) error {
	wrapped := WrapReadError(s.kind, s.path, op, err)
	s.logger.Warn("source read failed, keeping previous hosts",
		slog.String("source", s.kind.String()),
		slog.String("path", s.path),
		slog.String("error", err.Error()),
	)
	metrics.SourceReloadsTotal.WithLabelValues(s.kind.String(), reloadError).Inc()
	return wrapped
}

func (s *WatchedSource) recordReload(result string, hosts int, exists bool) {
	name := s.kind.String()
	metrics.SourceReloadsTotal.WithLabelValues(name, result).Inc()
	metrics.SourceHosts.WithLabelValues(name).Set(float64(hosts))
	if exists {
		metrics.SourceExists.WithLabelValues(name).Set(1)
	} else {
		metrics.SourceExists.WithLabelValues(name).Set(0)
	}
}
