// Package fswatch delivers change notifications for individual files.
//
// Two implementations are provided. NotifyWatcher uses fsnotify and watches
// each file's parent directory, so a file that does not exist yet is still
// seen when it is created. PollWatcher compares os.Stat results on an
// interval and works on network mounts and under missing directories.
//
// Example usage:
//
//	w, err := fswatch.New(source.DefaultWatchConfig(), fswatch.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	events, err := w.Watch(ctx, "/home/me/.ssh/config")
//	for ev := range events {
//	    log.Printf("%s %s", ev.Op, ev.Path)
//	}
package fswatch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// ErrWatcherClosed is returned by Watch after Close.
var ErrWatcherClosed = errors.New("watcher closed")

// eventBuffer is the per-subscription channel capacity. When it is full the
// new event is dropped: a queued event already guarantees a reload that
// happens after the change.
const eventBuffer = 16

// Watcher is a source.Subscriber that can be shut down.
type Watcher interface {
	source.Subscriber
	Close() error
}

type options struct {
	logger *slog.Logger
}

// Option configures a watcher.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a watcher for the configured method.
//
// With WatchMethodAuto, fsnotify is tried first; if it cannot be initialized
// the whole watcher polls, and individual paths whose directory cannot be
// watched are polled.
func New(cfg source.WatchConfig, opts ...Option) (Watcher, error) {
	o := buildOptions(opts)

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = source.DefaultWatchConfig().PollInterval
	}

	switch cfg.Method {
	case source.WatchMethodPoll:
		o.logger.Info("using poll watch method", slog.Duration("interval", interval))
		return NewPollWatcher(interval, opts...), nil

	case source.WatchMethodInotify:
		w, err := NewNotifyWatcher(nil, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating notify watcher: %w", err)
		}
		o.logger.Info("using inotify watch method")
		return w, nil

	default:
		poll := NewPollWatcher(interval, opts...)
		w, err := NewNotifyWatcher(poll, opts...)
		if err != nil {
			o.logger.Warn("file notifications unavailable, falling back to polling",
				slog.String("error", err.Error()),
				slog.Duration("interval", interval),
			)
			return poll, nil
		}
		o.logger.Info("using auto watch method", slog.Duration("poll_fallback_interval", interval))
		return w, nil
	}
}

// fileState is what PollWatcher compares between ticks.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// diff returns the event that turns prev into next, if any.
func diff(prev, next fileState) (source.Op, bool) {
	switch {
	case !prev.exists && next.exists:
		return source.OpCreated, true
	case prev.exists && !next.exists:
		return source.OpDeleted, true
	case next.exists && (prev.size != next.size || !prev.modTime.Equal(next.modTime)):
		return source.OpModified, true
	default:
		return 0, false
	}
}
