package fswatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

type notifySub struct {
	path string
	ch   chan source.ChangeEvent
}

// NotifyWatcher watches files through fsnotify on their parent directories.
type NotifyWatcher struct {
	fsw      *fsnotify.Watcher
	fallback *PollWatcher
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[string]map[*notifySub]struct{}
	dirs   map[string]int
	closed bool

	done chan struct{}
}

// NewNotifyWatcher creates a NotifyWatcher. When fallback is non-nil, paths
// whose parent directory cannot be watched are handed to it instead of
// failing, and it is closed together with the NotifyWatcher.
func NewNotifyWatcher(fallback *PollWatcher, opts ...Option) (*NotifyWatcher, error) {
	o := buildOptions(opts)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &NotifyWatcher{
		fsw:      fsw,
		fallback: fallback,
		logger:   o.logger,
		subs:     make(map[string]map[*notifySub]struct{}),
		dirs:     make(map[string]int),
		done:     make(chan struct{}),
	}
	go w.loop()

	return w, nil
}

// Watch subscribes to changes of path. The returned channel is closed when
// ctx is cancelled or the watcher is closed.
func (w *NotifyWatcher) Watch(ctx context.Context, path string) (<-chan source.ChangeEvent, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWatcherClosed
	}

	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			w.mu.Unlock()
			if w.fallback == nil {
				return nil, fmt.Errorf("watching directory %s: %w", dir, err)
			}
			w.logger.Warn("cannot watch directory, polling file instead",
				slog.String("path", abs),
				slog.String("error", err.Error()),
			)
			metrics.WatcherFallbacks.Inc()
			return w.fallback.Watch(ctx, abs)
		}
	}
	w.dirs[dir]++

	sub := &notifySub{path: abs, ch: make(chan source.ChangeEvent, eventBuffer)}
	if w.subs[abs] == nil {
		w.subs[abs] = make(map[*notifySub]struct{})
	}
	w.subs[abs][sub] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("watching file", slog.String("path", abs), slog.String("dir", dir))

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(sub)
		case <-w.done:
		}
	}()

	return sub.ch, nil
}

// Close stops the watcher and closes every subscription channel.
func (w *NotifyWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, set := range w.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(w.subs, path)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done

	if w.fallback != nil {
		_ = w.fallback.Close()
	}
	return err
}

func (w *NotifyWatcher) unsubscribe(sub *notifySub) {
	w.mu.Lock()
	defer w.mu.Unlock()

	set, ok := w.subs[sub.path]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(w.subs, sub.path)
	}
	close(sub.ch)

	dir := filepath.Dir(sub.path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if !w.closed {
			_ = w.fsw.Remove(dir)
		}
	}
}

func (w *NotifyWatcher) loop() {
	defer close(w.done)

	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.dispatch(evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if isFatalFsnotifyError(err) {
				metrics.WatcherErrors.WithLabelValues("true").Inc()
				w.logger.Error("fatal file watcher error, changes may go unnoticed",
					slog.String("error", err.Error()),
				)
				continue
			}
			metrics.WatcherErrors.WithLabelValues("false").Inc()
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *NotifyWatcher) dispatch(evt fsnotify.Event) {
	op, ok := translateOp(evt.Op)
	if !ok {
		return
	}
	path := filepath.Clean(evt.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	for sub := range w.subs[path] {
		select {
		case sub.ch <- source.ChangeEvent{Path: path, Op: op}:
		default:
		}
	}
}

// translateOp maps an fsnotify op to a change kind. When several bits are
// set the most disruptive one wins.
func translateOp(op fsnotify.Op) (source.Op, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return source.OpDeleted, true
	case op.Has(fsnotify.Rename):
		return source.OpRenamed, true
	case op.Has(fsnotify.Create):
		return source.OpCreated, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return source.OpModified, true
	default:
		return 0, false
	}
}
