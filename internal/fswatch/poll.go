package fswatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// PollWatcher detects changes by comparing file size and mtime on an interval.
type PollWatcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewPollWatcher creates a PollWatcher that checks every interval.
func NewPollWatcher(interval time.Duration, opts ...Option) *PollWatcher {
	o := buildOptions(opts)
	if interval <= 0 {
		interval = source.DefaultWatchConfig().PollInterval
	}
	return &PollWatcher{
		interval: interval,
		logger:   o.logger,
		stop:     make(chan struct{}),
	}
}

// Watch starts polling path. The returned channel is closed when ctx is
// cancelled or the watcher is closed.
func (w *PollWatcher) Watch(ctx context.Context, path string) (<-chan source.ChangeEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}

	ch := make(chan source.ChangeEvent, eventBuffer)
	prev := statFile(path)

	w.logger.Debug("polling file",
		slog.String("path", path),
		slog.Duration("interval", w.interval),
	)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(ch)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				next := statFile(path)
				if op, changed := diff(prev, next); changed {
					select {
					case ch <- source.ChangeEvent{Path: path, Op: op}:
					default:
					}
				}
				prev = next
			}
		}
	}()

	return ch, nil
}

// Close stops all polling goroutines and waits for them to exit.
func (w *PollWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stop)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}
