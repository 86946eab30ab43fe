// Package directory aggregates the four SSH host sources and answers queries.
//
// A Directory owns exactly one WatchedSource per source.Kind. Each query
// reads the sources' current snapshots in the fixed kind order and runs the
// matcher over them. Nothing is cached between queries.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/internal/matcher"
	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
	"gitlab.bluewillows.net/root/sshsearch/sources/knownhosts"
	"gitlab.bluewillows.net/root/sshsearch/sources/sshconfig"
)

// ParserFor returns the parser for a kind's file syntax.
func ParserFor(kind source.Kind) source.Parser {
	if kind.IsConfig() {
		return sshconfig.Parse
	}
	return knownhosts.Parse
}

// SourceStatus describes one source for health checks and diagnostics.
type SourceStatus struct {
	Kind     source.Kind `json:"-"`
	Name     string      `json:"source"`
	Path     string      `json:"path"`
	Exists   bool        `json:"exists"`
	Hosts    int         `json:"hosts"`
	LoadedAt time.Time   `json:"loaded_at"`
	Attached bool        `json:"attached"`
}

// Directory is the host directory aggregator.
type Directory struct {
	sources []*source.WatchedSource
	byKind  map[source.Kind]*source.WatchedSource

	subscriber source.Subscriber
	fs         source.FileSystem
	engine     *matcher.Engine
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger for the directory and its sources.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSubscriber sets the change notification source used by Start.
// Without one, Start only loads the files once.
func WithSubscriber(sub source.Subscriber) Option {
	return func(d *Directory) {
		d.subscriber = sub
	}
}

// WithFileSystem sets the filesystem the sources read from.
func WithFileSystem(fsys source.FileSystem) Option {
	return func(d *Directory) {
		d.fs = fsys
	}
}

// WithEngine sets the query engine.
func WithEngine(engine *matcher.Engine) Option {
	return func(d *Directory) {
		if engine != nil {
			d.engine = engine
		}
	}
}

// New creates a Directory with one source per kind. Every kind must have a
// path in paths.
func New(paths source.Paths, opts ...Option) (*Directory, error) {
	d := &Directory{
		byKind: make(map[source.Kind]*source.WatchedSource),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.engine == nil {
		d.engine = matcher.New(matcher.WithLogger(d.logger))
	}

	for _, kind := range source.Kinds() {
		path, ok := paths[kind]
		if !ok || path == "" {
			return nil, fmt.Errorf("no path configured for source %s", kind)
		}

		srcOpts := []source.WatchedOption{source.WithSourceLogger(d.logger)}
		if d.fs != nil {
			srcOpts = append(srcOpts, source.WithFileSystem(d.fs))
		}

		src := source.NewWatchedSource(kind, path, ParserFor(kind), srcOpts...)
		d.sources = append(d.sources, src)
		d.byKind[kind] = src
	}

	return d, nil
}

// Start loads every source and subscribes to file changes. Calling Start on
// a running directory is a no-op.
func (d *Directory) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	for _, src := range d.sources {
		if d.subscriber == nil {
			_ = src.Refresh()
			continue
		}
		if err := src.Attach(ctx, d.subscriber); err != nil {
			cancel()
			for _, attached := range d.sources {
				attached.Detach()
			}
			return fmt.Errorf("watching source %s: %w", src.Kind(), err)
		}
	}

	d.cancel = cancel
	d.running = true

	d.logger.Info("host directory started",
		slog.Int("sources", len(d.sources)),
		slog.Bool("watching", d.subscriber != nil),
	)
	return nil
}

// Stop releases all change subscriptions and waits for the handlers to exit.
// It is safe to call more than once.
func (d *Directory) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.cancel()
	for _, src := range d.sources {
		src.Detach()
	}
	d.cancel = nil
	d.running = false

	d.logger.Info("host directory stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (d *Directory) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Query returns the records matching terms across all sources, in kind
// order. An empty terms slice yields no records. Results are not
// deduplicated; see source.HostRecords.Deduplicate.
func (d *Directory) Query(terms []string) source.HostRecords {
	return d.QueryReport(terms).Records
}

// QueryReport is Query plus the Invalid outcomes encountered.
func (d *Directory) QueryReport(terms []string) matcher.Report {
	var report matcher.Report
	if len(terms) == 0 {
		return report
	}

	start := time.Now()
	parsed := matcher.ParseTerms(terms)

	for _, src := range d.sources {
		report.Append(d.engine.Run(src.Snapshot().Hosts, parsed))
	}

	metrics.QueriesTotal.Inc()
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	metrics.QueryResults.Observe(float64(len(report.Records)))

	return report
}

// Refresh re-reads one source synchronously.
func (d *Directory) Refresh(kind source.Kind) error {
	src, ok := d.byKind[kind]
	if !ok {
		return source.ErrSourceNotFound(kind)
	}
	return src.Refresh()
}

// RefreshAll re-reads every source in kind order. Read errors are collected
// and returned joined; the other sources are still refreshed.
func (d *Directory) RefreshAll() error {
	var errs []error
	for _, src := range d.sources {
		if err := src.Refresh(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status returns the state of every source in kind order.
func (d *Directory) Status() []SourceStatus {
	statuses := make([]SourceStatus, 0, len(d.sources))
	for _, src := range d.sources {
		snap := src.Snapshot()
		statuses = append(statuses, SourceStatus{
			Kind:     src.Kind(),
			Name:     src.Kind().String(),
			Path:     src.Path(),
			Exists:   snap.Exists,
			Hosts:    len(snap.Hosts),
			LoadedAt: snap.LoadedAt,
			Attached: src.Attached(),
		})
	}
	return statuses
}

// AnyExists reports whether at least one source file was found.
func (d *Directory) AnyExists() bool {
	for _, src := range d.sources {
		if src.Snapshot().Exists {
			return true
		}
	}
	return false
}
