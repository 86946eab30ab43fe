// Package searchprovider exposes the host directory to search front ends.
//
// A Provider implements the calls a search host makes: an initial result
// set, a refined result set, result metadata, and activation. Front ends in
// this repository (the HTTP API and the terminal picker) use it; a desktop
// shell integration would as well.
package searchprovider

import (
	"context"
	"log/slog"
	"strings"

	"gitlab.bluewillows.net/root/sshsearch/internal/launcher"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// Querier answers host queries. *directory.Directory implements it.
type Querier interface {
	Query(terms []string) source.HostRecords
}

// ResultMeta is the information a search host needs to render a result.
type ResultMeta struct {
	// ID identifies the result. Records have no identity beyond their
	// fields, so the record itself is the ID.
	ID source.HostRecord `json:"id"`

	// Name is "user@host:port" with the default parts left out.
	Name string `json:"name"`

	// Icon is the desktop icon name of the terminal application.
	Icon string `json:"icon,omitempty"`
}

// Provider connects a Querier to a Launcher.
type Provider struct {
	querier  Querier
	launcher launcher.Launcher
	icon     string
	logger   *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIcon sets the icon name returned in result metadata.
func WithIcon(icon string) Option {
	return func(p *Provider) {
		p.icon = icon
	}
}

// New creates a Provider. The launcher may be nil, in which case Activate
// returns launcher.ErrNoTerminal.
func New(q Querier, l launcher.Launcher, opts ...Option) *Provider {
	p := &Provider{
		querier:  q,
		launcher: l,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SplitTerms splits raw search input on whitespace.
func SplitTerms(input string) []string {
	return strings.Fields(input)
}

// InitialResultSet returns the records matching terms.
func (p *Provider) InitialResultSet(terms []string) source.HostRecords {
	return p.querier.Query(terms)
}

// SubsearchResultSet refines a previous search. The previous results are
// ignored and the directory is queried again.
func (p *Provider) SubsearchResultSet(_ source.HostRecords, terms []string) source.HostRecords {
	return p.querier.Query(terms)
}

// ResultMeta returns display metadata for a record.
func (p *Provider) ResultMeta(r source.HostRecord) ResultMeta {
	return ResultMeta{
		ID:   r,
		Name: r.DisplayName(),
		Icon: p.icon,
	}
}

// Activate opens an ssh session for the record. Records that fail
// validation are refused before anything is started. Launch failures are
// logged and returned; they never affect later queries.
func (p *Provider) Activate(ctx context.Context, r source.HostRecord) error {
	if err := r.Validate(); err != nil {
		p.logger.Warn("refusing to activate invalid record",
			slog.String("target", r.DisplayName()),
			slog.String("error", err.Error()),
		)
		return err
	}

	if p.launcher == nil {
		p.logger.Warn("activation requested but no terminal is configured",
			slog.String("target", r.DisplayName()),
		)
		return launcher.ErrNoTerminal
	}

	cmd := r.SSHCommand()
	if err := p.launcher.Launch(ctx, cmd); err != nil {
		p.logger.Error("failed to launch ssh session",
			slog.String("target", r.DisplayName()),
			slog.String("command", cmd),
			slog.String("error", err.Error()),
		)
		return err
	}

	p.logger.Debug("activated result", slog.String("target", r.DisplayName()))
	return nil
}
