package main

import (
	"context"
	"log/slog"

	"gitlab.bluewillows.net/root/sshsearch/internal/apiclient"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

func (a *app) newClient(serverURL string) (*apiclient.Client, error) {
	return apiclient.New(apiclient.ClientConfig{
		BaseURL:   serverURL,
		UserAgent: "sshsearch/" + Version,
		Logger:    a.logger,
	})
}

// remoteProvider answers the picker from a running "sshsearch serve", which
// also owns the terminal launcher.
type remoteProvider struct {
	ctx    context.Context
	client *apiclient.Client
	logger *slog.Logger
}

// InitialResultSet returns nil when the server cannot be reached; the
// failure is logged so the picker keeps working.
func (p *remoteProvider) InitialResultSet(terms []string) source.HostRecords {
	if len(terms) == 0 {
		return nil
	}
	records, err := p.client.Search(p.ctx, terms)
	if err != nil {
		p.logger.Warn("remote search failed", slog.String("error", err.Error()))
		return nil
	}
	return records
}

func (p *remoteProvider) Activate(ctx context.Context, r source.HostRecord) error {
	return p.client.Activate(ctx, r)
}
