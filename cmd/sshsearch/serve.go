package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/sshsearch/internal/server"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// errServerDisabled is returned by serve when the listen port is 0.
var errServerDisabled = errors.New("http server disabled (listen port is 0)")

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the source files and serve the search API on localhost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				if port < 0 || port > 65535 {
					return fmt.Errorf("invalid --port %d: must be between 0 and 65535", port)
				}
				a.cfg.ListenPort = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port on 127.0.0.1 (overrides configuration)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if !a.cfg.ServerEnabled() {
		return errServerDisabled
	}
	logger := a.logger

	logger.Info("sshsearch starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("watch_method", string(a.cfg.Watch.Method)),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dir, watcher, err := a.newWatchedDirectory()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("closing file watcher", slog.String("error", err.Error()))
		}
	}()

	if err := dir.Start(ctx); err != nil {
		return fmt.Errorf("starting directory: %w", err)
	}
	defer dir.Stop()

	provider := a.newProvider(dir)

	srv := server.New(a.cfg.ListenPort, provider,
		server.WithLogger(logger),
		server.WithDirectory(dir),
	)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting http server: %w", err)
	}

	for _, st := range dir.Status() {
		logger.Info("watching source",
			slog.String("source", st.Name),
			slog.String("path", st.Path),
			slog.Bool("exists", st.Exists),
			slog.Int("hosts", st.Hosts),
		)
	}
	logger.Info("sshsearch ready",
		slog.String("addr", srv.Addr()),
		slog.Int("sources", len(source.Kinds())),
	)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("sshsearch shutdown complete")
	return nil
}
