package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/sshsearch/internal/tui"
)

func newPickCmd(a *app) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "pick [TERM...]",
		Short: "Choose a host interactively and open it in a terminal",
		Example: `  sshsearch pick web
  sshsearch pick --server 127.0.0.1:8622`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			provider, cleanup, err := a.pickProvider(ctx, serverURL)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, ok, err := tui.Run(ctx, provider, strings.Join(args, " "),
				tea.WithAltScreen(),
				tea.WithOutput(cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), rec.SSHCommand())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "search and launch through a running \"sshsearch serve\" at this address")
	return cmd
}

// pickProvider returns the picker's provider: a remote one when serverURL is
// set, otherwise a watched local directory that cleanup stops.
func (a *app) pickProvider(ctx context.Context, serverURL string) (tui.Provider, func(), error) {
	if serverURL != "" {
		client, err := a.newClient(serverURL)
		if err != nil {
			return nil, nil, err
		}
		return &remoteProvider{ctx: ctx, client: client, logger: a.logger}, func() {}, nil
	}

	dir, watcher, err := a.newWatchedDirectory()
	if err != nil {
		return nil, nil, err
	}
	if err := dir.Start(ctx); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("starting directory: %w", err)
	}

	cleanup := func() {
		dir.Stop()
		watcher.Close()
	}
	return a.newProvider(dir), cleanup, nil
}
