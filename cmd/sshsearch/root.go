package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/sshsearch/internal/config"
	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
)

// app carries state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sshsearch",
		Short: "Search the SSH hosts named in your ssh config and known_hosts files",
		Long: `sshsearch aggregates the hosts named in ~/.ssh/config, ~/.ssh/known_hosts,
/etc/ssh/ssh_known_hosts and /etc/ssh_known_hosts and answers pattern queries
over them. Each query term is a regular expression, optionally prefixed with
"user@" to fill in the login name. Choosing a result opens a terminal running
ssh for it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $SSHSEARCH_CONFIG)")

	root.AddCommand(
		newServeCmd(a),
		newQueryCmd(a),
		newPickCmd(a),
		newCheckCmd(a),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = setupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(a.logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	if cfg.File != "" {
		a.logger.Debug("configuration loaded", slog.String("file", cfg.File))
	}
	return nil
}
