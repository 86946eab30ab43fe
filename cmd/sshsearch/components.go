package main

import (
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/sshsearch/internal/directory"
	"gitlab.bluewillows.net/root/sshsearch/internal/fswatch"
	"gitlab.bluewillows.net/root/sshsearch/internal/launcher"
	"gitlab.bluewillows.net/root/sshsearch/internal/searchprovider"
)

// newWatchedDirectory creates a directory whose sources follow file changes.
// The returned watcher must be closed after the directory is stopped.
func (a *app) newWatchedDirectory() (*directory.Directory, fswatch.Watcher, error) {
	w, err := fswatch.New(a.cfg.Watch, fswatch.WithLogger(a.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("creating file watcher: %w", err)
	}

	d, err := directory.New(a.cfg.Paths,
		directory.WithLogger(a.logger),
		directory.WithSubscriber(w),
	)
	if err != nil {
		_ = w.Close()
		return nil, nil, fmt.Errorf("creating directory: %w", err)
	}

	return d, w, nil
}

// newLauncher builds the terminal launcher. A missing terminal is not fatal
// for the front ends: queries keep working and activation reports the
// problem, so nil is returned with a warning.
func (a *app) newLauncher() (launcher.Launcher, string) {
	t := launcher.Template{
		Exec:     a.cfg.Terminal.Exec,
		Args:     a.cfg.Terminal.Args,
		ExecFlag: a.cfg.Terminal.ExecFlag,
	}

	l, err := launcher.New(t,
		launcher.WithLogger(a.logger),
		launcher.WithIcon(a.cfg.Terminal.Icon),
	)
	if err != nil {
		a.logger.Warn("no terminal available, activation disabled",
			slog.String("error", err.Error()),
		)
		return nil, a.cfg.Terminal.Icon
	}

	a.logger.Debug("terminal launcher ready",
		slog.String("terminal", l.Path()),
		slog.String("icon", l.Icon()),
	)
	return l, l.Icon()
}

func (a *app) newProvider(d *directory.Directory) *searchprovider.Provider {
	l, icon := a.newLauncher()
	return searchprovider.New(d, l,
		searchprovider.WithLogger(a.logger),
		searchprovider.WithIcon(icon),
	)
}
