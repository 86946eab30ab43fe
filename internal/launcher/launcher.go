// Package launcher opens a terminal emulator running an ssh command.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
)

// DefaultExecFlag is the option most terminals use to run a command.
const DefaultExecFlag = "-e"

// ErrNoTerminal is returned when no terminal executable is configured or found.
var ErrNoTerminal = errors.New("no terminal configured")

// execFlags are removed from configured arguments before the exec flag and
// ssh command are appended, so a template copied from desktop settings does
// not end up with two exec options.
var execFlags = []string{"--execute", "-x", "--command", "-e"}

// Launcher spawns an ssh session for a command line like "ssh -p 2222 bob@db".
type Launcher interface {
	Launch(ctx context.Context, sshCommand string) error
}

// Template describes how to start the terminal.
type Template struct {
	// Exec is the terminal executable, as a name on $PATH or a path.
	Exec string

	// Args are extra arguments placed before the exec flag.
	Args []string

	// ExecFlag introduces the command to run. Defaults to "-e".
	ExecFlag string
}

// StripExecFlags returns args without exec-style options, including their
// "--flag=value" forms.
func StripExecFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if isExecFlag(arg) {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func isExecFlag(arg string) bool {
	name, _, _ := strings.Cut(arg, "=")
	for _, flag := range execFlags {
		if name == flag {
			return true
		}
	}
	return false
}

// Argv returns the terminal arguments for running sshCommand.
func (t Template) Argv(sshCommand string) []string {
	flag := t.ExecFlag
	if flag == "" {
		flag = DefaultExecFlag
	}
	argv := StripExecFlags(t.Args)
	return append(argv, flag, sshCommand)
}

// startFunc starts a process and returns a function that waits for it.
type startFunc func(name string, args []string) (wait func() error, err error)

func startProcess(name string, args []string) (func() error, error) {
	// Not tied to a context: the terminal outlives the request that opened it.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Wait, nil
}

// TerminalLauncher runs ssh commands in a terminal emulator.
type TerminalLauncher struct {
	template Template
	path     string
	icon     string
	logger   *slog.Logger
	start    startFunc
}

// Option configures a TerminalLauncher.
type Option func(*TerminalLauncher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *TerminalLauncher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIcon sets the icon name reported for results. Defaults to the base
// name of the terminal executable.
func WithIcon(icon string) Option {
	return func(l *TerminalLauncher) {
		l.icon = icon
	}
}

// New creates a TerminalLauncher. When t.Exec is empty $TERMINAL is used.
// It fails with ErrNoTerminal if no executable is configured or the
// configured one cannot be found.
func New(t Template, opts ...Option) (*TerminalLauncher, error) {
	if t.Exec == "" {
		t.Exec = os.Getenv("TERMINAL")
	}
	if t.Exec == "" {
		return nil, ErrNoTerminal
	}

	path, err := exec.LookPath(t.Exec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoTerminal, t.Exec, err)
	}

	if t.ExecFlag == "" {
		t.ExecFlag = DefaultExecFlag
	}
	t.Args = StripExecFlags(t.Args)

	l := &TerminalLauncher{
		template: t,
		path:     path,
		logger:   slog.Default(),
		start:    startProcess,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.icon == "" {
		l.icon = filepath.Base(t.Exec)
	}

	return l, nil
}

// Path returns the resolved terminal executable.
func (l *TerminalLauncher) Path() string {
	return l.path
}

// Icon returns the icon name of the terminal application.
func (l *TerminalLauncher) Icon() string {
	return l.icon
}

// Launch starts the terminal and returns without waiting for it to exit.
// The process is reaped in the background.
func (l *TerminalLauncher) Launch(ctx context.Context, sshCommand string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	argv := l.template.Argv(sshCommand)

	wait, err := l.start(l.path, argv)
	if err != nil {
		metrics.LaunchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("starting %s: %w", l.template.Exec, err)
	}
	metrics.LaunchesTotal.WithLabelValues("started").Inc()

	l.logger.Info("launched terminal",
		slog.String("terminal", l.path),
		slog.String("command", sshCommand),
	)

	go func() {
		if err := wait(); err != nil {
			l.logger.Debug("terminal exited with error",
				slog.String("terminal", l.path),
				slog.String("error", err.Error()),
			)
		}
	}()

	return nil
}
