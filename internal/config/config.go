// Package config handles loading and validation of sshsearch configuration.
//
// Settings come from three layers, later layers winning: built-in defaults,
// an optional YAML or TOML file, and SSHSEARCH_* environment variables.
package config

import (
	"os"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// EnvPrefix is the prefix of every environment variable read by sshsearch.
const EnvPrefix = "SSHSEARCH_"

// Configuration defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultWatchMethod  = source.WatchMethodAuto
	DefaultPollInterval = 5 * time.Second
	DefaultListenPort   = 8622
)

// Config holds the application configuration.
type Config struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text, pretty

	// Home is the directory the per-user source paths are derived from.
	Home string

	// Paths maps every source kind to its file, after overrides.
	Paths source.Paths

	// Watch controls how file changes are detected.
	Watch source.WatchConfig

	// Terminal describes how sessions are launched.
	Terminal TerminalConfig

	// ListenPort is the HTTP API port on 127.0.0.1. Zero disables the server.
	ListenPort int

	// File is the configuration file that was loaded, if any.
	File string

	// pathOverrides collects per-kind paths from the file and environment.
	// They are merged over the defaults once Home is final.
	pathOverrides source.Paths
}

// TerminalConfig holds launcher settings.
type TerminalConfig struct {
	// Exec is the terminal executable. Empty means $TERMINAL.
	Exec string

	// Args are extra arguments placed before the exec flag.
	Args []string

	// ExecFlag introduces the command to run. Empty means "-e".
	ExecFlag string

	// Icon is the icon name reported with results. Empty means the base
	// name of the executable.
	Icon string
}

// Default returns a Config with every default applied.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Home:      home,
		Paths:     source.DefaultPaths(home),
		Watch: source.WatchConfig{
			Method:       DefaultWatchMethod,
			PollInterval: DefaultPollInterval,
		},
		ListenPort:    DefaultListenPort,
		pathOverrides: source.Paths{},
	}
}

// ServerEnabled reports whether the HTTP API should be started.
func (c *Config) ServerEnabled() bool {
	return c.ListenPort != 0
}
