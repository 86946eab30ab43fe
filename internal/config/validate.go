package config

import (
	"fmt"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// minPollInterval keeps polling from spinning on a misconfigured value.
const minPollInterval = time.Second

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig checks the merged configuration.
// Returns a list of validation errors.
func validateConfig(cfg *Config) []string {
	var errs []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text", "pretty":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("log format: invalid value %q (must be json, text, or pretty)", cfg.LogFormat))
	}

	switch cfg.Watch.Method {
	case source.WatchMethodAuto, source.WatchMethodInotify, source.WatchMethodPoll:
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("watch method: invalid value %q (must be auto, inotify, or poll)", cfg.Watch.Method))
	}

	if cfg.Watch.PollInterval < minPollInterval {
		errs = append(errs, fmt.Sprintf("poll interval: must be at least %s, got %s", minPollInterval, cfg.Watch.PollInterval))
	}

	if cfg.ListenPort < 0 || cfg.ListenPort > 65535 {
		errs = append(errs, fmt.Sprintf("listen port: must be between 0 and 65535, got %d", cfg.ListenPort))
	}

	if cfg.Home == "" && (cfg.pathOverrides[source.UserConfig] == "" || cfg.pathOverrides[source.UserKnownHosts] == "") {
		errs = append(errs, fmt.Sprintf("home directory: cannot be determined, set %sHOME", EnvPrefix))
	}

	for _, kind := range source.Kinds() {
		if cfg.Paths[kind] == "" {
			errs = append(errs, fmt.Sprintf("%s: no path configured", kind))
		}
	}

	return errs
}
