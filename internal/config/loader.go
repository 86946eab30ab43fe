package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// Load builds the configuration from defaults, the config file at path (or
// $SSHSEARCH_CONFIG when path is empty) and SSHSEARCH_* environment
// variables. All problems are reported together as a *ValidationError.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	cfg := Default()
	var errs []string

	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			cfg.File = path
			errs = append(errs, fileCfg.apply(cfg)...)
		}
	}

	errs = append(errs, applyEnv(cfg)...)
	cfg.resolvePaths()
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// applyEnv overrides cfg with every SSHSEARCH_* variable that is set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if v := getEnv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv(EnvPrefix + "HOME"); v != "" {
		cfg.Home = v
	}

	for _, kind := range source.Kinds() {
		if v := getEnv(pathEnvKey(kind.EnvName())); v != "" {
			cfg.pathOverrides[kind] = v
		}
	}

	if v := getEnv(EnvPrefix + "WATCH_METHOD"); v != "" {
		cfg.Watch.Method = source.WatchMethodType(strings.ToLower(v))
	}

	if v := getEnv(EnvPrefix + "POLL_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sPOLL_INTERVAL: invalid duration %q (use format like 5s, 1m)", EnvPrefix, v))
		} else {
			cfg.Watch.PollInterval = interval
		}
	}

	terminal, err := getEnvWithFileFallback("TERMINAL")
	if err != nil {
		errs = append(errs, fmt.Sprintf("%sTERMINAL_FILE: %v", EnvPrefix, err))
	} else if terminal != "" {
		cfg.Terminal.Exec = terminal
	}

	if v := getEnv(EnvPrefix + "TERMINAL_ARGS"); v != "" {
		cfg.Terminal.Args = strings.Fields(v)
	}

	if v := getEnv(EnvPrefix + "TERMINAL_EXEC_FLAG"); v != "" {
		cfg.Terminal.ExecFlag = v
	}

	if v := getEnv(EnvPrefix + "TERMINAL_ICON"); v != "" {
		cfg.Terminal.Icon = v
	}

	if v := getEnv(EnvPrefix + "LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sLISTEN_PORT: invalid integer %q", EnvPrefix, v))
		} else {
			cfg.ListenPort = port
		}
	}

	return errs
}

// resolvePaths derives the source paths from the final home directory and
// applies the collected overrides. A leading "~/" in an override refers to
// the home directory.
func (c *Config) resolvePaths() {
	overrides := make(source.Paths, len(c.pathOverrides))
	for kind, path := range c.pathOverrides {
		overrides[kind] = expandHome(path, c.Home)
	}
	c.Paths = source.DefaultPaths(c.Home).Merge(overrides)
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
