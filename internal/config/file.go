package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// FileConfig represents the configuration file structure. The same layout is
// accepted as YAML or TOML.
type FileConfig struct {
	// Logging configuration
	Logging *FileLoggingConfig `yaml:"logging,omitempty" toml:"logging"`

	// Source file locations
	Sources *FileSourcesConfig `yaml:"sources,omitempty" toml:"sources"`

	// Change detection
	Watch *FileWatchConfig `yaml:"watch,omitempty" toml:"watch"`

	// Terminal launcher
	Terminal *FileTerminalConfig `yaml:"terminal,omitempty" toml:"terminal"`

	// HTTP API
	Server *FileServerConfig `yaml:"server,omitempty" toml:"server"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text, pretty
}

// FileSourcesConfig holds source file locations.
type FileSourcesConfig struct {
	Home  string            `yaml:"home,omitempty" toml:"home"`   // Base for ~/.ssh paths
	Paths map[string]string `yaml:"paths,omitempty" toml:"paths"` // Keyed by source kind name
}

// FileWatchConfig holds change detection settings.
type FileWatchConfig struct {
	Method       string `yaml:"method,omitempty" toml:"method"`               // auto, inotify, poll
	PollInterval string `yaml:"poll_interval,omitempty" toml:"poll_interval"` // Go duration format
}

// FileTerminalConfig holds launcher settings.
type FileTerminalConfig struct {
	Exec     string   `yaml:"exec,omitempty" toml:"exec"`
	Args     []string `yaml:"args,omitempty" toml:"args"`
	ExecFlag string   `yaml:"exec_flag,omitempty" toml:"exec_flag"`
	Icon     string   `yaml:"icon,omitempty" toml:"icon"`
}

// FileServerConfig holds HTTP API settings.
type FileServerConfig struct {
	Port *int `yaml:"port,omitempty" toml:"port"` // 0 disables the server
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in every string field.
func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Sources != nil {
		c.Sources.Home = InterpolateEnvVars(c.Sources.Home)
		for k, v := range c.Sources.Paths {
			c.Sources.Paths[k] = InterpolateEnvVars(v)
		}
	}

	if c.Watch != nil {
		c.Watch.Method = InterpolateEnvVars(c.Watch.Method)
		c.Watch.PollInterval = InterpolateEnvVars(c.Watch.PollInterval)
	}

	if c.Terminal != nil {
		c.Terminal.Exec = InterpolateEnvVars(c.Terminal.Exec)
		c.Terminal.ExecFlag = InterpolateEnvVars(c.Terminal.ExecFlag)
		c.Terminal.Icon = InterpolateEnvVars(c.Terminal.Icon)
		for i := range c.Terminal.Args {
			c.Terminal.Args[i] = InterpolateEnvVars(c.Terminal.Args[i])
		}
	}
}

// LoadFile reads and parses a configuration file. Files ending in .toml are
// parsed as TOML, everything else as YAML. Environment variables in ${VAR}
// format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply copies every set file value into cfg and returns validation errors.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.Sources != nil {
		if c.Sources.Home != "" {
			cfg.Home = c.Sources.Home
		}
		for name, path := range c.Sources.Paths {
			kind, err := source.ParseKind(name)
			if err != nil {
				errs = append(errs, fmt.Sprintf("sources.paths: %v", err))
				continue
			}
			if path != "" {
				cfg.pathOverrides[kind] = path
			}
		}
	}

	if c.Watch != nil {
		if c.Watch.Method != "" {
			cfg.Watch.Method = source.WatchMethodType(strings.ToLower(c.Watch.Method))
		}
		if c.Watch.PollInterval != "" {
			interval, err := time.ParseDuration(c.Watch.PollInterval)
			if err != nil {
				errs = append(errs, fmt.Sprintf("watch.poll_interval: invalid duration %q (use format like 5s, 1m)", c.Watch.PollInterval))
			} else {
				cfg.Watch.PollInterval = interval
			}
		}
	}

	if c.Terminal != nil {
		if c.Terminal.Exec != "" {
			cfg.Terminal.Exec = c.Terminal.Exec
		}
		if len(c.Terminal.Args) > 0 {
			cfg.Terminal.Args = c.Terminal.Args
		}
		if c.Terminal.ExecFlag != "" {
			cfg.Terminal.ExecFlag = c.Terminal.ExecFlag
		}
		if c.Terminal.Icon != "" {
			cfg.Terminal.Icon = c.Terminal.Icon
		}
	}

	if c.Server != nil && c.Server.Port != nil {
		cfg.ListenPort = *c.Server.Port
	}

	return errs
}

// GetConfigFilePath returns the config file path from the environment.
// Returns empty string if no config file is specified.
func GetConfigFilePath() string {
	return getEnv(EnvPrefix + "CONFIG")
}
