package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// clearEnv resets every SSHSEARCH_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SSHSEARCH_CONFIG",
		"SSHSEARCH_LOG_LEVEL",
		"SSHSEARCH_LOG_FORMAT",
		"SSHSEARCH_HOME",
		"SSHSEARCH_USER_CONFIG_PATH",
		"SSHSEARCH_USER_KNOWN_HOSTS_PATH",
		"SSHSEARCH_SYSTEM_KNOWN_HOSTS_PATH",
		"SSHSEARCH_SYSTEM_KNOWN_HOSTS_LEGACY_PATH",
		"SSHSEARCH_WATCH_METHOD",
		"SSHSEARCH_POLL_INTERVAL",
		"SSHSEARCH_TERMINAL",
		"SSHSEARCH_TERMINAL_FILE",
		"SSHSEARCH_TERMINAL_ARGS",
		"SSHSEARCH_TERMINAL_EXEC_FLAG",
		"SSHSEARCH_TERMINAL_ICON",
		"SSHSEARCH_LISTEN_PORT",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	t.Setenv("SSHSEARCH_HOME", "/home/tester")
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.LogFormat != DefaultLogFormat {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, DefaultLogFormat)
	}
	if cfg.Watch.Method != source.WatchMethodAuto {
		t.Errorf("Watch.Method = %q, want auto", cfg.Watch.Method)
	}
	if cfg.Watch.PollInterval != DefaultPollInterval {
		t.Errorf("Watch.PollInterval = %v, want %v", cfg.Watch.PollInterval, DefaultPollInterval)
	}
	if cfg.ListenPort != DefaultListenPort {
		t.Errorf("ListenPort = %d, want %d", cfg.ListenPort, DefaultListenPort)
	}
	if !cfg.ServerEnabled() {
		t.Error("expected server enabled by default")
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}

	want := source.DefaultPaths("/home/tester")
	if !reflect.DeepEqual(cfg.Paths, want) {
		t.Errorf("Paths = %v, want %v", cfg.Paths, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSHSEARCH_LOG_LEVEL", "DEBUG")
	t.Setenv("SSHSEARCH_LOG_FORMAT", "pretty")
	t.Setenv("SSHSEARCH_HOME", "/srv/alice")
	t.Setenv("SSHSEARCH_SYSTEM_KNOWN_HOSTS_PATH", "/opt/ssh/known_hosts")
	t.Setenv("SSHSEARCH_WATCH_METHOD", "poll")
	t.Setenv("SSHSEARCH_POLL_INTERVAL", "30s")
	t.Setenv("SSHSEARCH_TERMINAL", "kitty")
	t.Setenv("SSHSEARCH_TERMINAL_ARGS", "--single-instance  --hold")
	t.Setenv("SSHSEARCH_TERMINAL_EXEC_FLAG", "--")
	t.Setenv("SSHSEARCH_TERMINAL_ICON", "kitty")
	t.Setenv("SSHSEARCH_LISTEN_PORT", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "pretty" {
		t.Errorf("logging = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Paths[source.UserConfig] != "/srv/alice/.ssh/config" {
		t.Errorf("UserConfig path = %q", cfg.Paths[source.UserConfig])
	}
	if cfg.Paths[source.SystemKnownHosts1] != "/opt/ssh/known_hosts" {
		t.Errorf("SystemKnownHosts1 path = %q", cfg.Paths[source.SystemKnownHosts1])
	}
	if cfg.Watch.Method != source.WatchMethodPoll || cfg.Watch.PollInterval != 30*time.Second {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
	wantTerm := TerminalConfig{
		Exec:     "kitty",
		Args:     []string{"--single-instance", "--hold"},
		ExecFlag: "--",
		Icon:     "kitty",
	}
	if !reflect.DeepEqual(cfg.Terminal, wantTerm) {
		t.Errorf("Terminal = %+v, want %+v", cfg.Terminal, wantTerm)
	}
	if cfg.ServerEnabled() {
		t.Error("expected server disabled with port 0")
	}
}

func TestLoad_TerminalFromFile(t *testing.T) {
	clearEnv(t)
	secret := writeConfig(t, "terminal", "  /usr/bin/foot\n")
	t.Setenv("SSHSEARCH_TERMINAL", "xterm")
	t.Setenv("SSHSEARCH_TERMINAL_FILE", secret)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Terminal.Exec != "/usr/bin/foot" {
		t.Errorf("Terminal.Exec = %q, want value from file", cfg.Terminal.Exec)
	}
}

func TestLoad_TerminalFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSHSEARCH_TERMINAL_FILE", filepath.Join(t.TempDir(), "missing"))

	_, err := Load("")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "SSHSEARCH_TERMINAL_FILE") {
		t.Errorf("error does not name the variable: %v", verr)
	}
}

func TestLoad_ValidationErrorsAggregated(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSHSEARCH_LOG_LEVEL", "verbose")
	t.Setenv("SSHSEARCH_LOG_FORMAT", "xml")
	t.Setenv("SSHSEARCH_WATCH_METHOD", "kqueue")
	t.Setenv("SSHSEARCH_POLL_INTERVAL", "100ms")
	t.Setenv("SSHSEARCH_LISTEN_PORT", "70000")

	_, err := Load("")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 5 {
		t.Errorf("expected 5 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad interval", "SSHSEARCH_POLL_INTERVAL", "soon"},
		{"bad port", "SSHSEARCH_LISTEN_PORT", "http"},
		{"negative port", "SSHSEARCH_LISTEN_PORT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_NoHome(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSHSEARCH_HOME", "")
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", "")
	t.Setenv("home", "")

	_, err := Load("")
	if err == nil {
		t.Skip("home directory still resolvable on this platform")
	}
	if !strings.Contains(err.Error(), "SSHSEARCH_HOME") {
		t.Errorf("error should mention SSHSEARCH_HOME: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := &ValidationError{Errors: []string{"one"}}
	if single.Error() != "configuration error: one" {
		t.Errorf("single = %q", single.Error())
	}

	multi := &ValidationError{Errors: []string{"one", "two"}}
	if multi.Error() != "configuration errors:\n  - one\n  - two" {
		t.Errorf("multi = %q", multi.Error())
	}
}

func TestExpandHome(t *testing.T) {
	tests := []struct {
		path string
		home string
		want string
	}{
		{"~/.ssh/config", "/home/a", "/home/a/.ssh/config"},
		{"~", "/home/a", "/home/a"},
		{"/etc/ssh/ssh_known_hosts", "/home/a", "/etc/ssh/ssh_known_hosts"},
		{"~other/file", "/home/a", "~other/file"},
		{"~/x", "", "~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := expandHome(tt.path, tt.home); got != tt.want {
				t.Errorf("expandHome(%q, %q) = %q, want %q", tt.path, tt.home, got, tt.want)
			}
		})
	}
}
