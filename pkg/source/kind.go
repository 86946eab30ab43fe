package source

import (
	"path/filepath"
	"strings"
)

// Kind identifies one of the fixed source file roles.
type Kind int

const (
	// UserConfig is the per-user ssh client config (~/.ssh/config).
	UserConfig Kind = iota

	// UserKnownHosts is the per-user known_hosts file (~/.ssh/known_hosts).
	UserKnownHosts

	// SystemKnownHosts1 is the system-wide known_hosts file (/etc/ssh/ssh_known_hosts).
	SystemKnownHosts1

	// SystemKnownHosts2 is the legacy system-wide location (/etc/ssh_known_hosts).
	SystemKnownHosts2
)

var kindNames = [...]string{
	UserConfig:        "user_config",
	UserKnownHosts:    "user_known_hosts",
	SystemKnownHosts1: "system_known_hosts",
	SystemKnownHosts2: "system_known_hosts_legacy",
}

// Kinds returns all source kinds in query order.
func Kinds() []Kind {
	return []Kind{UserConfig, UserKnownHosts, SystemKnownHosts1, SystemKnownHosts2}
}

// String returns the stable identifier used in logs, metrics and config keys.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= UserConfig && k <= SystemKnownHosts2
}

// IsConfig reports whether the kind uses ssh_config syntax.
// All other kinds use known_hosts syntax.
func (k Kind) IsConfig() bool {
	return k == UserConfig
}

// EnvName returns the kind name in environment variable form.
// Example: UserKnownHosts → "USER_KNOWN_HOSTS"
func (k Kind) EnvName() string {
	return strings.ToUpper(k.String())
}

// ParseKind parses a kind identifier as returned by Kind.String.
// Matching is case-insensitive and accepts '-' in place of '_'.
func ParseKind(s string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range Kinds() {
		if kindNames[k] == normalized {
			return k, nil
		}
	}
	return 0, ErrUnknownKind(s)
}

// Paths maps each source kind to the file it is read from.
type Paths map[Kind]string

// DefaultPaths returns the conventional file locations for the given home directory.
func DefaultPaths(home string) Paths {
	return Paths{
		UserConfig:        filepath.Join(home, ".ssh", "config"),
		UserKnownHosts:    filepath.Join(home, ".ssh", "known_hosts"),
		SystemKnownHosts1: "/etc/ssh/ssh_known_hosts",
		SystemKnownHosts2: "/etc/ssh_known_hosts",
	}
}

// Merge returns a copy of p with every non-empty path in overrides applied.
func (p Paths) Merge(overrides Paths) Paths {
	merged := make(Paths, len(p))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}
