package source

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is the SSH port assumed for hosts without an explicit port.
const DefaultPort = "22"

// HostRecord is a candidate search result.
//
// Records are built fresh for every query and have no identity beyond their
// field values. Two records with identical fields are interchangeable.
type HostRecord struct {
	// User is the login name taken from a "user@" search term. May be empty.
	User string `json:"user"`

	// Host is the host name, alias or address to connect to. Never empty.
	Host string `json:"host"`

	// Port is kept as the text found in the source ("22" by default).
	// Bracketed known_hosts entries carry their port unvalidated.
	Port string `json:"port"`
}

// HasDefaultPort reports whether the record uses the standard SSH port.
func (r HostRecord) HasDefaultPort() bool {
	return r.Port == "" || r.Port == DefaultPort
}

// Target returns "user@host", or just "host" when no user is set.
func (r HostRecord) Target() string {
	if r.User == "" {
		return r.Host
	}
	return r.User + "@" + r.Host
}

// DisplayName returns "user@host:port", leaving out "user@" when the user is
// empty and ":port" when the port is the default.
func (r HostRecord) DisplayName() string {
	if r.HasDefaultPort() {
		return r.Target()
	}
	return r.Target() + ":" + r.Port
}

// SSHCommand returns the command line that opens a session to the record.
// The -p option is only added for non-default ports because the host may be
// a config alias that already carries its own port. The target always
// follows "--" so it is never read as an ssh option.
func (r HostRecord) SSHCommand() string {
	var b strings.Builder
	b.WriteString("ssh ")
	if !r.HasDefaultPort() {
		b.WriteString("-p ")
		b.WriteString(r.Port)
		b.WriteString(" ")
	}
	b.WriteString("-- ")
	b.WriteString(r.Target())
	return b.String()
}

// Validate checks that the record is safe to hand to a terminal as an ssh
// command line. Host and user may only contain letters, digits and ".-_"
// (plus ":%" in hosts for IPv6 literals) and must not start with '-'. The
// port must be empty or a decimal number from 1 to 65535.
func (r HostRecord) Validate() error {
	if r.Host == "" {
		return &RecordValidationError{Field: "host", Value: r.Host, Reason: "must not be empty"}
	}
	if reason := checkToken(r.Host, isHostByte); reason != "" {
		return &RecordValidationError{Field: "host", Value: r.Host, Reason: reason}
	}
	if r.User != "" {
		if reason := checkToken(r.User, isUserByte); reason != "" {
			return &RecordValidationError{Field: "user", Value: r.User, Reason: reason}
		}
	}
	if r.Port != "" {
		if !isDigits(r.Port) {
			return &RecordValidationError{Field: "port", Value: r.Port, Reason: "must be a decimal number"}
		}
		n, err := strconv.Atoi(r.Port)
		if err != nil || n < 1 || n > 65535 {
			return &RecordValidationError{Field: "port", Value: r.Port, Reason: "must be between 1 and 65535"}
		}
	}
	return nil
}

func checkToken(s string, allowed func(byte) bool) string {
	if s[0] == '-' {
		return "must not start with '-'"
	}
	for i := 0; i < len(s); i++ {
		if !allowed(s[i]) {
			return fmt.Sprintf("contains invalid character %q", s[i])
		}
	}
	return ""
}

func isUserByte(b byte) bool {
	return isAlphanumeric(b) || b == '.' || b == '-' || b == '_'
}

func isHostByte(b byte) bool {
	return isUserByte(b) || b == ':' || b == '%'
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the display name.
func (r HostRecord) String() string {
	return r.DisplayName()
}

// HostRecords is a slice of HostRecord with helper methods.
type HostRecords []HostRecord

// DisplayNames returns the display name of every record.
func (rs HostRecords) DisplayNames() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.DisplayName()
	}
	return names
}

// Deduplicate returns a new slice with duplicate records removed.
// The first occurrence of each record is kept.
//
// Queries never deduplicate on their own; this is an optional
// post-processing step for consumers that want unique results.
func (rs HostRecords) Deduplicate() HostRecords {
	seen := make(map[HostRecord]struct{}, len(rs))
	result := make(HostRecords, 0, len(rs))

	for _, r := range rs {
		if _, exists := seen[r]; !exists {
			seen[r] = struct{}{}
			result = append(result, r)
		}
	}

	return result
}
