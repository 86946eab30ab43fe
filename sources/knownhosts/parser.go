// Package knownhosts extracts host patterns from OpenSSH known_hosts files.
//
// Only the first field of each line is looked at. Hashed entries
// (HashKnownHosts format) cannot be reversed to a host name and are skipped.
package knownhosts

import "strings"

// hashedFieldLen is the length of a "|1|salt|hash" host field:
// a 3 byte magic, two base64-encoded SHA-1 sized values and a separator.
const hashedFieldLen = 60

// Parse returns the host patterns in data, in file order.
//
// The field before the first space is split on commas. Bracketed
// "[addr]:port" forms, wildcard patterns and marker tokens are passed
// through unmodified. Blank lines contribute nothing.
func Parse(data []byte) []string {
	var hosts []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		field, _, _ := strings.Cut(line, " ")
		if IsHashed(field) {
			continue
		}
		hosts = append(hosts, strings.Split(field, ",")...)
	}

	return hosts
}

// IsHashed reports whether a host field is a hashed entry.
func IsHashed(field string) bool {
	return len(field) == hashedFieldLen
}
