// Package sshconfig extracts host aliases from OpenSSH client config files.
//
// Only "Host" lines that start at column 0 are recognized. Indented Host
// lines, Match blocks, Include directives and quoting are not interpreted.
//
// Example:
//
//	Host web1 web2
//	    HostName 10.0.0.5
//	Host db
//
// yields ["web1", "web2", "db"].
package sshconfig

import "strings"

// hostKeyword is matched case-insensitively at the start of a line.
const hostKeyword = "host "

// Parse returns the Host aliases in data, in file order.
//
// The text after the keyword is split on single spaces, so consecutive
// spaces produce empty tokens and duplicates are kept as written.
func Parse(data []byte) []string {
	var hosts []string

	for _, line := range splitLines(data) {
		if len(line) < len(hostKeyword) || !strings.EqualFold(line[:len(hostKeyword)], hostKeyword) {
			continue
		}
		hosts = append(hosts, strings.Split(line[len(hostKeyword):], " ")...)
	}

	return hosts
}

// splitLines splits on '\n' and drops a trailing '\r' from each line.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
