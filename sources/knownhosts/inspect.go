package knownhosts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/ssh"
)

// hashMagic prefixes hashed host entries.
const hashMagic = "|1|"

var errMissingKey = errors.New("missing key type and key")

// Problem describes a known_hosts line that does not parse.
type Problem struct {
	Line int
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("line %d: %v", p.Line, p.Err)
}

// Report summarizes a known_hosts file.
type Report struct {
	// Entries is the number of lines that parsed as host keys.
	Entries int

	// Hashed and Plain count host patterns across all entries.
	Hashed int
	Plain  int

	// Markers counts @cert-authority and @revoked lines.
	Markers int

	Problems []Problem
}

// Valid reports whether every non-blank, non-comment line parsed.
func (r Report) Valid() bool {
	return len(r.Problems) == 0
}

// Inspect validates each line of a known_hosts file with the ssh package
// parser and counts what it finds. It is a diagnostic aid and is
// independent of Parse; a line Inspect rejects may still contribute host
// patterns to queries.
func Inspect(data []byte) Report {
	var report Report

	for i, raw := range bytes.Split(data, []byte("\n")) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		marker, hosts, _, _, _, err := ssh.ParseKnownHosts(line)
		if errors.Is(err, io.EOF) {
			// A single field with no key at all.
			err = errMissingKey
		}
		if err != nil {
			report.Problems = append(report.Problems, Problem{Line: i + 1, Err: err})
			continue
		}

		report.Entries++
		if marker != "" {
			report.Markers++
		}
		for _, h := range hosts {
			if strings.HasPrefix(h, hashMagic) {
				report.Hashed++
			} else {
				report.Plain++
			}
		}
	}

	return report
}
