package matcher

import (
	"fmt"

	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// OutcomeKind classifies the result of evaluating one (host, term) pair.
type OutcomeKind int

const (
	// NoMatch means the term did not match the host.
	NoMatch OutcomeKind = iota

	// Match means the term matched and Record is set.
	Match

	// Invalid means the pair was skipped; Reason says why.
	Invalid
)

func (k OutcomeKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case Match:
		return "match"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Reason explains an Invalid outcome. Values are used as metric labels.
type Reason string

const (
	// ReasonInvalidPattern means the host hint is not a valid regular expression.
	ReasonInvalidPattern Reason = "invalid_pattern"

	// ReasonMalformedBracket means a "[" host has no "]:" or no port after it.
	ReasonMalformedBracket Reason = "malformed_bracket"

	// ReasonEmptyHost means decomposition left no host name.
	ReasonEmptyHost Reason = "empty_host"
)

// Outcome is the result of evaluating one host string against one term.
type Outcome struct {
	Kind OutcomeKind

	// Host and Term identify the pair.
	Host string
	Term string

	// Record is set when Kind is Match.
	Record source.HostRecord

	// Reason and Err are set when Kind is Invalid. Err is only set for
	// ReasonInvalidPattern.
	Reason Reason
	Err    error
}

func (o Outcome) String() string {
	switch o.Kind {
	case Match:
		return fmt.Sprintf("match(%s)", o.Record.DisplayName())
	case Invalid:
		return fmt.Sprintf("invalid(%s: host=%q term=%q)", o.Reason, o.Host, o.Term)
	default:
		return "no_match"
	}
}

// Report aggregates the outcomes of a query.
type Report struct {
	// Records holds the matches in evaluation order. Not deduplicated.
	Records source.HostRecords

	// Invalid holds the skipped pairs, for diagnostics.
	Invalid []Outcome
}

// Append adds the contents of other after the contents of r.
func (r *Report) Append(other Report) {
	r.Records = append(r.Records, other.Records...)
	r.Invalid = append(r.Invalid, other.Invalid...)
}

// InvalidReasons counts Invalid outcomes by reason.
func (r Report) InvalidReasons() map[Reason]int {
	counts := make(map[Reason]int)
	for _, o := range r.Invalid {
		counts[o.Reason]++
	}
	return counts
}
