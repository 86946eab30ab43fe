// Package matcher turns search terms and host strings into result records.
//
// Terms are regular expressions. A term of the form "user@pattern" carries a
// login name that is copied into every record it matches. Each (host, term)
// pair is evaluated independently and yields a typed Outcome, so one bad
// term or one malformed host never affects the others.
package matcher

import (
	"log/slog"
	"regexp"
	"strings"

	"gitlab.bluewillows.net/root/sshsearch/internal/metrics"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// Term is a parsed search term.
type Term struct {
	// Raw is the term as typed.
	Raw string

	// User is the login hint before '@'. Empty when the term has no '@'
	// or more than one.
	User string

	// Pattern is the host hint, compiled as a regular expression.
	Pattern string

	re  *regexp.Regexp
	err error
}

// ParseTerm splits a raw term into user and host hints and compiles the host
// hint. A term that does not compile is still returned; evaluating it yields
// Invalid outcomes.
func ParseTerm(raw string) Term {
	t := Term{Raw: raw, Pattern: raw}

	if parts := strings.Split(raw, "@"); len(parts) == 2 {
		t.User = parts[0]
		t.Pattern = parts[1]
	}

	t.re, t.err = regexp.Compile(t.Pattern)
	return t
}

// ParseTerms parses every raw term, keeping order.
func ParseTerms(raws []string) []Term {
	terms := make([]Term, len(raws))
	for i, raw := range raws {
		terms[i] = ParseTerm(raw)
	}
	return terms
}

// Err returns the compile error of the host hint, if any.
func (t Term) Err() error {
	return t.err
}

// Matches reports whether the host hint matches anywhere in host.
// An invalid term matches nothing.
func (t Term) Matches(host string) bool {
	return t.re != nil && t.re.MatchString(host)
}

// Decompose splits a host string into host and port.
//
// "[addr]:port" yields addr and the text after the first "]:", unvalidated.
// Anything else is taken as the host with the default port.
func Decompose(h string) (host, port string, reason Reason) {
	if !strings.HasPrefix(h, "[") {
		if h == "" {
			return "", "", ReasonEmptyHost
		}
		return h, source.DefaultPort, ""
	}

	host, port, found := strings.Cut(h[1:], "]:")
	if !found || port == "" {
		return "", "", ReasonMalformedBracket
	}
	if host == "" {
		return "", "", ReasonEmptyHost
	}
	return host, port, ""
}

// Evaluate matches one host string against one term.
func Evaluate(h string, t Term) Outcome {
	if t.err != nil {
		return Outcome{Kind: Invalid, Host: h, Term: t.Raw, Reason: ReasonInvalidPattern, Err: t.err}
	}
	if !t.Matches(h) {
		return Outcome{Kind: NoMatch, Host: h, Term: t.Raw}
	}

	host, port, reason := Decompose(h)
	if reason != "" {
		return Outcome{Kind: Invalid, Host: h, Term: t.Raw, Reason: reason}
	}

	return Outcome{
		Kind:   Match,
		Host:   h,
		Term:   t.Raw,
		Record: source.HostRecord{User: t.User, Host: host, Port: port},
	}
}

// Engine evaluates terms against host lists and aggregates the outcomes.
type Engine struct {
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for Invalid outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every host against every term, host-major, and collects the
// matches in that order. Invalid outcomes are logged at debug level, counted
// and returned in the report; they never stop the run.
func (e *Engine) Run(hosts []string, terms []Term) Report {
	var report Report
	if len(terms) == 0 {
		return report
	}

	for _, h := range hosts {
		for _, t := range terms {
			out := Evaluate(h, t)
			switch out.Kind {
			case Match:
				report.Records = append(report.Records, out.Record)
			case Invalid:
				e.invalid(out)
				report.Invalid = append(report.Invalid, out)
			}
		}
	}

	return report
}

// Query parses raw terms and runs them against hosts.
func (e *Engine) Query(hosts []string, raws []string) Report {
	return e.Run(hosts, ParseTerms(raws))
}

func (e *Engine) invalid(out Outcome) {
	attrs := []any{
		slog.String("host", out.Host),
		slog.String("term", out.Term),
		slog.String("reason", string(out.Reason)),
	}
	if out.Err != nil {
		attrs = append(attrs, slog.String("error", out.Err.Error()))
	}
	e.logger.Debug("skipping host/term pair", attrs...)
	metrics.QueryInvalidTotal.WithLabelValues(string(out.Reason)).Inc()
}
