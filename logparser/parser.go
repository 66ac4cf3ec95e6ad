// Package logparser parses one NCSA/Apache "combined" access-log line
// into a models.LogEntry. See spec.md §4.1 for the grammar.
package logparser

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/loggerson/loggerson/models"
)

// dateLayout matches Apache's "%d/%b/%Y:%H:%M:%S %z".
const dateLayout = "02/Jan/2006:15:04:05 -0700"

// combinedLogPattern is the anchored NCSA combined-log grammar from
// spec.md §4.1, with named groups for every field the parser cares
// about. IDENT, AUTH, PROTO and BYTES are matched but discarded.
const combinedLogPattern = `^(?P<ip>\S+) \S+ \S+ \[(?P<date>[^\]]+)\] "(?P<method>\S+) (?P<url>\S+) (?P<proto>\S+)" (?P<status>\d+) (?P<bytes>\S+) "(?P<referrer>[^"]*)" "(?P<useragent>[^"]*)"`

// compiledRegex is the process-wide immutable singleton the compiled
// automaton lives in, per spec.md §4.1 ("the compiled regex is a
// process-wide, lazily-initialized immutable singleton").
var (
	compiledRegex     *regexp.Regexp
	compiledRegexOnce sync.Once
)

func regexSingleton() *regexp.Regexp {
	compiledRegexOnce.Do(func() {
		compiledRegex = regexp.MustCompile(combinedLogPattern)
	})
	return compiledRegex
}

// ParseError carries the offending line so callers can report it,
// per spec.md §7 ("the offending line is carried in the error for
// logging").
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(line string, err error) *ParseError {
	return &ParseError{Line: line, Err: err}
}

var errNoMatch = fmt.Errorf("line does not match combined log grammar")

// ParseLine is a pure function of its input: it holds no mutable
// state and compiles no regex per call (see regexSingleton). A
// referrer of the literal value "-" becomes a nil Referrer (ABSENT).
// A useragent of "-" is not treated specially: it is kept verbatim as
// the useragent value and hashed like any other.
func ParseLine(line string) (models.LogEntry, error) {
	m := regexSingleton().FindStringSubmatch(line)
	if m == nil {
		return models.LogEntry{}, newParseError(line, errNoMatch)
	}
	names := regexSingleton().SubexpNames()

	fields := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		fields[name] = m[i]
	}

	ip := fields["ip"]
	if net.ParseIP(ip) == nil {
		return models.LogEntry{}, newParseError(line, fmt.Errorf("invalid ip %q", ip))
	}

	t, err := time.Parse(dateLayout, fields["date"])
	if err != nil {
		return models.LogEntry{}, newParseError(line, fmt.Errorf("invalid date %q: %w", fields["date"], err))
	}

	status, err := strconv.ParseInt(fields["status"], 10, 32)
	if err != nil {
		return models.LogEntry{}, newParseError(line, fmt.Errorf("invalid status %q: %w", fields["status"], err))
	}

	useragentRaw := fields["useragent"]
	referrerRaw := fields["referrer"]

	entry := models.LogEntry{
		Timestamp: t.Unix(),
		Request: models.Request{
			Method:     fields["method"],
			URL:        fields["url"],
			StatusCode: int32(status),
		},
		User: models.User{
			Hash: models.HashIdentity(ip, useragentRaw),
			Useragent: models.Useragent{
				Value: useragentRaw,
			},
		},
	}

	if referrerRaw != "-" {
		entry.Referrer = &models.Referrer{URL: referrerRaw}
	}

	return entry, nil
}
