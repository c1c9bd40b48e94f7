package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity of a diagnostic record.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one parsed record from an extraction tool's error stream.
// Line is -1 when the tool reported no location.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
}

// HasLocation reports whether the record carries a file position.
func (d Diagnostic) HasLocation() bool {
	return d.Line != -1
}

// String renders the record for reports and logs.
func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	if !d.HasLocation() {
		return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
}

// gettext tools print "file:line: message", "file:line:col: message" or
// "program: message". Warnings carry a "warning: " prefix on the message.
var toolLineRe = regexp.MustCompile(`^(.+?):(\d+)(?::\d+)?:\s*(.*)$`)

// ParseToolOutput parses an extraction tool's stderr into diagnostic
// records, one per line. Lines produced by the tool about itself (prefixed
// with the program name) have the prefix stripped; blank lines and usage
// noise are dropped.
func ParseToolOutput(stderr string, program string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if program != "" {
			line = strings.TrimPrefix(line, program+": ")
		}

		d := Diagnostic{Severity: SeverityError, Line: -1}
		if m := toolLineRe.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[1], " ") {
			d.File = m[1]
			if n, err := strconv.Atoi(m[2]); err == nil {
				d.Line = n
			}
			line = m[3]
		}
		if rest, ok := cutPrefixFold(line, "warning: "); ok {
			d.Severity = SeverityWarning
			line = rest
		} else if rest, ok := cutPrefixFold(line, "error: "); ok {
			line = rest
		}
		d.Message = line
		if d.Message == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
