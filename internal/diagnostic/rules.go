package diagnostic

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule recognizes a single diagnostic line. A rule that does not recognize
// the line returns false and the parser moves on to the next rule. The parser
// labels matches with Name.
type Rule interface {
	Name() string
	Match(line string) (Location, bool)
}

// drive accepts an optional Windows drive prefix so its colon is never taken
// as the line separator.
const drive = `(?:[A-Za-z]:[\\/])?`

var (
	reInclude = regexp.MustCompile(`^(?:In file included from|\s+from)\s+(` + drive + `[^\s:][^:]*?):(\d+)(?::(\d+))?[,:]?\s*$`)
	reGNU     = regexp.MustCompile(`^(` + drive + `[^\s:][^:]*?):(\d+)(?::(\d+)(?::|\s)|:)\s*(.*)$`)
	reMSVC    = regexp.MustCompile(`^(` + drive + `[^\s(:][^(:]*?)\((\d+)(?:,(\d+))?\)\s*:\s*(.*)$`)

	reSeverity = regexp.MustCompile(`^(fatal error|error|warning|note|remark)(?:\s+[A-Z]+\d+)?:`)
)

// DefaultRules returns the built-in recognizers in priority order.
func DefaultRules() []Rule {
	return []Rule{
		regexRule{name: "include", re: reInclude, fixedMessage: "included from here"},
		regexRule{name: "gnu", re: reGNU},
		regexRule{name: "msvc", re: reMSVC},
	}
}

// regexRule matches path, line, optional column and optional message as
// submatches 1 through 4.
type regexRule struct {
	name         string
	re           *regexp.Regexp
	fixedMessage string
}

func (r regexRule) Name() string { return r.name }

func (r regexRule) Match(line string) (Location, bool) {
	m := r.re.FindStringSubmatch(line)
	if m == nil {
		return Location{}, false
	}
	ln, err := strconv.Atoi(m[2])
	if err != nil || ln < 1 {
		return Location{}, false
	}
	col := NoColumn
	if m[3] != "" {
		c, err := strconv.Atoi(m[3])
		if err != nil {
			return Location{}, false
		}
		col = c
	}
	msg := r.fixedMessage
	if msg == "" && len(m) > 4 {
		msg = strings.TrimSpace(m[4])
	}
	return Location{
		Path:     m[1],
		Line:     ln,
		Column:   col,
		Severity: severityOf(msg),
		Message:  msg,
	}, true
}

func severityOf(msg string) string {
	if m := reSeverity.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}

// reANSI matches SGR and erase-line sequences emitted with
// -fdiagnostics-color=always.
var reANSI = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	return reANSI.ReplaceAllString(s, "")
}
