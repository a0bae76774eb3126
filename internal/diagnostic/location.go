package diagnostic

import (
	"strconv"
	"strings"
)

// NoColumn marks a location whose diagnostic carried no column number.
const NoColumn = -1

// Location is a source reference recognized in compiler diagnostic text.
type Location struct {
	Path     string
	Line     int
	Column   int
	Severity string
	Message  string
	Rule     string // name of the rule that recognized it
}

// HasColumn reports whether the diagnostic carried a column number.
func (l Location) HasColumn() bool { return l.Column >= 0 }

// Ref returns path:line[:column].
func (l Location) Ref() string {
	var b strings.Builder
	b.WriteString(l.Path)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(l.Line))
	if l.HasColumn() {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(l.Column))
	}
	return b.String()
}

// Headline returns the first line of the message, without continuation text.
func (l Location) Headline() string {
	if i := strings.IndexByte(l.Message, '\n'); i >= 0 {
		return l.Message[:i]
	}
	return l.Message
}
