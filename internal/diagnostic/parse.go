package diagnostic

import "strings"

// Parser extracts locations from diagnostic text using an ordered rule set.
type Parser struct {
	rules []Rule
}

// NewParser returns a parser trying rules in the given order. With no rules,
// DefaultRules is used.
func NewParser(rules ...Rule) *Parser {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

var defaultParser = NewParser()

// Parse extracts locations from raw with the default rules.
func Parse(raw string) []Location {
	return defaultParser.Parse(raw)
}

// Parse scans raw line by line. Lines no rule recognizes are appended to the
// previous location's message, or dropped when nothing has been recognized
// yet. Repeated locations are kept in order.
func (p *Parser) Parse(raw string) []Location {
	out := []Location{}
	for _, line := range strings.Split(raw, "\n") {
		line = stripANSI(strings.TrimRight(line, "\r"))
		if strings.TrimSpace(line) == "" {
			continue
		}
		if loc, ok := p.match(line); ok {
			out = append(out, loc)
			continue
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Message == "" {
				last.Message = strings.TrimRight(line, " \t")
			} else {
				last.Message += "\n" + strings.TrimRight(line, " \t")
			}
		}
	}
	return out
}

func (p *Parser) match(line string) (Location, bool) {
	for _, r := range p.rules {
		if loc, ok := r.Match(line); ok {
			loc.Rule = r.Name()
			return loc, true
		}
	}
	return Location{}, false
}
