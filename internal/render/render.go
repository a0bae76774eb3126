package render

import (
	"fmt"
	"strings"

	"cwhy/internal/diagnostic"
	"cwhy/internal/dispatch"
)

// Failure kinds named in user-facing errors.
const (
	KindTimeout   = "timeout"
	KindTransport = "transport error"
	KindModel     = "model error"
)

// FailureError is a dispatch failure ready to show the user.
type FailureError struct {
	Kind   string
	Detail string
}

func (e *FailureError) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Detail
}

// Locations renders one "path:line[:column]: message" line per location.
func Locations(locs []diagnostic.Location) string {
	var b strings.Builder
	for _, l := range locs {
		b.WriteString(l.Ref())
		if h := l.Headline(); h != "" {
			b.WriteString(": ")
			b.WriteString(h)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Result renders a dispatch outcome. Model text is returned verbatim; every
// failure becomes a *FailureError and no text.
func Result(r dispatch.Result) (string, error) {
	switch r := r.(type) {
	case dispatch.Success:
		if r.Text == "" || strings.HasSuffix(r.Text, "\n") {
			return r.Text, nil
		}
		return r.Text + "\n", nil
	case dispatch.Timeout:
		return "", &FailureError{Kind: KindTimeout, Detail: fmt.Sprintf("no response from the model within %s", r.After)}
	case dispatch.TransportError:
		return "", &FailureError{Kind: KindTransport, Detail: r.Detail}
	case dispatch.ModelError:
		return "", &FailureError{Kind: KindModel, Detail: r.Detail}
	default:
		panic(fmt.Sprintf("render: unknown dispatch result %T", r))
	}
}
