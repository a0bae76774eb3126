package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhy/internal/diagnostic"
	"cwhy/internal/dispatch"
)

func TestLocations_RoundTrip(t *testing.T) {
	out := Locations(diagnostic.Parse("/tmp/a.cpp:10:5: error: foo"))
	assert.Equal(t, "/tmp/a.cpp:10:5: error: foo\n", out)
}

func TestLocations_Empty(t *testing.T) {
	assert.Equal(t, "", Locations(nil))
	assert.Equal(t, "", Locations(diagnostic.Parse("collect2: error: ld returned 1 exit status")))
}

func TestLocations_OneLinePerLocation(t *testing.T) {
	locs := diagnostic.Parse("a.c:3: warning: w\n  continuation\nb.c(4,2): error C1: e\n")
	assert.Equal(t, "a.c:3: warning: w\nb.c:4:2: error C1: e\n", Locations(locs))
}

func TestLocations_NoMessage(t *testing.T) {
	locs := []diagnostic.Location{{Path: "x.h", Line: 2, Column: diagnostic.NoColumn}}
	assert.Equal(t, "x.h:2\n", Locations(locs))
}

func TestResult_SuccessVerbatim(t *testing.T) {
	out, err := Result(dispatch.Success{Text: "Line 10 uses an undeclared name.\n"})
	require.NoError(t, err)
	assert.Equal(t, "Line 10 uses an undeclared name.\n", out)

	out, err = Result(dispatch.Success{Text: "no newline"})
	require.NoError(t, err)
	assert.Equal(t, "no newline\n", out)
}

func TestResult_FailuresNameKind(t *testing.T) {
	cases := []struct {
		in   dispatch.Result
		kind string
	}{
		{dispatch.Timeout{After: 60 * time.Second}, KindTimeout},
		{dispatch.TransportError{Detail: "connection refused"}, KindTransport},
		{dispatch.ModelError{Detail: "blocked"}, KindModel},
	}
	for _, c := range cases {
		out, err := Result(c.in)
		assert.Empty(t, out)
		var fe *FailureError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, c.kind, fe.Kind)
		assert.Contains(t, err.Error(), c.kind)
	}
}

func TestResult_TimeoutMentionsDuration(t *testing.T) {
	_, err := Result(dispatch.Timeout{After: 5 * time.Second})
	assert.EqualError(t, err, "timeout: no response from the model within 5s")
}
