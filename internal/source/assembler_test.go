package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhy/internal/diagnostic"
)

func writeLines(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\n")
	}
	p := filepath.Join(t.TempDir(), "src.cpp")
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func numbers(s Snippet) []int {
	out := make([]int, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Number
	}
	return out
}

func TestAssemble_MissingFile(t *testing.T) {
	a := NewAssembler()
	loc := diagnostic.Location{Path: filepath.Join(t.TempDir(), "nope.cpp"), Line: 3, Column: 1}
	s := a.Assemble(loc, DefaultWindow)
	assert.True(t, s.Truncated)
	assert.Empty(t, s.Lines)
	assert.False(t, s.Available())
	assert.Equal(t, loc, s.Location)
}

func TestAssemble_MiddleOfFile(t *testing.T) {
	p := writeLines(t, 20)
	s := NewAssembler().Assemble(diagnostic.Location{Path: p, Line: 10}, 3)
	assert.False(t, s.Truncated)
	assert.Equal(t, []int{7, 8, 9, 10, 11, 12, 13}, numbers(s))
}

func TestAssemble_ClippedAtStart(t *testing.T) {
	p := writeLines(t, 20)
	s := NewAssembler().Assemble(diagnostic.Location{Path: p, Line: 2}, 3)
	assert.True(t, s.Truncated)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, numbers(s))
}

func TestAssemble_ClippedAtEnd(t *testing.T) {
	p := writeLines(t, 5)
	s := NewAssembler().Assemble(diagnostic.Location{Path: p, Line: 5}, 3)
	assert.True(t, s.Truncated)
	assert.Equal(t, []int{2, 3, 4, 5}, numbers(s))
}

func TestAssemble_LinePastEnd(t *testing.T) {
	p := writeLines(t, 5)
	s := NewAssembler().Assemble(diagnostic.Location{Path: p, Line: 50}, 3)
	assert.True(t, s.Truncated)
	assert.Empty(t, s.Lines)
}

func TestAssemble_Directory(t *testing.T) {
	s := NewAssembler().Assemble(diagnostic.Location{Path: t.TempDir(), Line: 1}, 3)
	assert.True(t, s.Truncated)
	assert.Empty(t, s.Lines)
}

func TestAssemble_ZeroWindow(t *testing.T) {
	p := writeLines(t, 5)
	s := NewAssembler().Assemble(diagnostic.Location{Path: p, Line: 3}, 0)
	assert.False(t, s.Truncated)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 3, s.Lines[0].Number)
}

func TestAssemble_CRLFSource(t *testing.T) {
	reads := func(string) ([]byte, error) { return []byte("a\r\nb\r\nc\r\n"), nil }
	s := NewAssembler(WithReadFile(reads)).Assemble(diagnostic.Location{Path: "x", Line: 2}, 1)
	assert.Equal(t, []Line{{1, "a"}, {2, "b"}, {3, "c"}}, s.Lines)
}

func TestAssemble_CachesFileContents(t *testing.T) {
	calls := map[string]int{}
	read := func(path string) ([]byte, error) {
		calls[path]++
		if path == "missing.h" {
			return nil, errors.New("not found")
		}
		return []byte("one\ntwo\nthree\n"), nil
	}
	a := NewAssembler(WithReadFile(read))
	a.Assemble(diagnostic.Location{Path: "t.cpp", Line: 1}, 1)
	a.Assemble(diagnostic.Location{Path: "t.cpp", Line: 2}, 1)
	a.Assemble(diagnostic.Location{Path: "missing.h", Line: 1}, 1)
	s := a.Assemble(diagnostic.Location{Path: "missing.h", Line: 1}, 1)

	assert.Equal(t, 1, calls["t.cpp"])
	assert.Equal(t, 1, calls["missing.h"])
	assert.True(t, s.Truncated)
}
