package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"cwhy/internal/diagnostic"
)

const (
	// DefaultWindow is the number of lines shown on each side of a location.
	DefaultWindow = 3
	// MaxFileBytes bounds how much of a single file is ever read.
	MaxFileBytes = 8 << 20

	cacheEntries = 64
)

var errTooLarge = errors.New("source: file exceeds size limit")

// Line is one numbered source line.
type Line struct {
	Number int
	Text   string
}

// Snippet is the window of source around a location. Truncated is set when
// the file was unavailable or the window was clipped by a file boundary.
type Snippet struct {
	Location  diagnostic.Location
	Lines     []Line
	Truncated bool
}

// Available reports whether any source lines were found.
func (s Snippet) Available() bool { return len(s.Lines) > 0 }

// ReadFileFunc loads a whole file.
type ReadFileFunc func(path string) ([]byte, error)

// Option configures an Assembler.
type Option func(*Assembler)

// WithReadFile replaces the file reader.
func WithReadFile(fn ReadFileFunc) Option {
	return func(a *Assembler) {
		if fn != nil {
			a.readFile = fn
		}
	}
}

// Assembler reads source windows around diagnostic locations. File contents
// are cached so repeated locations in one file are read once.
type Assembler struct {
	readFile ReadFileFunc
	files    *lru.Cache[string, fileEntry]
}

type fileEntry struct {
	lines []string
	err   error
}

// NewAssembler creates an Assembler reading from the local filesystem.
func NewAssembler(opts ...Option) *Assembler {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, fileEntry](cacheEntries)
	a := &Assembler{readFile: readFileLimited, files: cache}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the lines [line-window, line+window] around loc, clipped
// to the file. Unreadable files and out-of-range lines produce an empty,
// truncated snippet rather than an error.
func (a *Assembler) Assemble(loc diagnostic.Location, window int) Snippet {
	if window < 0 {
		window = 0
	}
	out := Snippet{Location: loc, Lines: []Line{}}
	lines, err := a.load(loc.Path)
	if err != nil || loc.Line < 1 || loc.Line > len(lines) {
		out.Truncated = true
		return out
	}
	start := loc.Line - window
	end := loc.Line + window
	if start < 1 {
		start = 1
		out.Truncated = true
	}
	if end > len(lines) {
		end = len(lines)
		out.Truncated = true
	}
	for n := start; n <= end; n++ {
		out.Lines = append(out.Lines, Line{Number: n, Text: lines[n-1]})
	}
	return out
}

func (a *Assembler) load(path string) ([]string, error) {
	if e, ok := a.files.Get(path); ok {
		return e.lines, e.err
	}
	var e fileEntry
	b, err := a.readFile(path)
	if err != nil {
		e.err = err
	} else {
		e.lines = splitLines(string(b))
	}
	a.files.Add(path, e)
	return e.lines, e.err
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

func readFileLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("source: %s is a directory", path)
	}
	if st.Size() > MaxFileBytes {
		return nil, errTooLarge
	}
	return io.ReadAll(io.LimitReader(f, MaxFileBytes))
}
