package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"

	"cwhy/internal/config"
	"cwhy/internal/diagnostic"
	"cwhy/internal/dispatch"
	"cwhy/internal/llm"
	"cwhy/internal/prompt"
	"cwhy/internal/render"
)

const (
	ExitOK      = 0
	ExitFailure = 1
)

// Pipeline runs parse, assemble, build, dispatch and render for one input.
type Pipeline struct {
	builder    *prompt.Builder
	dispatcher *dispatch.Dispatcher
	log        *log.Logger
	errColor   *color.Color
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic logger. It defaults to discarding output.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithBuilder replaces the prompt builder.
func WithBuilder(b *prompt.Builder) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.builder = b
		}
	}
}

// New returns a pipeline dispatching through c.
func New(c llm.Completer, opts ...Option) *Pipeline {
	p := &Pipeline{
		builder:    prompt.NewBuilder(nil),
		dispatcher: dispatch.New(c),
		log:        log.New(io.Discard, "", 0),
		errColor:   color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes input according to cfg and returns the process exit code.
// Empty input is a no-op. Only dispatch failures exit non-zero.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config, input string, stdout, stderr io.Writer) int {
	if strings.TrimSpace(input) == "" {
		p.log.Printf("empty input; nothing to do")
		return ExitOK
	}
	locs := diagnostic.Parse(input)
	p.log.Printf("parsed %d locations", len(locs))

	if cfg.Mode == config.ModeExtractSources {
		io.WriteString(stdout, render.Locations(locs))
		return ExitOK
	}

	payload := p.builder.Build(input, locs, cfg)
	p.log.Printf("payload: %d of %d locations kept (max %d), ~%d tokens",
		len(payload.Snippets), len(locs), payload.Budget, payload.EstimatedTokens())

	if cfg.ShowPrompt {
		io.WriteString(stdout, FormatMessages(payload.Messages()))
		return ExitOK
	}

	res := p.dispatcher.Dispatch(ctx, payload, cfg.Model, cfg.Timeout())
	out, err := render.Result(res)
	if err != nil {
		p.errColor.Fprintf(stderr, "cwhy: %v\n", err)
		return ExitFailure
	}
	io.WriteString(stdout, out)
	return ExitOK
}

// FormatMessages renders a conversation for --show-prompt.
func FormatMessages(msgs []llm.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "===== %s =====\n", m.Role)
		b.WriteString(m.Content)
		if !strings.HasSuffix(m.Content, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
