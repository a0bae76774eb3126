package prompt

import (
	"fmt"
	"strings"

	"cwhy/internal/config"
	"cwhy/internal/diagnostic"
	"cwhy/internal/llm"
	"cwhy/internal/source"
)

const explainInstructions = `You are an expert in C, C++ and other natively compiled languages, helping a developer understand a failed build.
You are given the compiler diagnostics and, where available, the source lines they point at.
Explain what the diagnostic means and identify the root cause. Compilers usually report the root cause first; later messages are often consequences.
Refer to files and line numbers when useful. Be concise and do not restate the diagnostic verbatim.`

const fixInstructions = `You are an expert in C, C++ and other natively compiled languages, helping a developer fix a failed build.
You are given the compiler diagnostics and, where available, the source lines they point at.
Propose a concrete fix for the root cause as a patch in unified diff format against the files shown, followed by a short explanation of why it fixes the problem.
Only change what is needed. If the source shown is not enough to write a patch, say what is missing and describe the change in words.`

// Instructions returns the system instruction for mode.
func Instructions(mode config.Mode) string {
	switch mode {
	case config.ModeFix:
		return fixInstructions
	default:
		return explainInstructions
	}
}

// Payload is the conversation content for one dispatch.
type Payload struct {
	Mode           config.Mode
	Instructions   string
	DiagnosticText string
	Snippets       []source.Snippet
	Budget         int
}

// Builder assembles payloads from diagnostics.
type Builder struct {
	assembler *source.Assembler
	window    int
}

// NewBuilder returns a builder reading context through a. A nil assembler
// reads from the local filesystem.
func NewBuilder(a *source.Assembler) *Builder {
	if a == nil {
		a = source.NewAssembler()
	}
	return &Builder{assembler: a, window: source.DefaultWindow}
}

// Build keeps the first cfg.MaxContext locations in order of appearance and
// attaches a source snippet to each. Later locations are dropped along with
// their snippets. extract-sources never reaches the builder.
func (b *Builder) Build(diagnosticText string, locs []diagnostic.Location, cfg config.Config) Payload {
	if cfg.Mode == config.ModeExtractSources {
		panic("prompt: Build called for extract-sources")
	}
	budget := cfg.MaxContext
	if budget < 0 {
		budget = 0
	}
	keep := locs
	if len(keep) > budget {
		keep = keep[:budget]
	}
	snippets := make([]source.Snippet, 0, len(keep))
	for _, loc := range keep {
		snippets = append(snippets, b.assembler.Assemble(loc, b.window))
	}
	return Payload{
		Mode:           cfg.Mode,
		Instructions:   Instructions(cfg.Mode),
		DiagnosticText: diagnosticText,
		Snippets:       snippets,
		Budget:         budget,
	}
}

// Messages renders the payload as a system + user conversation.
func (p Payload) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.Instructions},
		{Role: llm.RoleUser, Content: p.UserContent()},
	}
}

// EstimatedTokens is a rough size of the whole conversation.
func (p Payload) EstimatedTokens() int {
	return llm.CountMessageTokens(p.Messages())
}

// UserContent renders the source context followed by the diagnostics.
func (p Payload) UserContent() string {
	var buf strings.Builder
	if len(p.Snippets) > 0 {
		var ctx strings.Builder
		for _, s := range p.Snippets {
			writeSnippet(&ctx, s)
		}
		writeSection(&buf, "SOURCE CONTEXT", ctx.String())
	}
	writeSection(&buf, "DIAGNOSTIC", "```\n"+strings.TrimRight(p.DiagnosticText, "\n")+"\n```")
	return strings.TrimSpace(buf.String()) + "\n"
}

func writeSnippet(buf *strings.Builder, s source.Snippet) {
	loc := s.Location
	if !s.Available() {
		fmt.Fprintf(buf, "%s: (source unavailable)\n\n", loc.Ref())
		return
	}
	first, last := s.Lines[0].Number, s.Lines[len(s.Lines)-1].Number
	width := len(fmt.Sprint(last))
	fmt.Fprintf(buf, "File `%s`, lines %d-%d (diagnostic at line %d):\n```\n", loc.Path, first, last, loc.Line)
	for _, l := range s.Lines {
		marker := " "
		if l.Number == loc.Line {
			marker = ">"
		}
		fmt.Fprintf(buf, "%s %*d | %s\n", marker, width, l.Number, l.Text)
	}
	buf.WriteString("```\n\n")
}

func writeSection(buf *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
