package wrapper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"text/template"

	"cwhy/internal/config"
)

// ExecCommand is the hidden subcommand the generated script calls back into.
const ExecCommand = "wrapper-exec"

var scriptTmpl = template.Must(template.New("wrapper").Parse(`#!/bin/sh
# Generated by cwhy: runs {{.Compiler}} and asks {{.Model}} about failed builds.
exec {{.Self}} {{.Flags}} {{.Exec}} --mode {{.Mode}} -- {{.QuotedCompiler}} "$@"
`))

// ScriptOptions describes the wrapper to generate.
type ScriptOptions struct {
	Self   string // path to the cwhy executable
	Config config.Config
}

// Script renders a POSIX shell script that substitutes for the compiler.
func Script(opts ScriptOptions) (string, error) {
	cfg := opts.Config
	if opts.Self == "" {
		return "", errors.New("wrapper: executable path is empty")
	}
	if strings.TrimSpace(cfg.WrapperCompiler) == "" {
		return "", errors.New("wrapper: compiler is empty")
	}
	flags := []string{
		"--" + config.KeyModel, cfg.Model,
		"--" + config.KeyTimeout, strconv.Itoa(cfg.TimeoutSeconds),
		"--" + config.KeyMaxContext, strconv.Itoa(cfg.MaxContext),
		"--" + config.KeyProvider, string(cfg.Provider),
	}
	if cfg.BaseURL != "" {
		flags = append(flags, "--"+config.KeyBaseURL, cfg.BaseURL)
	}
	if cfg.Proxy != "" {
		flags = append(flags, "--"+config.KeyProxy, cfg.Proxy)
	}
	if cfg.ShowPrompt {
		flags = append(flags, "--"+config.KeyShowPrompt)
	}
	if cfg.Verbose {
		flags = append(flags, "--"+config.KeyVerbose)
	}

	quoted := make([]string, len(flags))
	for i, f := range flags {
		quoted[i] = Quote(f)
	}
	var buf bytes.Buffer
	err := scriptTmpl.Execute(&buf, map[string]string{
		"Self":           Quote(opts.Self),
		"Flags":          strings.Join(quoted, " "),
		"Exec":           ExecCommand,
		"Compiler":       cfg.WrapperCompiler,
		"QuotedCompiler": Quote(cfg.WrapperCompiler),
		"Model":          cfg.Model,
		"Mode":           Quote(string(cfg.Mode)),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteScript writes the script to an executable temp file and returns its path.
func WriteScript(opts ScriptOptions) (string, error) {
	body, err := Script(opts)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "cwhy-wrapper-*.sh")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(f.Name(), 0o755); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Quote single-quotes s for a POSIX shell.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=+,@%", r)
}

// Capture is what the real compiler produced.
type Capture struct {
	Diagnostics string
	ExitCode    int
}

// Failed reports whether the compiler exited non-zero.
func (c Capture) Failed() bool { return c.ExitCode != 0 }

// Run executes compiler with args. stdin and stdout pass straight through;
// stderr is copied to the caller and captured. A non-zero exit is reported in
// the Capture, not as an error.
func Run(ctx context.Context, compiler string, args []string, stdin io.Reader, stdout, stderr io.Writer) (Capture, error) {
	var diag bytes.Buffer
	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &diag)

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Capture{Diagnostics: diag.String()}, nil
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return Capture{Diagnostics: diag.String(), ExitCode: code}, nil
	default:
		return Capture{}, fmt.Errorf("wrapper: run %s: %w", compiler, err)
	}
}
