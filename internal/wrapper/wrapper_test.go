package wrapper

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhy/internal/config"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, "clang++", Quote("clang++"))
	assert.Equal(t, "/usr/bin/g++-13", Quote("/usr/bin/g++-13"))
	assert.Equal(t, "''", Quote(""))
	assert.Equal(t, "'my compiler'", Quote("my compiler"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
	assert.Equal(t, "'$(rm -rf /)'", Quote("$(rm -rf /)"))
}

func TestScript(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeFix
	cfg.Model = "gpt-4o"
	cfg.WrapperCompiler = "clang++"
	cfg.Proxy = "http://proxy:3128"

	out, err := Script(ScriptOptions{Self: "/opt/cwhy bin/cwhy", Config: cfg})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#!/bin/sh", lines[0])
	assert.Equal(t,
		`exec '/opt/cwhy bin/cwhy' --llm gpt-4o --timeout 60 --max-context 30 --provider auto --proxy http://proxy:3128 wrapper-exec --mode fix -- clang++ "$@"`,
		lines[2])
}

func TestScript_ForwardsBooleanFlags(t *testing.T) {
	cfg := config.Default()
	out, err := Script(ScriptOptions{Self: "/usr/bin/cwhy", Config: cfg})
	require.NoError(t, err)
	assert.NotContains(t, out, "--verbose")
	assert.NotContains(t, out, "--show-prompt")

	cfg.Verbose = true
	cfg.ShowPrompt = true
	out, err = Script(ScriptOptions{Self: "/usr/bin/cwhy", Config: cfg})
	require.NoError(t, err)
	assert.Contains(t, out, "--provider auto --show-prompt --verbose wrapper-exec --mode explain -- c++ \"$@\"")
}

func TestScript_Validation(t *testing.T) {
	_, err := Script(ScriptOptions{Config: config.Default()})
	assert.Error(t, err)

	cfg := config.Default()
	cfg.WrapperCompiler = " "
	_, err = Script(ScriptOptions{Self: "cwhy", Config: cfg})
	assert.Error(t, err)
}

func TestWriteScript_Executable(t *testing.T) {
	p, err := WriteScript(ScriptOptions{Self: "/usr/local/bin/cwhy", Config: config.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(p) })

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), st.Mode().Perm())
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "#!/bin/sh\n"))
}

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRun_CapturesStderrAndExitCode(t *testing.T) {
	requireSh(t)
	var stdout, stderr bytes.Buffer
	c, err := Run(context.Background(), "sh", []string{"-c", "echo built; echo 'a.c:1:1: error: x' >&2; exit 3"},
		nil, &stdout, &stderr)
	require.NoError(t, err)
	assert.True(t, c.Failed())
	assert.Equal(t, 3, c.ExitCode)
	assert.Equal(t, "a.c:1:1: error: x\n", c.Diagnostics)
	assert.Equal(t, "a.c:1:1: error: x\n", stderr.String())
	assert.Equal(t, "built\n", stdout.String())
}

func TestRun_Success(t *testing.T) {
	requireSh(t)
	var stdout, stderr bytes.Buffer
	c, err := Run(context.Background(), "sh", []string{"-c", "cat"}, strings.NewReader("in"), &stdout, &stderr)
	require.NoError(t, err)
	assert.False(t, c.Failed())
	assert.Equal(t, "in", stdout.String())
}

func TestRun_MissingCompiler(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, err := Run(context.Background(), "/nonexistent/cc-does-not-exist", nil, nil, &stdout, &stderr)
	assert.Error(t, err)
}
