package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cwhy/internal/config"
	"cwhy/internal/llm"
	"cwhy/internal/pipeline"
	"cwhy/internal/version"
	"cwhy/internal/wrapper"
)

// app holds the state of one CLI invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	wrapper bool

	stdin          io.Reader
	stdout, stderr io.Writer

	// newCompleter builds the LLM backend. Tests replace it.
	newCompleter func(llm.Settings) (llm.Completer, error)
	// executable locates the cwhy binary for generated wrappers.
	executable func() (string, error)

	exitCode int
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		v:            config.NewViper(),
		stdin:        stdin,
		stdout:       stdout,
		stderr:       stderr,
		newCompleter: llm.New,
		executable:   os.Executable,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cwhy",
		Short: "Explain or fix compiler diagnostics with a language model",
		Long: `cwhy reads compiler diagnostics on standard input, gathers the source
lines they point at and asks a language model to explain them.

Usage:
  clang++ main.cpp 2>&1 | cwhy            Explain the errors (same as "cwhy explain")
  clang++ main.cpp 2>&1 | cwhy fix        Ask for a unified diff that fixes them
  clang++ main.cpp 2>&1 | cwhy extract-sources
                                          Print the locations cwhy would send
  CXX=$(cwhy --wrapper) make              Build through a wrapper that explains failures

Credentials are read from OPENAI_API_KEY, GROQ_API_KEY or GEMINI_API_KEY,
depending on the model. Every flag can also be set as CWHY_<FLAG> (for example
CWHY_MAX_CONTEXT=10), in ./.env or in $HOME/.cwhy.yaml.`,
		Version:           version.String(),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfigFile,
		RunE:              a.runMode(config.ModeExplain),
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.cwhy.yaml)")
	pf.BoolVar(&a.wrapper, "wrapper", false, "write a compiler wrapper script and print its path")
	pf.String(config.KeyModel, config.DefaultModel, "language model to use (gpt-*, llama-*, gemini-*, fake)")
	pf.String(config.KeyProvider, string(llm.ProviderAuto), "backend: auto, openai, groq, gemini or fake")
	pf.String(config.KeyBaseURL, "", "override the OpenAI-compatible endpoint")
	pf.String(config.KeyProxy, "", "HTTP proxy for LLM requests (default from HTTPS_PROXY)")
	pf.Int(config.KeyTimeout, config.DefaultTimeoutSeconds, "seconds to wait for the model")
	pf.Int(config.KeyMaxContext, config.DefaultMaxContext, "maximum number of source snippets to include")
	pf.Bool(config.KeyShowPrompt, false, "print the prompt instead of sending it")
	pf.Bool(config.KeyVerbose, false, "log pipeline progress to stderr")
	pf.String(config.KeyWrapperCompiler, config.DefaultWrapperCompiler, "compiler the --wrapper script runs")

	for _, key := range []string{
		config.KeyModel, config.KeyProvider, config.KeyBaseURL, config.KeyProxy,
		config.KeyTimeout, config.KeyMaxContext, config.KeyShowPrompt, config.KeyVerbose,
		config.KeyWrapperCompiler,
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(key))
	}

	root.AddCommand(
		a.newModeCmd(config.ModeExplain, "Explain the diagnostics (default)"),
		a.newModeCmd(config.ModeFix, "Propose a fix as a unified diff"),
		a.newModeCmd(config.ModeExtractSources, "Print the source locations found in the diagnostics"),
		a.newWrapperExecCmd(),
	)
	return root
}

func (a *app) newModeCmd(mode config.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE:  a.runMode(mode),
	}
}

func (a *app) loadConfigFile(*cobra.Command, []string) error {
	return config.ReadConfigFile(a.v, a.cfgFile)
}

func (a *app) runMode(mode config.Mode) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(a.v, mode)
		if err != nil {
			return err
		}
		if a.wrapper {
			return a.writeWrapper(cfg)
		}
		input, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		code, err := a.runPipeline(cmd, cfg, string(input))
		if err != nil {
			return err
		}
		a.exitCode = code
		return nil
	}
}

func (a *app) writeWrapper(cfg config.Config) error {
	self, err := a.executable()
	if err != nil {
		return fmt.Errorf("locate cwhy executable: %w", err)
	}
	path, err := wrapper.WriteScript(wrapper.ScriptOptions{Self: self, Config: cfg})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) runPipeline(cmd *cobra.Command, cfg config.Config, input string) (int, error) {
	logger := a.logger(cfg)
	completer, err := a.newCompleter(cfg.LLMSettings())
	if err != nil {
		return 0, err
	}
	completer = llm.Wrap(completer, llm.WithLogging(logger))
	defer completer.Close()

	logger.Printf("model %s via %s, mode %s", cfg.Model, completer.Name(), cfg.Mode)
	p := pipeline.New(completer, pipeline.WithLogger(logger))
	return p.Run(cmd.Context(), cfg, input, a.stdout, a.stderr), nil
}

func (a *app) logger(cfg config.Config) *log.Logger {
	if !cfg.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(a.stderr, "cwhy: ", log.Ltime|log.Lmicroseconds)
}
