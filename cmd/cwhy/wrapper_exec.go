package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cwhy/internal/config"
	"cwhy/internal/wrapper"
)

// newWrapperExecCmd is the entry point of generated wrapper scripts. It runs
// the real compiler and, when the build fails, explains the diagnostics. The
// compiler's exit code is always passed through.
func (a *app) newWrapperExecCmd() *cobra.Command {
	var (
		mode    string
		fileErr error
	)
	cmd := &cobra.Command{
		Use:    wrapper.ExecCommand + " [--mode MODE] -- COMPILER [ARGS...]",
		Short:  "Run a compiler and explain its diagnostics if it fails",
		Hidden: true,
		Args:   cobra.MinimumNArgs(1),
		// A broken config file must not keep the compiler from running.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fileErr = a.loadConfigFile(cmd, args)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := wrapper.Run(cmd.Context(), args[0], args[1:], a.stdin, a.stdout, a.stderr)
			if err != nil {
				return err
			}
			a.exitCode = capture.ExitCode
			if !capture.Failed() || strings.TrimSpace(capture.Diagnostics) == "" {
				return nil
			}
			// From here on nothing may change the build's exit status.
			if fileErr != nil {
				fmt.Fprintf(a.stderr, "cwhy: %v\n", fileErr)
				return nil
			}
			cfg, err := a.wrapperConfig(mode)
			if err != nil {
				fmt.Fprintf(a.stderr, "cwhy: %v\n", err)
				return nil
			}
			if _, err := a.runPipeline(cmd, cfg, capture.Diagnostics); err != nil {
				fmt.Fprintf(a.stderr, "cwhy: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(config.ModeExplain), "explain, fix or extract-sources")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) wrapperConfig(mode string) (config.Config, error) {
	m, err := config.ParseMode(mode)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(a.v, m)
}
