package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"cwhy/internal/config"
)

func main() {
	config.LoadDotEnv()
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, color.New(color.FgRed, color.Bold).Sprint("cwhy:"), err)
		return 1
	}
	return a.exitCode
}
