// Package main is the entry point for the weave binary: a small
// command-line router/reverse-proxy. It builds the Cobra command tree in
// internal/cli and maps the result to the process exit codes (0 normal
// shutdown, 1 bad argv, 2 listener bind failure).
package main

import (
	"fmt"
	"os"

	"github.com/arkd0ng/weave/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "weave:", err)
	}
	os.Exit(cli.ExitCode(err))
}
