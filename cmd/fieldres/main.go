// Package main is the entry point for the fieldres CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/gordysc/Foundatio.Parsers/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
