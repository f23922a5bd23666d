// Package main provides the entry point for the droidgate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/droidgate/droidgate/cmd/droidgate/cmd"
	"github.com/droidgate/droidgate/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
