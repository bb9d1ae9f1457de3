// Package main is the entry point for the hora CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/cli"
	"github.com/runoshun/hora/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	container, err := app.New(app.DefaultDataDir())
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.Execute()
}

// exitCode distinguishes caller mistakes from refused operations and failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return 2
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrConflict):
		return 3
	default:
		return 1
	}
}
