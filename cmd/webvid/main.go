package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"webvid/internal/services"
)

const (
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrValidation):
		return exitValidation
	default:
		return exitFailure
	}
}
