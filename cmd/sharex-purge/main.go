package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sharexpurge/internal/core/domain"
)

// Version is set at build time through -ldflags.
var Version = "dev"

func main() {
	// A .env file is optional; variables may already be in the environment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps fatal errors to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrPathNotFound), errors.Is(err, domain.ErrIO):
		return 2
	default:
		return 1
	}
}
