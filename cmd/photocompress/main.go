package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dunamismax/photocompress/internal/cli"
	"github.com/dunamismax/photocompress/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := pipeline.Startup(); err != nil {
		fmt.Fprintf(os.Stderr, "start image runtime: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	pipeline.Shutdown()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "photocompress: %v\n", err)
		os.Exit(1)
	}
}
