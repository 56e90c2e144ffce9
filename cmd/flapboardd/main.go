// cmd/flapboardd/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colebrumley/flapboard/internal/daemon"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := os.Getenv("FLAPBOARD_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := daemon.New(configPath).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
