package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hackhub/app"
	"hackhub/internal"
)

// Exit codes give the process manager a meaningful status beyond
// "nonzero".
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hackhub server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run is a thin wrapper so deferred cleanup always executes and the
// wiring logic stays testable independently of os.Exit.
func run() (int, error) {
	cfg, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	a, err := app.New(cfg, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("wiring failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("hackhub server starting", "node_id", cfg.NodeID, "cluster_size", cfg.ClusterSize)
	a.Run(ctx)
	log.Info("hackhub server stopped")

	return exitOK, nil
}
