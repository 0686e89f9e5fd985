package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hackhub/app"
	"hackhub/cli"
	"hackhub/internal"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hackhub console terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	a, err := app.New(cfg, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("wiring failed: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	console := cli.New(a.Facade, os.Stdin, os.Stdout)
	return console.Run(ctx), nil
}
