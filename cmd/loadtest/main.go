package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hackhub/app"
	"hackhub/internal"
	"hackhub/loadharness"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hackhub loadtest terminated with error: %v\n", err)
	}
	os.Exit(code)
}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	harnessCfg := loadharness.Config{
		Teams:        cfg.LoadTestTeams,
		Participants: cfg.LoadTestParticipants,
		Messages:     cfg.LoadTestMessages,
		Concurrency:  cfg.LoadTestConcurrency,
	}

	result, err := loadharness.Run(ctx, a.Facade, harnessCfg, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("load harness failed: %w", err)
	}

	for _, phase := range result.Phases {
		log.Info("phase complete", "phase", phase.Name, "duration", phase.Duration, "failures", phase.Failures)
	}
	log.Info("load harness complete",
		"total_duration", result.TotalDuration,
		"participants", result.ParticipantCount,
		"projects", result.ProjectCount,
		"messages", result.MessageCount,
	)

	return exitOK, nil
}
