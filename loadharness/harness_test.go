package loadharness

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"hackhub/chat"
	"hackhub/facade"
	"hackhub/mentors"
	"hackhub/projects"
	"hackhub/snapshot"
	"hackhub/teams"
)

func newTestFacade(t *testing.T) *facade.Facade {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := snapshot.New(t.TempDir(), log)
	require.NoError(t, err)

	teamsReg := teams.New(store, 0)
	projectsReg := projects.New(store, 0)
	mentorsReg := mentors.New(store, projectsReg, 0)
	chatServer := chat.New("node-1", store, chat.NewBus(), chat.NewLocalElector("node-1"), nil, nil, log, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = teamsReg.Kernel().Run(ctx) }()
	go func() { _ = projectsReg.Kernel().Run(ctx) }()
	go func() { _ = mentorsReg.Kernel().Run(ctx) }()
	go func() { _ = chatServer.Kernel().Run(ctx) }()

	return facade.New(teamsReg, projectsReg, mentorsReg, chatServer, store)
}

func TestRun_SmallScaleCountsMatch(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := Config{Teams: 5, Participants: 3, Messages: 4, Concurrency: 8}
	result, err := Run(context.Background(), f, cfg, log)
	req.NoError(err)

	req.Equal(cfg.Teams*cfg.Participants, result.ParticipantCount)
	req.Equal(cfg.Teams, result.ProjectCount)
	req.Equal(cfg.Teams*cfg.Messages, result.MessageCount)
	req.Len(result.Phases, 4)
	for _, p := range result.Phases {
		req.Equal(0, p.Failures, "phase %s had failures", p.Name)
	}
}

func TestRun_FullScaleCountsMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-scale load test in short mode")
	}
	req := require.New(t)
	f := newTestFacade(t)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := Config{Teams: 100, Participants: 10, Messages: 10, Concurrency: 50}
	result, err := Run(context.Background(), f, cfg, log)
	req.NoError(err)

	req.Equal(1000, result.ParticipantCount)
	req.Equal(100, result.ProjectCount)
	req.Equal(1000, result.MessageCount)
}

func TestRun_ZeroConcurrencyFallsBackToDefault(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := Config{Teams: 2, Participants: 1, Messages: 1}
	result, err := Run(context.Background(), f, cfg, log)
	req.NoError(err)
	req.Equal(2, result.ParticipantCount)
}
