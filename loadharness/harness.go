// Package loadharness drives a concurrent creation workload against the
// facade to exercise the serialization kernels under contention. Each
// phase fans out over a wait-group/channel pattern bounded by
// golang.org/x/sync/semaphore instead of one goroutine per task.
package loadharness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"hackhub/domain"
	"hackhub/facade"
)

const (
	defaultConcurrency = 50
	perTaskTimeout     = 10 * time.Second
)

// Config drives one harness run: N teams, M participants per team, one
// project per team, K chat messages per team.
type Config struct {
	Teams        int
	Participants int
	Messages     int
	Concurrency  int
}

// PhaseResult reports one phase's wall-clock and the number of tasks
// that failed.
type PhaseResult struct {
	Name     string
	Duration time.Duration
	Failures int
}

// Result is the full report of one harness run: every phase plus the
// total wall-clock and the counts Scenario F asserts on.
type Result struct {
	Phases           []PhaseResult
	TotalDuration    time.Duration
	ParticipantCount int
	ProjectCount     int
	MessageCount     int
}

// Run drives the four phases against f in order: teams, participants,
// projects, chat messages. Every phase fans out with a bounded
// concurrency semaphore and a per-task timeout; a task's failure is
// counted but does not stop the rest of the phase.
func Run(ctx context.Context, f *facade.Facade, cfg Config, log *slog.Logger) (Result, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	var result Result
	start := time.Now()

	teamNames := make([]string, cfg.Teams)
	for i := range teamNames {
		teamNames[i] = fmt.Sprintf("team-%04d", i)
	}

	phase1 := runPhase(ctx, "create_teams", cfg.Concurrency, len(teamNames), log, func(taskCtx context.Context, i int) error {
		_, err := f.CreateTeam(taskCtx, teamNames[i], "hackathon")
		return err
	})
	result.Phases = append(result.Phases, phase1)

	type participantTask struct {
		teamIdx int
		personN int
	}
	tasks := make([]participantTask, 0, cfg.Teams*cfg.Participants)
	for i := range teamNames {
		for j := 0; j < cfg.Participants; j++ {
			tasks = append(tasks, participantTask{teamIdx: i, personN: j})
		}
	}
	phase2 := runPhase(ctx, "add_participants", cfg.Concurrency, len(tasks), log, func(taskCtx context.Context, i int) error {
		task := tasks[i]
		email := fmt.Sprintf("p%d@%s.hack", task.personN, teamNames[task.teamIdx])
		name := fmt.Sprintf("Participant %d", task.personN)
		_, err := f.AddParticipant(taskCtx, teamNames[task.teamIdx], name, email)
		return err
	})
	result.Phases = append(result.Phases, phase2)

	phase3 := runPhase(ctx, "create_projects", cfg.Concurrency, len(teamNames), log, func(taskCtx context.Context, i int) error {
		_, err := f.CreateProject(taskCtx, teamNames[i], "load test project", domain.CategorySocial)
		return err
	})
	result.Phases = append(result.Phases, phase3)

	type messageTask struct {
		teamIdx int
		msgN    int
	}
	msgTasks := make([]messageTask, 0, cfg.Teams*cfg.Messages)
	for i := range teamNames {
		for j := 0; j < cfg.Messages; j++ {
			msgTasks = append(msgTasks, messageTask{teamIdx: i, msgN: j})
		}
	}
	for _, name := range teamNames {
		_, _ = f.CreateRoom(ctx, name)
	}
	phase4 := runPhase(ctx, "send_messages", cfg.Concurrency, len(msgTasks), log, func(taskCtx context.Context, i int) error {
		task := msgTasks[i]
		return f.SendMessage(taskCtx, teamNames[task.teamIdx], "harness", fmt.Sprintf("message %d", task.msgN))
	})
	result.Phases = append(result.Phases, phase4)

	result.TotalDuration = time.Since(start)

	teams, err := f.ListTeams(ctx)
	if err != nil {
		return result, fmt.Errorf("listing teams for verification: %w", err)
	}
	for _, t := range teams {
		result.ParticipantCount += len(t.Participants)
	}

	projects, err := f.ListAllProjects(ctx)
	if err != nil {
		return result, fmt.Errorf("listing projects for verification: %w", err)
	}
	result.ProjectCount = len(projects)

	rooms, err := f.ListRooms(ctx)
	if err != nil {
		return result, fmt.Errorf("listing rooms for verification: %w", err)
	}
	for _, room := range rooms {
		history, err := f.History(ctx, room, 0)
		if err != nil {
			continue
		}
		result.MessageCount += len(history)
	}

	return result, nil
}

// runPhase fans n tasks out across a semaphore-bounded pool of
// goroutines, each given perTaskTimeout. It returns once every task has
// either completed or timed out.
func runPhase(ctx context.Context, name string, concurrency int, n int, log *slog.Logger, task func(ctx context.Context, i int) error) PhaseResult {
	start := time.Now()
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures += n - i
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			taskCtx, cancel := context.WithTimeout(ctx, perTaskTimeout)
			defer cancel()

			if err := task(taskCtx, i); err != nil {
				log.Warn("load harness task failed", "phase", name, "index", i, "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return PhaseResult{Name: name, Duration: time.Since(start), Failures: failures}
}
