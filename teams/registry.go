// Package teams implements the Team Registry: teams keyed by name,
// participants keyed by email within a team, over the serialization
// kernel. The map-of-records shape runs on top of kernel.Kernel so every
// mutation is strictly ordered against reads.
package teams

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"hackhub/domain"
	"hackhub/errors"
	"hackhub/kernel"
)

const (
	tagCreate  = "create_team"
	tagJoin    = "add_participant"
	tagGet     = "get_team"
	tagList    = "list_teams"
	tagReset   = "reset"
)

type createArgs struct {
	Name, Topic string
}

type joinArgs struct {
	TeamName, PersonName, Email string
}

// Snapshotter persists the registry's state after every mutation and
// reloads it at bootstrap.
type Snapshotter interface {
	LoadTeams() map[string]domain.Team
	SaveTeams(map[string]domain.Team) error
}

// Registry is the Team Registry: one kernel over map[name]Team.
type Registry struct {
	k     *kernel.Kernel[map[string]domain.Team]
	store Snapshotter
}

// New builds the registry. It does not start the kernel; the caller runs
// it under a Supervisor. bufferSize bounds the kernel's request queue;
// pass 0 for kernel.DefaultBufferSize.
func New(store Snapshotter, bufferSize int) *Registry {
	r := &Registry{store: store}
	r.k = kernel.New("TeamRegistry", r.handle, func() map[string]domain.Team {
		return store.LoadTeams()
	}, bufferSize)
	return r
}

// Kernel exposes the underlying kernel so a Supervisor can run it.
func (r *Registry) Kernel() *kernel.Kernel[map[string]domain.Team] { return r.k }

func (r *Registry) handle(tag string, args any, state *map[string]domain.Team) (any, error) {
	switch tag {
	case tagCreate:
		a := args.(createArgs)
		if _, ok := (*state)[a.Name]; ok {
			return domain.Team{}, errors.ErrTeamExists
		}
		team := domain.NewTeam(a.Name, a.Topic)
		if err := domain.Validate(team); err != nil {
			return domain.Team{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		(*state)[a.Name] = team
		_ = r.store.SaveTeams(*state)
		return team, nil

	case tagJoin:
		a := args.(joinArgs)
		team, ok := (*state)[a.TeamName]
		if !ok {
			return domain.Team{}, errors.ErrTeamNotFound
		}
		if team.HasEmail(a.Email) {
			return domain.Team{}, errors.ErrParticipantDup
		}
		participant := domain.Participant{Name: a.PersonName, Email: a.Email}
		if err := domain.Validate(participant); err != nil {
			return domain.Team{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		team.Participants = append([]domain.Participant{participant}, team.Participants...)
		(*state)[a.TeamName] = team
		_ = r.store.SaveTeams(*state)
		return team, nil

	case tagGet:
		name := args.(string)
		team, ok := (*state)[name]
		if !ok {
			return domain.Team{}, errors.ErrTeamNotFound
		}
		return team, nil

	case tagList:
		return lo.Values(*state), nil

	case tagReset:
		*state = map[string]domain.Team{}
		_ = r.store.SaveTeams(*state)
		return nil, nil

	default:
		return nil, errors.ErrUnknownCommand
	}
}

func callTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

const defaultTimeout = 5 * time.Second

// CreateTeam fails with errors.ErrTeamExists if name is already present.
func (r *Registry) CreateTeam(ctx context.Context, name, topic string) (domain.Team, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagCreate, createArgs{Name: name, Topic: topic})
	if err != nil {
		return domain.Team{}, err
	}
	return v.(domain.Team), nil
}

// AddParticipant prepends a participant to the team's participant list.
func (r *Registry) AddParticipant(ctx context.Context, teamName, personName, email string) (domain.Team, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagJoin, joinArgs{TeamName: teamName, PersonName: personName, Email: email})
	if err != nil {
		return domain.Team{}, err
	}
	return v.(domain.Team), nil
}

// GetTeam is a pure read over current state.
func (r *Registry) GetTeam(ctx context.Context, name string) (domain.Team, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagGet, name)
	if err != nil {
		return domain.Team{}, err
	}
	return v.(domain.Team), nil
}

// ListTeams is a pure read over current state.
func (r *Registry) ListTeams(ctx context.Context) ([]domain.Team, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagList, nil)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Team), nil
}

// Reset empties state and overwrites the snapshot with an empty map.
func (r *Registry) Reset(ctx context.Context) error {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := r.k.Call(ctx, tagReset, nil)
	return err
}
