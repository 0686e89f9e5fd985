// Package projects implements the Project Registry: one project per
// team, a value-based state machine, and append-only progress and
// feedback logs. The registry does not verify that team_name references
// an existing team; it treats it as an opaque key.
package projects

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
	tagCreate          = "create_project"
	tagUpdateState     = "update_state"
	tagAppendProgress  = "append_progress"
	tagAppendFeedback  = "append_feedback"
	tagGet             = "get_project"
	tagListByCategory  = "list_by_category"
	tagListByState     = "list_by_state"
	tagListAll         = "list_all"
	tagReset           = "reset"
)

type createArgs struct {
	TeamName, Description string
	Category               domain.Category
}

type updateStateArgs struct {
	TeamName string
	State    domain.State
}

type progressArgs struct {
	TeamName, Text string
}

type feedbackArgs struct {
	TeamName, MentorName, Content string
}

// Snapshotter persists the registry's state after every mutation and
// reloads it at bootstrap.
type Snapshotter interface {
	LoadProjects() map[string]domain.Project
	SaveProjects(map[string]domain.Project) error
}

// Registry is the Project Registry: one kernel over map[team_name]Project.
type Registry struct {
	k     *kernel.Kernel[map[string]domain.Project]
	store Snapshotter
}

// New builds the registry. bufferSize bounds the kernel's request
// queue; pass 0 for kernel.DefaultBufferSize.
func New(store Snapshotter, bufferSize int) *Registry {
	r := &Registry{store: store}
	r.k = kernel.New("ProjectRegistry", r.handle, func() map[string]domain.Project {
		return store.LoadProjects()
	}, bufferSize)
	return r
}

func (r *Registry) Kernel() *kernel.Kernel[map[string]domain.Project] { return r.k }

func (r *Registry) handle(tag string, args any, state *map[string]domain.Project) (any, error) {
	switch tag {
	case tagCreate:
		a := args.(createArgs)
		if _, ok := (*state)[a.TeamName]; ok {
			return domain.Project{}, errors.ErrProjectExists
		}
		if !a.Category.IsValid() {
			return domain.Project{}, errors.ErrInvalidCategory
		}
		p := domain.NewProject(a.TeamName, a.Description, a.Category)
		if err := domain.Validate(p); err != nil {
			return domain.Project{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		(*state)[a.TeamName] = p
		_ = r.store.SaveProjects(*state)
		return p, nil

	case tagUpdateState:
		a := args.(updateStateArgs)
		p, ok := (*state)[a.TeamName]
		if !ok {
			return domain.Project{}, errors.ErrProjectNotFound
		}
		if !a.State.IsValid() {
			return domain.Project{}, errors.ErrInvalidState
		}
		p.State = a.State
		(*state)[a.TeamName] = p
		_ = r.store.SaveProjects(*state)
		return p, nil

	case tagAppendProgress:
		a := args.(progressArgs)
		p, ok := (*state)[a.TeamName]
		if !ok {
			return domain.Project{}, errors.ErrProjectNotFound
		}
		p.Progress = append([]string{a.Text}, p.Progress...)
		(*state)[a.TeamName] = p
		_ = r.store.SaveProjects(*state)
		return p, nil

	case tagAppendFeedback:
		a := args.(feedbackArgs)
		p, ok := (*state)[a.TeamName]
		if !ok {
			return domain.Project{}, errors.ErrProjectNotFound
		}
		entry := domain.ProjectFeedback{MentorName: a.MentorName, Content: a.Content, At: time.Now().UTC()}
		p.Feedback = append([]domain.ProjectFeedback{entry}, p.Feedback...)
		(*state)[a.TeamName] = p
		_ = r.store.SaveProjects(*state)
		return p, nil

	case tagGet:
		name := args.(string)
		p, ok := (*state)[name]
		if !ok {
			return domain.Project{}, errors.ErrProjectNotFound
		}
		return p, nil

	case tagListByCategory:
		c := args.(domain.Category)
		return lo.Filter(lo.Values(*state), func(p domain.Project, _ int) bool {
			return p.Category == c
		}), nil

	case tagListByState:
		s := args.(domain.State)
		return lo.Filter(lo.Values(*state), func(p domain.Project, _ int) bool {
			return p.State == s
		}), nil

	case tagListAll:
		return lo.Values(*state), nil

	case tagReset:
		*state = map[string]domain.Project{}
		_ = r.store.SaveProjects(*state)
		return nil, nil

	default:
		return nil, errors.ErrUnknownCommand
	}
}

const defaultTimeout = 5 * time.Second

func callTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// CreateProject fails with errors.ErrProjectExists if team_name is
// already present.
func (r *Registry) CreateProject(ctx context.Context, teamName, description string, category domain.Category) (domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagCreate, createArgs{TeamName: teamName, Description: description, Category: category})
	if err != nil {
		return domain.Project{}, err
	}
	return v.(domain.Project), nil
}

// UpdateState rejects any value outside domain.State's enumeration; the
// registry does not otherwise restrict transitions.
func (r *Registry) UpdateState(ctx context.Context, teamName string, state domain.State) (domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagUpdateState, updateStateArgs{TeamName: teamName, State: state})
	if err != nil {
		return domain.Project{}, err
	}
	return v.(domain.Project), nil
}

// AppendProgress prepends text to the project's progress log.
func (r *Registry) AppendProgress(ctx context.Context, teamName, text string) (domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagAppendProgress, progressArgs{TeamName: teamName, Text: text})
	if err != nil {
		return domain.Project{}, err
	}
	return v.(domain.Project), nil
}

// AppendFeedback prepends a feedback entry. Called both externally and
// from the Mentor Registry's SendFeedback cross-write.
func (r *Registry) AppendFeedback(ctx context.Context, teamName, mentorName, content string) (domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagAppendFeedback, feedbackArgs{TeamName: teamName, MentorName: mentorName, Content: content})
	if err != nil {
		return domain.Project{}, err
	}
	return v.(domain.Project), nil
}

// GetProject is a pure read over current state.
func (r *Registry) GetProject(ctx context.Context, teamName string) (domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagGet, teamName)
	if err != nil {
		return domain.Project{}, err
	}
	return v.(domain.Project), nil
}

// ListByCategory is a pure read over current state.
func (r *Registry) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagListByCategory, category)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Project), nil
}

// ListByState is a pure read over current state.
func (r *Registry) ListByState(ctx context.Context, state domain.State) ([]domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagListByState, state)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Project), nil
}

// ListAll is a pure read over current state.
func (r *Registry) ListAll(ctx context.Context) ([]domain.Project, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagListAll, nil)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Project), nil
}

// Reset empties state and overwrites the snapshot with an empty map.
func (r *Registry) Reset(ctx context.Context) error {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := r.k.Call(ctx, tagReset, nil)
	return err
}
