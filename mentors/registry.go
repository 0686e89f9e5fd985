// Package mentors implements the Mentor Registry: mentors keyed by id,
// names not unique. SendFeedback appends to the mentor's own state, then
// calls out to the Project Registry; the two are not atomic, so a
// project-side failure leaves the mentor-side append committed. This
// mirrors a "commit locally, then call out, report failure without
// rollback" cross-write shape.
package mentors

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"hackhub/domain"
	"hackhub/errors"
	"hackhub/kernel"
)

const (
	tagRegister       = "register_mentor"
	tagSendFeedback   = "send_feedback"
	tagGet            = "get_mentor"
	tagList           = "list_mentors"
	tagFindSpecialty  = "find_by_specialty"
	tagReset          = "reset"
)

type registerArgs struct {
	Name, Specialty string
}

type feedbackArgs struct {
	MentorID, TeamName, Content string
}

// Snapshotter persists the registry's state after every mutation and
// reloads it at bootstrap.
type Snapshotter interface {
	LoadMentors() map[string]domain.Mentor
	SaveMentors(map[string]domain.Mentor) error
}

// ProjectAppender is the Project Registry collaborator SendFeedback
// cross-writes into.
type ProjectAppender interface {
	AppendFeedback(ctx context.Context, teamName, mentorName, content string) (domain.Project, error)
}

// Registry is the Mentor Registry: one kernel over map[id]Mentor.
type Registry struct {
	k        *kernel.Kernel[map[string]domain.Mentor]
	store    Snapshotter
	projects ProjectAppender
}

// New builds the registry. bufferSize bounds the kernel's request
// queue; pass 0 for kernel.DefaultBufferSize.
func New(store Snapshotter, projects ProjectAppender, bufferSize int) *Registry {
	r := &Registry{store: store, projects: projects}
	r.k = kernel.New("MentorRegistry", r.handle, func() map[string]domain.Mentor {
		return store.LoadMentors()
	}, bufferSize)
	return r
}

func (r *Registry) Kernel() *kernel.Kernel[map[string]domain.Mentor] { return r.k }

func (r *Registry) handle(tag string, args any, state *map[string]domain.Mentor) (any, error) {
	switch tag {
	case tagRegister:
		a := args.(registerArgs)
		m := domain.NewMentor(a.Name, a.Specialty)
		(*state)[m.ID] = m
		_ = r.store.SaveMentors(*state)
		return m, nil

	case tagSendFeedback:
		a := args.(feedbackArgs)
		m, ok := (*state)[a.MentorID]
		if !ok {
			return domain.Mentor{}, errors.ErrMentorNotFound
		}
		entry := domain.MentorFeedback{TeamName: a.TeamName, Content: a.Content, At: time.Now().UTC()}
		m.FeedbackGiven = append([]domain.MentorFeedback{entry}, m.FeedbackGiven...)
		(*state)[a.MentorID] = m
		_ = r.store.SaveMentors(*state)
		return m, nil

	case tagGet:
		id := args.(string)
		m, ok := (*state)[id]
		if !ok {
			return domain.Mentor{}, errors.ErrMentorNotFound
		}
		return m, nil

	case tagList:
		return lo.Values(*state), nil

	case tagFindSpecialty:
		specialty := strings.ToLower(args.(string))
		return lo.Filter(lo.Values(*state), func(m domain.Mentor, _ int) bool {
			return strings.ToLower(m.Specialty) == specialty
		}), nil

	case tagReset:
		*state = map[string]domain.Mentor{}
		_ = r.store.SaveMentors(*state)
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

// RegisterMentor never fails: there is no duplicate detection by design.
func (r *Registry) RegisterMentor(ctx context.Context, name, specialty string) (domain.Mentor, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagRegister, registerArgs{Name: name, Specialty: specialty})
	if err != nil {
		return domain.Mentor{}, err
	}
	return v.(domain.Mentor), nil
}

// SendFeedback appends to the mentor's own feedback history, then calls
// into the Project Registry. If the project call fails (e.g.
// errors.ErrProjectNotFound), the mentor-side append is NOT rolled back;
// SendFeedback still returns the updated Mentor but surfaces the project
// error so the caller can observe the partial failure.
func (r *Registry) SendFeedback(ctx context.Context, mentorID, teamName, content string) (domain.Mentor, error) {
	callCtx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(callCtx, tagSendFeedback, feedbackArgs{MentorID: mentorID, TeamName: teamName, Content: content})
	if err != nil {
		return domain.Mentor{}, err
	}
	mentor := v.(domain.Mentor)

	if _, projErr := r.projects.AppendFeedback(ctx, teamName, mentor.Name, content); projErr != nil {
		return mentor, projErr
	}
	return mentor, nil
}

// GetMentor is a pure read over current state.
func (r *Registry) GetMentor(ctx context.Context, id string) (domain.Mentor, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagGet, id)
	if err != nil {
		return domain.Mentor{}, err
	}
	return v.(domain.Mentor), nil
}

// ListMentors is a pure read over current state.
func (r *Registry) ListMentors(ctx context.Context) ([]domain.Mentor, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagList, nil)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Mentor), nil
}

// FindBySpecialty matches case-insensitively.
func (r *Registry) FindBySpecialty(ctx context.Context, specialty string) ([]domain.Mentor, error) {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := r.k.Call(ctx, tagFindSpecialty, specialty)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Mentor), nil
}

// Reset empties state and overwrites the snapshot with an empty map.
func (r *Registry) Reset(ctx context.Context) error {
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := r.k.Call(ctx, tagReset, nil)
	return err
}
