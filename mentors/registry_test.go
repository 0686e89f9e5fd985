package mentors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hackhub/domain"
	"hackhub/errors"
	"hackhub/projects"
)

type fakeStore struct {
	saved map[string]domain.Mentor
}

func (f *fakeStore) LoadMentors() map[string]domain.Mentor {
	if f.saved != nil {
		return f.saved
	}
	return map[string]domain.Mentor{}
}

func (f *fakeStore) SaveMentors(m map[string]domain.Mentor) error {
	f.saved = m
	return nil
}

type fakeProjectStore struct {
	saved map[string]domain.Project
}

func (f *fakeProjectStore) LoadProjects() map[string]domain.Project {
	if f.saved != nil {
		return f.saved
	}
	return map[string]domain.Project{}
}

func (f *fakeProjectStore) SaveProjects(m map[string]domain.Project) error {
	f.saved = m
	return nil
}

func newRunningProjects(t *testing.T) *projects.Registry {
	pr := projects.New(&fakeProjectStore{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = pr.Kernel().Run(ctx) }()
	return pr
}

func newRunningRegistry(t *testing.T, pr *projects.Registry) *Registry {
	r := New(&fakeStore{}, pr, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Kernel().Run(ctx) }()
	return r
}

func TestRegistry_RegisterNeverFails(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	r := newRunningRegistry(t, pr)
	ctx := context.Background()

	m1, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)

	m2, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)
	req.NotEqual(m1.ID, m2.ID)
}

func TestRegistry_SendFeedback_CrossWriteScenario(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	ctx := context.Background()

	_, err := pr.CreateProject(ctx, "Gamma", "app", domain.CategoryEducativo)
	req.NoError(err)

	r := newRunningRegistry(t, pr)

	mentor, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)

	updated, err := r.SendFeedback(ctx, mentor.ID, "Gamma", "looks solid")
	req.NoError(err)
	req.Len(updated.FeedbackGiven, 1)
	req.Equal("Gamma", updated.FeedbackGiven[0].TeamName)

	proj, err := pr.GetProject(ctx, "Gamma")
	req.NoError(err)
	req.Len(proj.Feedback, 1)
	req.Equal("Dr S", proj.Feedback[0].MentorName)
	req.Equal("looks solid", proj.Feedback[0].Content)
}

func TestRegistry_SendFeedback_MentorNotFound(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	r := newRunningRegistry(t, pr)
	ctx := context.Background()

	_, err := r.SendFeedback(ctx, "nope", "Gamma", "x")
	req.ErrorIs(err, errors.ErrMentorNotFound)
}

func TestRegistry_SendFeedback_ProjectMissingIsNotRolledBack(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	r := newRunningRegistry(t, pr)
	ctx := context.Background()

	mentor, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)

	// No project named "Ghost" exists: the project-side call fails, but
	// the mentor-side feedback append has already committed.
	_, err = r.SendFeedback(ctx, mentor.ID, "Ghost", "hello")
	req.ErrorIs(err, errors.ErrProjectNotFound)

	got, err := r.GetMentor(ctx, mentor.ID)
	req.NoError(err)
	req.Len(got.FeedbackGiven, 1)
}

func TestRegistry_FindBySpecialty_CaseInsensitive(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	r := newRunningRegistry(t, pr)
	ctx := context.Background()

	_, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)
	_, err = r.RegisterMentor(ctx, "Dr T", "Frontend")
	req.NoError(err)

	found, err := r.FindBySpecialty(ctx, "BACKEND")
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("Dr S", found[0].Name)
}

func TestRegistry_ListMentorsAndReset(t *testing.T) {
	req := require.New(t)
	pr := newRunningProjects(t)
	r := newRunningRegistry(t, pr)
	ctx := context.Background()

	_, err := r.RegisterMentor(ctx, "Dr S", "Backend")
	req.NoError(err)

	all, err := r.ListMentors(ctx)
	req.NoError(err)
	req.Len(all, 1)

	req.NoError(r.Reset(ctx))

	all, err = r.ListMentors(ctx)
	req.NoError(err)
	req.Empty(all)
}
