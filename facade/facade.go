// Package facade implements a thin synchronous delegating API, one
// method per registry call, generalized across all four registries plus
// the snapshot store.
package facade

import (
	"context"

	"hackhub/chat"
	"hackhub/domain"
	"hackhub/errors"
	"hackhub/mentors"
	"hackhub/projects"
	"hackhub/snapshot"
	"hackhub/teams"
)

// Facade mirrors every registry and chat operation with no logic of its
// own beyond delegation, except Reset, which coordinates a full wipe.
type Facade struct {
	Teams    *teams.Registry
	Projects *projects.Registry
	Mentors  *mentors.Registry
	Chat     *chat.Server // nil only in tests that omit a chat server entirely
	Store    *snapshot.Store
}

func New(teamsReg *teams.Registry, projectsReg *projects.Registry, mentorsReg *mentors.Registry, chatServer *chat.Server, store *snapshot.Store) *Facade {
	return &Facade{Teams: teamsReg, Projects: projectsReg, Mentors: mentorsReg, Chat: chatServer, Store: store}
}

// --- Teams -----------------------------------------------------------------

func (f *Facade) CreateTeam(ctx context.Context, name, topic string) (domain.Team, error) {
	return f.Teams.CreateTeam(ctx, name, topic)
}

func (f *Facade) AddParticipant(ctx context.Context, teamName, personName, email string) (domain.Team, error) {
	return f.Teams.AddParticipant(ctx, teamName, personName, email)
}

func (f *Facade) GetTeam(ctx context.Context, name string) (domain.Team, error) {
	return f.Teams.GetTeam(ctx, name)
}

func (f *Facade) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return f.Teams.ListTeams(ctx)
}

// --- Projects ----------------------------------------------------------------

func (f *Facade) CreateProject(ctx context.Context, teamName, description string, category domain.Category) (domain.Project, error) {
	return f.Projects.CreateProject(ctx, teamName, description, category)
}

func (f *Facade) UpdateProjectState(ctx context.Context, teamName string, state domain.State) (domain.Project, error) {
	return f.Projects.UpdateState(ctx, teamName, state)
}

func (f *Facade) AppendProgress(ctx context.Context, teamName, text string) (domain.Project, error) {
	return f.Projects.AppendProgress(ctx, teamName, text)
}

func (f *Facade) GetProject(ctx context.Context, teamName string) (domain.Project, error) {
	return f.Projects.GetProject(ctx, teamName)
}

func (f *Facade) ListProjectsByCategory(ctx context.Context, category domain.Category) ([]domain.Project, error) {
	return f.Projects.ListByCategory(ctx, category)
}

func (f *Facade) ListProjectsByState(ctx context.Context, state domain.State) ([]domain.Project, error) {
	return f.Projects.ListByState(ctx, state)
}

func (f *Facade) ListAllProjects(ctx context.Context) ([]domain.Project, error) {
	return f.Projects.ListAll(ctx)
}

// --- Mentors -----------------------------------------------------------------

func (f *Facade) RegisterMentor(ctx context.Context, name, specialty string) (domain.Mentor, error) {
	return f.Mentors.RegisterMentor(ctx, name, specialty)
}

func (f *Facade) SendMentorFeedback(ctx context.Context, mentorID, teamName, content string) (domain.Mentor, error) {
	return f.Mentors.SendFeedback(ctx, mentorID, teamName, content)
}

func (f *Facade) GetMentor(ctx context.Context, id string) (domain.Mentor, error) {
	return f.Mentors.GetMentor(ctx, id)
}

func (f *Facade) ListMentors(ctx context.Context) ([]domain.Mentor, error) {
	return f.Mentors.ListMentors(ctx)
}

func (f *Facade) FindMentorsBySpecialty(ctx context.Context, specialty string) ([]domain.Mentor, error) {
	return f.Mentors.FindBySpecialty(ctx, specialty)
}

// --- Chat ----------------------------------------------------------------

func (f *Facade) CreateRoom(ctx context.Context, name string) (string, error) {
	if f.Chat == nil {
		return "", errors.ErrChatUnavailable
	}
	return f.Chat.CreateRoom(ctx, name)
}

func (f *Facade) SendMessage(ctx context.Context, room, author, content string) error {
	if f.Chat == nil {
		return errors.ErrChatUnavailable
	}
	return f.Chat.SendMessage(ctx, room, author, content)
}

// History returns the room's messages oldest-first, capped to the most
// recent limit when limit > 0.
func (f *Facade) History(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if f.Chat == nil {
		return nil, errors.ErrChatUnavailable
	}
	return f.Chat.History(ctx, room, limit)
}

func (f *Facade) ListRooms(ctx context.Context) ([]string, error) {
	if f.Chat == nil {
		return nil, errors.ErrChatUnavailable
	}
	return f.Chat.ListRooms(ctx)
}

func (f *Facade) ClusterInfo() (chat.ClusterInfo, error) {
	if f.Chat == nil {
		return chat.ClusterInfo{}, errors.ErrChatUnavailable
	}
	return f.Chat.ClusterInfo()
}

// Subscribe registers a listener for a room's local pub/sub topic. It
// is local-only, unlike the rest of the chat surface: a follower
// subscribes to its own bus, not the holder's, since live fan-out
// rides the in-process Bus rather than the ChatCluster RPC.
func (f *Facade) Subscribe(room string) (<-chan chat.Event, int) {
	if f.Chat == nil {
		return nil, -1
	}
	return f.Chat.Subscribe(room)
}

func (f *Facade) Unsubscribe(room string, token int) {
	if f.Chat != nil {
		f.Chat.Unsubscribe(room, token)
	}
}

// Reset wipes the snapshot directory, resets every registry, and resets
// the chat server if it is reachable from this node. It never fails on
// a missing or unreachable chat server.
func (f *Facade) Reset(ctx context.Context) error {
	if f.Store != nil {
		if err := f.Store.ClearAll(); err != nil {
			return err
		}
	}

	if err := f.Teams.Reset(ctx); err != nil {
		return err
	}
	if err := f.Projects.Reset(ctx); err != nil {
		return err
	}
	if err := f.Mentors.Reset(ctx); err != nil {
		return err
	}

	if f.Chat != nil {
		_ = f.Chat.Reset(ctx)
	}
	return nil
}

// ClearAll wipes the snapshot directory on disk without touching any
// registry's in-memory state, the narrower counterpart to Reset.
func (f *Facade) ClearAll() error {
	if f.Store == nil {
		return errors.ErrUnavailable
	}
	return f.Store.ClearAll()
}

// PersistState takes a live snapshot of every registry plus the chat
// server and writes it to disk, independent of each registry's own
// on-write persistence.
func (f *Facade) PersistState(ctx context.Context) error {
	if f.Store == nil {
		return errors.ErrUnavailable
	}
	var chatServer snapshot.ChatLister
	if f.Chat != nil {
		chatServer = f.Chat
	}
	return f.Store.PersistState(ctx, f.Teams, f.Projects, f.Mentors, chatServer)
}

// PersistInfo reports per-entity counts from the last snapshot on disk
// plus this process's own CPU/RAM.
func (f *Facade) PersistInfo() (snapshot.PersistInfo, error) {
	if f.Store == nil {
		return snapshot.PersistInfo{}, errors.ErrUnavailable
	}
	return f.Store.PersistInfo(), nil
}
